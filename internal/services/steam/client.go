package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"gamarr/internal/config"
	"gamarr/internal/providers"
)

const (
	storeBaseURL = "https://store.steampowered.com"
	cdnBaseURL   = "https://steamcdn-a.akamaihd.net/steam/apps"

	searchCacheTTL = 30 * time.Minute
)

// Match is a storefront search result
type Match struct {
	AppID int
	Name  string
}

func (m Match) Provider() string       { return "steam" }
func (m Match) ID() string             { return strconv.Itoa(m.AppID) }
func (m Match) Title() string          { return m.Name }
func (m Match) StorefrontID() string   { return strconv.Itoa(m.AppID) }
func (m Match) ReleaseDate() time.Time { return time.Time{} }
func (m Match) Confidence() float64    { return 0 }

// Client wraps the Steam storefront API and artwork CDN
type Client struct {
	storeURL    string
	cdnURL      string
	httpClient  *http.Client
	headClient  *http.Client
	searchCache *gocache.Cache
	logger      *logrus.Logger
}

// NewClient creates a new Steam storefront client. Steam needs no
// credentials, so the client is always configured.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		storeURL: storeBaseURL,
		cdnURL:   cdnBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SearchTimeoutSec) * time.Second,
		},
		headClient: &http.Client{
			Timeout: time.Duration(cfg.HeadTimeoutSec) * time.Second,
		},
		searchCache: gocache.New(searchCacheTTL, 10*time.Minute),
		logger:      logger,
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "steam"
}

type storeSearchResponse struct {
	Total int `json:"total"`
	Items []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

// SearchByTitle queries the storefront search endpoint. Results for a query
// are memoized so a re-run in the same process performs no repeat call.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]providers.Match, error) {
	if cached, found := c.searchCache.Get(title); found {
		return cached.([]providers.Match), nil
	}

	params := url.Values{}
	params.Set("term", title)
	params.Set("cc", "us")
	params.Set("l", "en")
	searchURL := c.storeURL + "/api/storesearch/?" + params.Encode()

	c.logger.WithField("title", title).Debug("Performing Steam store search")

	var response storeSearchResponse
	if err := c.getJSON(ctx, searchURL, &response); err != nil {
		return nil, fmt.Errorf("steam search failed: %w", err)
	}

	matches := make([]providers.Match, 0, len(response.Items))
	for _, item := range response.Items {
		matches = append(matches, Match{AppID: item.ID, Name: item.Name})
	}

	c.searchCache.Set(title, matches, gocache.DefaultExpiration)

	c.logger.WithFields(logrus.Fields{
		"title": title,
		"count": len(matches),
	}).Debug("Steam store search completed")

	return matches, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, fullURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "gamarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("steam API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

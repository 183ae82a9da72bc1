package sgdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"gamarr/internal/config"
	"gamarr/internal/providers"
)

const baseURL = "https://www.steamgriddb.com/api/v2"

// Match is a catalog search result
type Match struct {
	GameID      int
	Name        string
	ReleaseUnix int64
}

func (m Match) Provider() string     { return "sgdb" }
func (m Match) ID() string           { return strconv.Itoa(m.GameID) }
func (m Match) Title() string        { return m.Name }
func (m Match) StorefrontID() string { return "" }
func (m Match) ReleaseDate() time.Time {
	if m.ReleaseUnix == 0 {
		return time.Time{}
	}
	return time.Unix(m.ReleaseUnix, 0)
}
func (m Match) Confidence() float64 { return 0 }

// Client wraps the SteamGridDB JSON API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new SteamGridDB client. Returns
// providers.ErrUnconfigured when no API key is set; the caller skips the
// provider for the batch.
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.SGDBApiKey == "" {
		return nil, providers.ErrUnconfigured
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.SGDBApiKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SearchTimeoutSec) * time.Second,
		},
		logger: logger,
	}, nil
}

// Name returns the provider name
func (c *Client) Name() string {
	return "sgdb"
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		ReleaseDate int64  `json:"release_date"`
	} `json:"data"`
}

// SearchByTitle queries the autocomplete search endpoint
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]providers.Match, error) {
	searchURL := fmt.Sprintf("%s/search/autocomplete/%s", c.baseURL, url.PathEscape(title))

	var response searchResponse
	if err := c.getJSON(ctx, searchURL, &response); err != nil {
		return nil, fmt.Errorf("sgdb search failed: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("sgdb search unsuccessful for %q", title)
	}

	matches := make([]providers.Match, 0, len(response.Data))
	for _, item := range response.Data {
		matches = append(matches, Match{
			GameID:      item.ID,
			Name:        item.Name,
			ReleaseUnix: item.ReleaseDate,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"title": title,
		"count": len(matches),
	}).Debug("SteamGridDB search completed")

	return matches, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "gamarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sgdb API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

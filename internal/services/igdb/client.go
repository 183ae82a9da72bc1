package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gamarr/internal/config"
	"gamarr/internal/models"
	"gamarr/internal/providers"
)

const apiBaseURL = "https://api.igdb.com/v4"

// Match is an aggregator search result
type Match struct {
	GameID       int
	Name         string
	FirstRelease int64
	TotalRating  float64
}

func (m Match) Provider() string     { return "igdb" }
func (m Match) ID() string           { return strconv.Itoa(m.GameID) }
func (m Match) Title() string        { return m.Name }
func (m Match) StorefrontID() string { return "" }
func (m Match) ReleaseDate() time.Time {
	if m.FirstRelease == 0 {
		return time.Time{}
	}
	return time.Unix(m.FirstRelease, 0)
}
func (m Match) Confidence() float64 { return m.TotalRating / 100 }

// Client wraps the IGDB v4 API with Twitch client-credentials auth
type Client struct {
	apiURL       string
	tokenURL     string
	clientID     string
	clientSecret string
	tokenFile    string
	httpClient   *http.Client
	logger       *logrus.Logger
}

// NewClient creates a new IGDB client. Returns providers.ErrUnconfigured
// when the Twitch credentials are missing.
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.IGDBClientID == "" || cfg.IGDBClientSecret == "" {
		return nil, providers.ErrUnconfigured
	}

	return &Client{
		apiURL:       apiBaseURL,
		tokenURL:     twitchTokenURL,
		clientID:     cfg.IGDBClientID,
		clientSecret: cfg.IGDBClientSecret,
		tokenFile:    cfg.TokenFile,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SearchTimeoutSec) * time.Second,
		},
		logger: logger,
	}, nil
}

// Name returns the provider name
func (c *Client) Name() string {
	return "igdb"
}

type gameRecord struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Summary          string  `json:"summary"`
	FirstReleaseDate int64   `json:"first_release_date"`
	TotalRating      float64 `json:"total_rating"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	InvolvedCompanies []struct {
		Developer bool `json:"developer"`
		Publisher bool `json:"publisher"`
		Company   struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"involved_companies"`
	Cover struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
}

const gameFields = "fields name,summary,first_release_date,total_rating," +
	"genres.name,involved_companies.developer,involved_companies.publisher," +
	"involved_companies.company.name,cover.image_id;"

// SearchByTitle queries the games endpoint by title
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]providers.Match, error) {
	query := fmt.Sprintf("search %q; %s limit 10;", title, gameFields)

	games, err := c.queryGames(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("igdb search failed: %w", err)
	}

	matches := make([]providers.Match, 0, len(games))
	for _, g := range games {
		matches = append(matches, Match{
			GameID:       g.ID,
			Name:         g.Name,
			FirstRelease: g.FirstReleaseDate,
			TotalRating:  g.TotalRating,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"title": title,
		"count": len(matches),
	}).Debug("IGDB search completed")

	return matches, nil
}

// FetchByTitle is the aggregator fallback: metadata keyed purely by title.
// The best (first) search hit supplies description, companies and cover.
func (c *Client) FetchByTitle(ctx context.Context, title string) (models.PartialMetadata, error) {
	var meta models.PartialMetadata

	query := fmt.Sprintf("search %q; %s limit 1;", title, gameFields)
	games, err := c.queryGames(ctx, query)
	if err != nil {
		return meta, fmt.Errorf("igdb fallback failed: %w", err)
	}
	if len(games) == 0 {
		return meta, fmt.Errorf("igdb has no entry for %q", title)
	}

	return convertGame(games[0]), nil
}

// FetchByID fetches metadata for a known IGDB game id
func (c *Client) FetchByID(ctx context.Context, id string) (models.PartialMetadata, error) {
	var meta models.PartialMetadata

	query := fmt.Sprintf("where id = %s; %s limit 1;", id, gameFields)
	games, err := c.queryGames(ctx, query)
	if err != nil {
		return meta, fmt.Errorf("igdb lookup failed: %w", err)
	}
	if len(games) == 0 {
		return meta, fmt.Errorf("igdb has no game with id %s", id)
	}

	return convertGame(games[0]), nil
}

func convertGame(g gameRecord) models.PartialMetadata {
	meta := models.PartialMetadata{
		Description: g.Summary,
		Rating:      g.TotalRating,
	}
	if g.FirstReleaseDate != 0 {
		meta.ReleaseDate = time.Unix(g.FirstReleaseDate, 0)
	}
	for _, genre := range g.Genres {
		meta.Genres = append(meta.Genres, genre.Name)
	}
	for _, company := range g.InvolvedCompanies {
		if company.Developer {
			meta.Developers = append(meta.Developers, company.Company.Name)
		}
		if company.Publisher {
			meta.Publishers = append(meta.Publishers, company.Company.Name)
		}
	}
	if g.Cover.ImageID != "" {
		meta.BoxArtURL = fmt.Sprintf("https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg", g.Cover.ImageID)
	}
	return meta
}

// queryGames posts an APIcalypse query to the games endpoint
func (c *Client) queryGames(ctx context.Context, query string) ([]gameRecord, error) {
	accessToken, err := c.ensureToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure valid token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/games", strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("igdb API returned status %d: %s", resp.StatusCode, string(body))
	}

	var games []gameRecord
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return games, nil
}

package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const twitchTokenURL = "https://id.twitch.tv/oauth2/token"

// token is a Twitch app access token persisted between runs
type token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ensureToken returns a valid access token, refreshing and persisting a new
// one when the cached token is missing or expires within the hour
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	if tok, err := c.loadToken(); err == nil && time.Until(tok.ExpiresAt) > time.Hour {
		return tok.AccessToken, nil
	}

	c.logger.Debug("Requesting new Twitch access token")

	vals := url.Values{}
	vals.Set("client_id", c.clientID)
	vals.Set("client_secret", c.clientSecret)
	vals.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.URL.RawQuery = vals.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	tok := token{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}
	if err := c.saveToken(tok); err != nil {
		// A token that cannot be persisted still works for this run
		c.logger.WithError(err).Warn("Failed to persist IGDB token")
	}

	return tok.AccessToken, nil
}

func (c *Client) loadToken() (*token, error) {
	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return nil, err
	}
	var tok token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Client) saveToken(tok token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(c.tokenFile, data, 0600)
}

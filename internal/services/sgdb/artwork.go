package sgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
	"gamarr/internal/providers"
)

type imageResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL    string  `json:"url"`
		Score  float64 `json:"score"`
		Width  int     `json:"width"`
		Height int     `json:"height"`
	} `json:"data"`
}

// FetchArtwork collects grids, heroes, logos and icons for an identity.
// Grids are fetched with both box and banner dimensions in a single call and
// split by aspect afterwards, which keeps the round trips at one per asset
// family. The highest-scored image wins each slot.
func (c *Client) FetchArtwork(ctx context.Context, identity providers.Identity) (models.PartialMetadata, error) {
	var meta models.PartialMetadata

	addr, err := c.gameAddress(ctx, identity)
	if err != nil {
		return meta, err
	}

	// Grids: 600x900 serves box art, 920x430 serves the banner
	var grids imageResponse
	gridsURL := fmt.Sprintf("%s/grids/%s?dimensions=600x900,920x430", c.baseURL, addr)
	if err := c.getJSON(ctx, gridsURL, &grids); err != nil {
		c.logger.WithError(err).WithField("game", identity.Title).Warn("SteamGridDB grids lookup failed")
	} else {
		var bestBox, bestBanner float64 = -1, -1
		for _, img := range grids.Data {
			if img.Height > img.Width && img.Score > bestBox {
				bestBox = img.Score
				meta.BoxArtURL = img.URL
			}
			if img.Width > img.Height && img.Score > bestBanner {
				bestBanner = img.Score
				meta.BannerURL = img.URL
			}
		}
	}

	for endpoint, kind := range map[string]models.ImageKind{
		"heroes": models.ImageHero,
		"logos":  models.ImageLogo,
		"icons":  models.ImageIcon,
	} {
		var response imageResponse
		imageURL := fmt.Sprintf("%s/%s/%s", c.baseURL, endpoint, addr)
		if err := c.getJSON(ctx, imageURL, &response); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"game":     identity.Title,
				"endpoint": endpoint,
			}).Warn("SteamGridDB image lookup failed")
			continue
		}
		best := -1.0
		for _, img := range response.Data {
			if img.Score > best {
				best = img.Score
				meta.SetURL(kind, img.URL)
			}
		}
	}

	return meta, nil
}

// gameAddress resolves the API path segment addressing the game: by steam
// app id when one is known, by catalog id when the identity is ours, else by
// a title search.
func (c *Client) gameAddress(ctx context.Context, identity providers.Identity) (string, error) {
	if identity.StorefrontID != "" {
		return "steam/" + identity.StorefrontID, nil
	}
	if identity.Provider == "sgdb" && identity.ID != "" {
		return "game/" + identity.ID, nil
	}

	matches, err := c.SearchByTitle(ctx, identity.Title)
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.EqualFold(m.Title(), identity.Title) {
			return "game/" + m.ID(), nil
		}
	}
	if len(matches) > 0 {
		return "game/" + matches[0].ID(), nil
	}
	return "", fmt.Errorf("no sgdb entry found for %q", identity.Title)
}

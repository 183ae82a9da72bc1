package steam

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
)

// cdnImageNames maps each artwork slot to its conventional CDN filename.
// Steam publishes these by app id without any API call.
var cdnImageNames = map[models.ImageKind]string{
	models.ImageBoxArt: "library_600x900_2x.jpg",
	models.ImageBanner: "header.jpg",
	models.ImageHero:   "library_hero.jpg",
	models.ImageLogo:   "logo.png",
}

// ArtworkByAppID builds the deterministic CDN URLs for an app id and keeps
// only those that answer an existence check. This path never returns text
// metadata.
func (c *Client) ArtworkByAppID(ctx context.Context, appID string) (models.PartialMetadata, error) {
	var meta models.PartialMetadata

	for kind, name := range cdnImageNames {
		imageURL := fmt.Sprintf("%s/%s/%s", c.cdnURL, appID, name)
		if c.urlExists(ctx, imageURL) {
			meta.SetURL(kind, imageURL)
		} else {
			c.logger.WithFields(logrus.Fields{
				"app_id": appID,
				"kind":   kind,
			}).Debug("CDN artwork missing")
		}
	}

	return meta, nil
}

// urlExists issues a lightweight HEAD request with a bounded timeout.
// Any failure counts as "does not exist".
func (c *Client) urlExists(ctx context.Context, imageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "gamarr/1.0")

	resp, err := c.headClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type appDetailsResponse map[string]struct {
	Success bool `json:"success"`
	Data    struct {
		ShortDescription string   `json:"short_description"`
		Developers       []string `json:"developers"`
		Publishers       []string `json:"publishers"`
		RequiredAge      any      `json:"required_age"` // Steam returns both string and number here
		ReleaseDate      struct {
			Date string `json:"date"`
		} `json:"release_date"`
		Genres []struct {
			Description string `json:"description"`
		} `json:"genres"`
		Categories []struct {
			Description string `json:"description"`
		} `json:"categories"`
		Metacritic struct {
			Score float64 `json:"score"`
		} `json:"metacritic"`
	} `json:"data"`
}

// Details fetches text metadata for an app id from the storefront appdetails
// endpoint
func (c *Client) Details(ctx context.Context, appID string) (models.PartialMetadata, error) {
	var meta models.PartialMetadata

	detailsURL := fmt.Sprintf("%s/api/appdetails?appids=%s", c.storeURL, appID)

	var response appDetailsResponse
	if err := c.getJSON(ctx, detailsURL, &response); err != nil {
		return meta, fmt.Errorf("appdetails failed: %w", err)
	}

	entry, ok := response[appID]
	if !ok || !entry.Success {
		return meta, fmt.Errorf("appdetails returned no data for app %s", appID)
	}

	meta.Description = entry.Data.ShortDescription
	meta.Developers = entry.Data.Developers
	meta.Publishers = entry.Data.Publishers
	meta.Rating = entry.Data.Metacritic.Score
	meta.AgeRating = fmt.Sprintf("%v", entry.Data.RequiredAge)
	if meta.AgeRating == "0" || meta.AgeRating == "<nil>" {
		meta.AgeRating = ""
	}

	for _, g := range entry.Data.Genres {
		meta.Genres = append(meta.Genres, g.Description)
	}
	for _, cat := range entry.Data.Categories {
		meta.Categories = append(meta.Categories, cat.Description)
	}

	if entry.Data.ReleaseDate.Date != "" {
		// Steam formats dates like "16 Nov, 2004"
		if t, err := time.Parse("2 Jan, 2006", entry.Data.ReleaseDate.Date); err == nil {
			meta.ReleaseDate = t
		}
	}

	return meta, nil
}

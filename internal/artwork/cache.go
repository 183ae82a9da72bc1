package artwork

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"gamarr/internal/metrics"
	"gamarr/internal/models"
)

const (
	cacheLockStripes = 64
	maxImageSize     = 32 * 1024 * 1024 // 32MB
	maxDownloadTries = 3
)

// Cache persists acquired images to local storage keyed by game id and image
// kind. The on-disk index survives restarts; a missing entry means "not
// cached" and triggers re-acquisition.
type Cache struct {
	db         *models.Database
	dir        string
	httpClient *http.Client
	logger     *logrus.Logger

	// Striped per-key serialization: concurrent caching of different
	// games/kinds stays independent, same key is serialized.
	locks [cacheLockStripes]sync.Mutex
}

// NewCache creates a new local artwork cache rooted at dir
func NewCache(db *models.Database, dir string, fetchTimeout time.Duration, logger *logrus.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artwork directory: %w", err)
	}

	return &Cache{
		db:         db,
		dir:        dir,
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger,
	}, nil
}

// CacheArtwork downloads every remote artwork URL in meta and rewrites it to
// a durable local path. A failed download or store keeps the remote URL as a
// fallback rather than emptying the field. Without forceRefresh, a present
// local copy is never re-fetched.
func (c *Cache) CacheArtwork(ctx context.Context, gameID string, meta models.PartialMetadata, forceRefresh bool) models.PartialMetadata {
	for _, kind := range models.AllImageKinds {
		remoteURL := meta.URLFor(kind)
		if remoteURL == "" || !strings.HasPrefix(remoteURL, "http") {
			continue
		}

		localPath, err := c.cacheOne(ctx, gameID, kind, remoteURL, forceRefresh)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"game_id": gameID,
				"kind":    kind,
			}).Warn("Failed to cache artwork, keeping remote URL")
			continue
		}
		meta.SetURL(kind, localPath)
	}

	return meta
}

// cacheOne fetches a single image under the per-key lock
func (c *Cache) cacheOne(ctx context.Context, gameID string, kind models.ImageKind, remoteURL string, forceRefresh bool) (string, error) {
	key := models.ArtworkKey(gameID, kind)
	lock := &c.locks[stripeFor(key)]
	lock.Lock()
	defer lock.Unlock()

	if !forceRefresh {
		if cached, err := c.db.GetCachedArtwork(gameID, kind); err == nil {
			if _, statErr := os.Stat(cached.LocalPath); statErr == nil {
				metrics.ArtworkCacheHits.Inc()
				return cached.LocalPath, nil
			}
			// Index entry without a file: treat as not cached
		}
	}

	metrics.ArtworkCacheMisses.Inc()
	localPath := filepath.Join(c.dir, gameID, string(kind)+imageExtension(remoteURL))
	if err := c.download(ctx, remoteURL, localPath); err != nil {
		return "", err
	}

	record := &models.CachedArtwork{
		GameID:    gameID,
		Kind:      kind,
		SourceURL: remoteURL,
		LocalPath: localPath,
	}
	if err := c.db.PutCachedArtwork(record); err != nil {
		return "", fmt.Errorf("failed to index cached artwork: %w", err)
	}

	return localPath, nil
}

// download fetches an image with bounded retries into localPath
func (c *Cache) download(ctx context.Context, remoteURL, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxDownloadTries-1),
		ctx,
	)

	return backoff.Retry(func() error {
		return c.fetchTo(ctx, remoteURL, localPath)
	}, policy)
}

func (c *Cache) fetchTo(ctx context.Context, remoteURL, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create download request: %w", err))
	}
	req.Header.Set("User-Agent", "gamarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("image download returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	tmpPath := localPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create image file: %w", err))
	}

	_, err = io.Copy(file, io.LimitReader(resp.Body, maxImageSize))
	closeErr := file.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write image: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close image file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return backoff.Permanent(fmt.Errorf("failed to move image into place: %w", err))
	}

	return nil
}

// Clear removes every cached image and index record for a game. This is the
// only sanctioned deletion path.
func (c *Cache) Clear(gameID string) error {
	for _, kind := range models.AllImageKinds {
		cached, err := c.db.GetCachedArtwork(gameID, kind)
		if err != nil {
			continue
		}
		if err := os.Remove(cached.LocalPath); err != nil && !os.IsNotExist(err) {
			c.logger.WithError(err).WithField("path", cached.LocalPath).Warn("Failed to remove cached image")
		}
	}

	if err := c.db.ClearCachedArtwork(gameID); err != nil {
		return fmt.Errorf("failed to clear artwork index: %w", err)
	}
	return os.RemoveAll(filepath.Join(c.dir, gameID))
}

// Verify reconciles the index with the filesystem at startup: records whose
// file vanished are dropped so the next acquisition re-fetches them
func (c *Cache) Verify() error {
	records, err := c.db.ListCachedArtwork()
	if err != nil {
		return fmt.Errorf("failed to list artwork index: %w", err)
	}

	dropped := 0
	for _, record := range records {
		if _, err := os.Stat(record.LocalPath); os.IsNotExist(err) {
			if err := c.db.DeleteCachedArtwork(record.GameID, record.Kind); err != nil {
				c.logger.WithError(err).WithField("key", record.Key).Warn("Failed to drop stale index entry")
				continue
			}
			dropped++
		}
	}

	if dropped > 0 {
		c.logger.WithField("count", dropped).Info("Dropped stale artwork index entries")
	}
	return nil
}

// imageExtension derives a file extension from an image URL, defaulting to
// .jpg
func imageExtension(remoteURL string) string {
	parsed, err := url.Parse(remoteURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(filepath.Ext(parsed.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".ico", ".gif":
		return ext
	}
	return ".jpg"
}

func stripeFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % cacheLockStripes)
}

package artwork

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gamarr/internal/models"
)

func testCache(t *testing.T) (*Cache, *models.Database) {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := NewCache(db, t.TempDir(), 5*time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return cache, db
}

func imageServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCacheArtworkRewritesToLocalPaths(t *testing.T) {
	var hits atomic.Int64
	server := imageServer(t, &hits)
	cache, _ := testCache(t)

	meta := models.PartialMetadata{
		BoxArtURL: server.URL + "/box.jpg",
		LogoURL:   server.URL + "/logo.png",
	}

	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)

	if cached.BoxArtURL == meta.BoxArtURL {
		t.Error("box art URL was not rewritten to a local path")
	}
	if _, err := os.Stat(cached.BoxArtURL); err != nil {
		t.Errorf("cached box art file missing: %v", err)
	}
	if filepath.Ext(cached.LogoURL) != ".png" {
		t.Errorf("logo extension not preserved: %q", cached.LogoURL)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 downloads, got %d", hits.Load())
	}
}

func TestCacheArtworkSlowServerDegradesToRemoteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(30 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := NewCache(db, t.TempDir(), 100*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	meta := models.PartialMetadata{BoxArtURL: server.URL + "/box.jpg"}

	start := time.Now()
	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)
	elapsed := time.Since(start)

	// Three bounded attempts plus backoff pauses, never the server's pace
	if elapsed > 5*time.Second {
		t.Errorf("caching against a stalled server took %v, fetch timeout not enforced", elapsed)
	}
	if cached.BoxArtURL != meta.BoxArtURL {
		t.Errorf("failed download should keep the remote URL, got %q", cached.BoxArtURL)
	}
}

func TestCacheArtworkSecondCallHitsNoNetwork(t *testing.T) {
	var hits atomic.Int64
	server := imageServer(t, &hits)
	cache, _ := testCache(t)

	meta := models.PartialMetadata{BoxArtURL: server.URL + "/box.jpg"}

	first := cache.CacheArtwork(context.Background(), "game-1", meta, false)
	second := cache.CacheArtwork(context.Background(), "game-1", meta, false)

	if hits.Load() != 1 {
		t.Errorf("expected 1 download across both calls, got %d", hits.Load())
	}
	if first.BoxArtURL != second.BoxArtURL {
		t.Errorf("cached path changed between calls: %q vs %q", first.BoxArtURL, second.BoxArtURL)
	}
}

func TestCacheArtworkForceRefreshRefetches(t *testing.T) {
	var hits atomic.Int64
	server := imageServer(t, &hits)
	cache, _ := testCache(t)

	meta := models.PartialMetadata{BoxArtURL: server.URL + "/box.jpg"}

	cache.CacheArtwork(context.Background(), "game-1", meta, false)
	cache.CacheArtwork(context.Background(), "game-1", meta, true)

	if hits.Load() != 2 {
		t.Errorf("expected forced refresh to download again, got %d hits", hits.Load())
	}
}

func TestCacheArtworkFailureKeepsRemoteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()
	cache, _ := testCache(t)

	remote := server.URL + "/missing.jpg"
	meta := models.PartialMetadata{BoxArtURL: remote}

	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)
	if cached.BoxArtURL != remote {
		t.Errorf("failed download should keep the remote URL, got %q", cached.BoxArtURL)
	}
}

func TestCacheArtworkIgnoresLocalAndEmptyURLs(t *testing.T) {
	cache, _ := testCache(t)

	meta := models.PartialMetadata{
		BoxArtURL: "/already/local/box.jpg",
	}
	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)

	if cached.BoxArtURL != "/already/local/box.jpg" {
		t.Errorf("local path should pass through untouched, got %q", cached.BoxArtURL)
	}
}

func TestCacheMissingFileTriggersRefetch(t *testing.T) {
	var hits atomic.Int64
	server := imageServer(t, &hits)
	cache, _ := testCache(t)

	meta := models.PartialMetadata{BoxArtURL: server.URL + "/box.jpg"}
	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)

	// Simulate external deletion: index entry remains, file gone
	if err := os.Remove(cached.BoxArtURL); err != nil {
		t.Fatal(err)
	}

	cache.CacheArtwork(context.Background(), "game-1", meta, false)
	if hits.Load() != 2 {
		t.Errorf("expected refetch after file deletion, got %d hits", hits.Load())
	}
}

func TestClearRemovesImagesAndIndex(t *testing.T) {
	var hits atomic.Int64
	server := imageServer(t, &hits)
	cache, db := testCache(t)

	meta := models.PartialMetadata{BoxArtURL: server.URL + "/box.jpg"}
	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)

	if err := cache.Clear("game-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, err := os.Stat(cached.BoxArtURL); !os.IsNotExist(err) {
		t.Error("cached file should be gone after Clear")
	}
	if _, err := db.GetCachedArtwork("game-1", models.ImageBoxArt); !models.IsNotFound(err) {
		t.Errorf("index record should be gone after Clear, got %v", err)
	}
}

func TestVerifyDropsStaleIndexEntries(t *testing.T) {
	var hits atomic.Int64
	server := imageServer(t, &hits)
	cache, db := testCache(t)

	meta := models.PartialMetadata{BoxArtURL: server.URL + "/box.jpg"}
	cached := cache.CacheArtwork(context.Background(), "game-1", meta, false)

	if err := os.Remove(cached.BoxArtURL); err != nil {
		t.Fatal(err)
	}

	if err := cache.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, err := db.GetCachedArtwork("game-1", models.ImageBoxArt); !models.IsNotFound(err) {
		t.Errorf("stale index entry should be dropped, got %v", err)
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn/box.jpg", ".jpg"},
		{"https://cdn/logo.PNG", ".png"},
		{"https://cdn/hero.webp?size=large", ".webp"},
		{"https://cdn/no-extension", ".jpg"},
		{"https://cdn/archive.tar.gz", ".jpg"},
	}

	for _, tt := range tests {
		if got := imageExtension(tt.url); got != tt.want {
			t.Errorf("imageExtension(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

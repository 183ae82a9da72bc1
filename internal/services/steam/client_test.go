package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testClient(storeURL, cdnURL string) *Client {
	return &Client{
		storeURL:    storeURL,
		cdnURL:      cdnURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		headClient:  &http.Client{Timeout: 5 * time.Second},
		searchCache: gocache.New(time.Minute, time.Minute),
		logger:      testLogger(),
	}
}

func TestSearchByTitle(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if !strings.HasPrefix(r.URL.Path, "/api/storesearch/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("term"); got != "Hades" {
			t.Errorf("term = %q", got)
		}
		fmt.Fprint(w, `{"total":2,"items":[{"id":1145360,"name":"Hades"},{"id":1145350,"name":"Hades II"}]}`)
	}))
	defer server.Close()

	c := testClient(server.URL, "")

	matches, err := c.SearchByTitle(context.Background(), "Hades")
	if err != nil {
		t.Fatalf("SearchByTitle: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID() != "1145360" || matches[0].Title() != "Hades" {
		t.Errorf("unexpected first match: %s %s", matches[0].ID(), matches[0].Title())
	}
	if matches[0].StorefrontID() != "1145360" {
		t.Errorf("steam matches must expose their app id as storefront id")
	}

	// Memoized: repeat query performs no second request
	if _, err := c.SearchByTitle(context.Background(), "Hades"); err != nil {
		t.Fatal(err)
	}
	if requests != 1 {
		t.Errorf("expected 1 upstream request, got %d", requests)
	}
}

func TestSearchByTitleUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(server.URL, "")
	if _, err := c.SearchByTitle(context.Background(), "Hades"); err == nil {
		t.Error("expected error on upstream failure")
	}
}

func TestSearchByTitleSlowUpstreamTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(10 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	c := testClient(server.URL, "")
	c.httpClient.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := c.SearchByTitle(context.Background(), "Hades")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error from slow upstream")
	}
	if elapsed > 2*time.Second {
		t.Errorf("search against stalled upstream took %v, timeout not enforced", elapsed)
	}
}

func TestArtworkByAppIDKeepsOnlyExistingImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only box art and header exist for this app
		switch r.URL.Path {
		case "/440/library_600x900_2x.jpg", "/440/header.jpg":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := testClient("", server.URL)

	meta, err := c.ArtworkByAppID(context.Background(), "440")
	if err != nil {
		t.Fatalf("ArtworkByAppID: %v", err)
	}

	if meta.BoxArtURL == "" || meta.BannerURL == "" {
		t.Errorf("existing images missing from metadata: %+v", meta)
	}
	if meta.HeroURL != "" || meta.LogoURL != "" {
		t.Errorf("missing images should stay empty: hero=%q logo=%q", meta.HeroURL, meta.LogoURL)
	}
}

func TestDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appids") != "440" {
			t.Errorf("appids = %q", r.URL.Query().Get("appids"))
		}
		fmt.Fprint(w, `{"440":{"success":true,"data":{
			"short_description":"Nine distinct classes.",
			"developers":["Valve"],
			"publishers":["Valve"],
			"required_age":0,
			"release_date":{"date":"10 Oct, 2007"},
			"genres":[{"description":"Action"},{"description":"Free To Play"}],
			"categories":[{"description":"Multi-player"}],
			"metacritic":{"score":92}
		}}}`)
	}))
	defer server.Close()

	c := testClient(server.URL, "")

	meta, err := c.Details(context.Background(), "440")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}

	if meta.Description != "Nine distinct classes." {
		t.Errorf("description = %q", meta.Description)
	}
	if len(meta.Developers) != 1 || meta.Developers[0] != "Valve" {
		t.Errorf("developers = %v", meta.Developers)
	}
	if meta.Rating != 92 {
		t.Errorf("rating = %v", meta.Rating)
	}
	if meta.AgeRating != "" {
		t.Errorf("required_age 0 should map to empty age rating, got %q", meta.AgeRating)
	}
	if len(meta.Genres) != 2 {
		t.Errorf("genres = %v", meta.Genres)
	}
	if meta.ReleaseDate.Year() != 2007 || meta.ReleaseDate.Month() != time.October {
		t.Errorf("release date = %v", meta.ReleaseDate)
	}
}

func TestDetailsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"999999":{"success":false}}`)
	}))
	defer server.Close()

	c := testClient(server.URL, "")
	if _, err := c.Details(context.Background(), "999999"); err == nil {
		t.Error("expected error when appdetails reports no data")
	}
}

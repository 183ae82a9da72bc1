// Package artwork fetches and locally caches images and text metadata for
// resolved identities.
package artwork

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gamarr/internal/metrics"
	"gamarr/internal/models"
	"gamarr/internal/providers"
)

// recordRequest counts one outbound provider call for the metrics endpoint
func recordRequest(provider string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ProviderRequests.WithLabelValues(provider, result).Inc()
}

// StorefrontClient is the storefront-CDN strategy: deterministic artwork
// URLs by app id plus a separate text-details lookup
type StorefrontClient interface {
	ArtworkByAppID(ctx context.Context, appID string) (models.PartialMetadata, error)
	Details(ctx context.Context, appID string) (models.PartialMetadata, error)
}

// CatalogClient is the catalog-API strategy for curated artwork
type CatalogClient interface {
	FetchArtwork(ctx context.Context, identity providers.Identity) (models.PartialMetadata, error)
}

// AggregatorClient is the fallback strategy keyed purely by title
type AggregatorClient interface {
	FetchByTitle(ctx context.Context, title string) (models.PartialMetadata, error)
}

// Acquirer runs the provider-specific fetch strategies for an identity and
// merges their partial results. Any strategy may be absent (nil) when its
// provider is unconfigured.
type Acquirer struct {
	storefront StorefrontClient
	catalog    CatalogClient
	aggregator AggregatorClient
	throttle   *providerThrottle
	logger     *logrus.Logger
}

// NewAcquirer creates a new acquirer. delay is the politeness gap enforced
// between successive calls to the same provider.
func NewAcquirer(storefront StorefrontClient, catalog CatalogClient, aggregator AggregatorClient, delay time.Duration, logger *logrus.Logger) *Acquirer {
	return &Acquirer{
		storefront: storefront,
		catalog:    catalog,
		aggregator: aggregator,
		throttle:   newProviderThrottle(delay),
		logger:     logger,
	}
}

// Acquire fetches artwork and text for a resolved identity. It never fails:
// every strategy error degrades its fields to missing, and the caller decides
// what an empty result means.
func (a *Acquirer) Acquire(ctx context.Context, identity providers.Identity) models.PartialMetadata {
	var meta models.PartialMetadata

	if a.storefront != nil && identity.StorefrontID != "" {
		a.throttle.wait(ctx, "steam")
		art, err := a.storefront.ArtworkByAppID(ctx, identity.StorefrontID)
		recordRequest("steam-cdn", err)
		if err != nil {
			a.logger.WithError(err).WithField("app_id", identity.StorefrontID).Warn("Storefront artwork lookup failed")
		} else {
			meta.Merge(art)
		}
	}

	if a.catalog != nil {
		a.throttle.wait(ctx, "catalog")
		art, err := a.catalog.FetchArtwork(ctx, identity)
		recordRequest("catalog", err)
		if err != nil {
			a.logger.WithError(err).WithField("title", identity.Title).Warn("Catalog artwork lookup failed")
		} else {
			meta.Merge(art)
		}
	}

	if a.storefront != nil && identity.StorefrontID != "" {
		a.throttle.wait(ctx, "steam")
		details, err := a.storefront.Details(ctx, identity.StorefrontID)
		recordRequest("steam-store", err)
		if err != nil {
			a.logger.WithError(err).WithField("app_id", identity.StorefrontID).Warn("Storefront details lookup failed")
		} else {
			meta.Merge(details)
		}
	}

	// Aggregator fallback when the richer strategies left gaps
	if a.aggregator != nil && (meta.Description == "" || meta.BoxArtURL == "") {
		a.throttle.wait(ctx, "aggregator")
		fallback, err := a.aggregator.FetchByTitle(ctx, identity.Title)
		recordRequest("aggregator", err)
		if err != nil {
			a.logger.WithError(err).WithField("title", identity.Title).Warn("Aggregator fallback failed")
		} else {
			meta.Merge(fallback)
		}
	}

	return meta
}

// providerThrottle spaces out successive calls to the same provider to avoid
// rate limiting
type providerThrottle struct {
	mu       sync.Mutex
	delay    time.Duration
	lastCall map[string]time.Time
}

func newProviderThrottle(delay time.Duration) *providerThrottle {
	return &providerThrottle{
		delay:    delay,
		lastCall: make(map[string]time.Time),
	}
}

// wait blocks until the provider's politeness gap has elapsed or ctx is
// cancelled, whichever comes first
func (t *providerThrottle) wait(ctx context.Context, provider string) {
	if t.delay <= 0 {
		return
	}

	t.mu.Lock()
	now := time.Now()
	wait := t.delay - now.Sub(t.lastCall[provider])
	if wait < 0 {
		wait = 0
	}
	t.lastCall[provider] = now.Add(wait)
	t.mu.Unlock()

	if wait == 0 {
		return
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Package providers defines the minimal contract shared by all external
// metadata catalogs. Each catalog keeps its own concrete match type so
// provider-specific fields never leak into the resolver's decision logic.
package providers

import (
	"context"
	"errors"
	"time"
)

// ErrUnconfigured is returned by provider constructors when required
// credentials are missing. The pipeline skips such providers for the whole
// batch instead of failing it.
var ErrUnconfigured = errors.New("provider not configured")

// Identity is a resolved reference into an external catalog
type Identity struct {
	Provider     string
	ID           string
	Title        string
	StorefrontID string // numeric storefront app id when known, "" otherwise
}

// Match is one candidate identity returned by a title search. Implementations
// are provider-specific tagged variants; only this surface is visible to the
// resolver.
type Match interface {
	Provider() string
	ID() string
	Title() string
	StorefrontID() string
	ReleaseDate() time.Time // zero when the provider does not expose one
	Confidence() float64    // provider relevance signal in [0,1], 0 when absent
}

// Searcher is a provider capable of answering title queries
type Searcher interface {
	Name() string
	SearchByTitle(ctx context.Context, title string) ([]Match, error)
}

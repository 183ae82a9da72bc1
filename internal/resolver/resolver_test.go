package resolver

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"gamarr/internal/models"
	"gamarr/internal/providers"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeMatch is a provider-agnostic match for ranking tests
type fakeMatch struct {
	provider   string
	id         string
	title      string
	storefront string
	released   time.Time
	confidence float64
}

func (m fakeMatch) Provider() string       { return m.provider }
func (m fakeMatch) ID() string             { return m.id }
func (m fakeMatch) Title() string          { return m.title }
func (m fakeMatch) StorefrontID() string   { return m.storefront }
func (m fakeMatch) ReleaseDate() time.Time { return m.released }
func (m fakeMatch) Confidence() float64    { return m.confidence }

// stubSearcher returns canned results and records whether it was queried
type stubSearcher struct {
	name    string
	matches []providers.Match
	err     error
	queries []string
}

func (s *stubSearcher) Name() string { return s.name }

func (s *stubSearcher) SearchByTitle(ctx context.Context, title string) ([]providers.Match, error) {
	s.queries = append(s.queries, title)
	return s.matches, s.err
}

func TestResolveStorefrontIDSkipsSearch(t *testing.T) {
	searcher := &stubSearcher{name: "steam"}
	r := NewResolver([]providers.Searcher{searcher}, testLogger())

	outcome := r.Resolve(context.Background(), models.ScanCandidate{
		DisplayNameGuess: "Team Fortress 2",
		PlatformID:       "440",
	})

	assert.True(t, outcome.Confident)
	assert.Equal(t, "steam", outcome.Identity.Provider)
	assert.Equal(t, "440", outcome.Identity.ID)
	assert.Equal(t, "440", outcome.Identity.StorefrontID)
	assert.Empty(t, searcher.queries, "numeric storefront id must not trigger a search")
}

func TestResolveConfidentMatch(t *testing.T) {
	searcher := &stubSearcher{
		name: "steam",
		matches: []providers.Match{
			fakeMatch{provider: "steam", id: "1145360", title: "Hades", storefront: "1145360"},
		},
	}
	r := NewResolver([]providers.Searcher{searcher}, testLogger())

	outcome := r.Resolve(context.Background(), models.ScanCandidate{DisplayNameGuess: "Hades"})

	assert.True(t, outcome.Confident)
	assert.Equal(t, "Hades", outcome.Identity.Title)
	assert.Equal(t, "1145360", outcome.Identity.StorefrontID)
}

func TestResolveDistantTopMatchIsAmbiguous(t *testing.T) {
	searcher := &stubSearcher{
		name: "steam",
		matches: []providers.Match{
			fakeMatch{provider: "steam", id: "1", title: "Completely Different Game", storefront: "1"},
		},
	}
	r := NewResolver([]providers.Searcher{searcher}, testLogger())

	outcome := r.Resolve(context.Background(), models.ScanCandidate{DisplayNameGuess: "My Indie Thing"})

	assert.False(t, outcome.Confident)
	assert.Len(t, outcome.Raw, 1, "raw matches must survive for human disambiguation")
	assert.Equal(t, "Completely Different Game", outcome.Raw[0].Title)
}

func TestResolveNoMatchesAnywhere(t *testing.T) {
	first := &stubSearcher{name: "steam"}
	second := &stubSearcher{name: "sgdb"}
	r := NewResolver([]providers.Searcher{first, second}, testLogger())

	outcome := r.Resolve(context.Background(), models.ScanCandidate{DisplayNameGuess: "Nothing Known"})

	assert.False(t, outcome.Confident)
	assert.Empty(t, outcome.Raw)
	assert.Len(t, first.queries, 1)
	assert.Len(t, second.queries, 1, "empty result falls through to the next provider")
}

func TestResolveFallbackOnProviderError(t *testing.T) {
	failing := &stubSearcher{name: "steam", err: errors.New("network down")}
	working := &stubSearcher{
		name: "sgdb",
		matches: []providers.Match{
			fakeMatch{provider: "sgdb", id: "9", title: "Celeste"},
		},
	}
	r := NewResolver([]providers.Searcher{failing, working}, testLogger())

	outcome := r.Resolve(context.Background(), models.ScanCandidate{DisplayNameGuess: "Celeste"})

	assert.True(t, outcome.Confident)
	assert.Equal(t, "sgdb", outcome.Identity.Provider)
}

func TestResolveStripsNoiseTokens(t *testing.T) {
	searcher := &stubSearcher{
		name: "steam",
		matches: []providers.Match{
			fakeMatch{provider: "steam", id: "320", title: "Half-Life 2: Deathmatch", storefront: "320"},
		},
	}
	r := NewResolver([]providers.Searcher{searcher}, testLogger())

	outcome := r.Resolve(context.Background(), models.ScanCandidate{DisplayNameGuess: "Half-Life 2: Deathmatch Demo"})

	assert.True(t, outcome.Variant)
	assert.Equal(t, []string{"Half-Life 2: Deathmatch"}, searcher.queries)
	assert.True(t, outcome.Confident)
}

func TestRankMatchesStorefrontIDFirst(t *testing.T) {
	matches := []providers.Match{
		fakeMatch{id: "a", title: "Forza Horizon 5", confidence: 0.9},
		fakeMatch{id: "b", title: "Forza Horizon 5", storefront: "1551360"},
	}

	ranked := rankMatches(matches, "Forza Horizon 5")
	assert.Equal(t, "b", ranked[0].ID(), "storefront-backed match must rank first")
}

func TestRankMatchesRecencyBreaksTies(t *testing.T) {
	older := fakeMatch{id: "old", title: "DOOM", storefront: "1", released: time.Date(1993, 12, 10, 0, 0, 0, 0, time.UTC)}
	newer := fakeMatch{id: "new", title: "DOOM", storefront: "2", released: time.Date(2016, 5, 13, 0, 0, 0, 0, time.UTC)}

	ranked := rankMatches([]providers.Match{older, newer}, "DOOM")
	assert.Equal(t, "new", ranked[0].ID())
}

func TestRankMatchesExactTitleBreaksTies(t *testing.T) {
	sequel := fakeMatch{id: "sequel", title: "Hades II", storefront: "1"}
	exact := fakeMatch{id: "exact", title: "hades", storefront: "2"}

	ranked := rankMatches([]providers.Match{sequel, exact}, "Hades")
	assert.Equal(t, "exact", ranked[0].ID())
}

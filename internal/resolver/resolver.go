// Package resolver matches scan candidates against external catalogs.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"

	"gamarr/internal/metrics"
	"gamarr/internal/models"
	"gamarr/internal/providers"
	"gamarr/internal/utils"
)

// distanceThreshold is the maximum normalized edit distance at which the
// top-ranked match is still adopted without human confirmation
const distanceThreshold = 5

// Outcome is the result of resolving one candidate. When Confident is false
// the raw matches are preserved so a human can pick one later.
type Outcome struct {
	Identity  providers.Identity
	Confident bool
	Variant   bool // the search query had noise tokens stripped
	Raw       []models.RawMatch
}

// Resolver finds the best-matching canonical title for a scan candidate by
// querying providers in a fixed fallback order
type Resolver struct {
	searchers []providers.Searcher
	logger    *logrus.Logger
}

// NewResolver creates a new resolver. The searcher order is the fallback
// order: later providers are only queried when earlier ones fail or return
// nothing.
func NewResolver(searchers []providers.Searcher, logger *logrus.Logger) *Resolver {
	return &Resolver{
		searchers: searchers,
		logger:    logger,
	}
}

// Resolve determines the canonical identity for a candidate. A candidate
// carrying a numeric storefront id is adopted directly with no search.
func (r *Resolver) Resolve(ctx context.Context, candidate models.ScanCandidate) Outcome {
	// Strong-id path: a numeric storefront app id needs no fuzzy matching
	if utils.IsNumericID(candidate.PlatformID) {
		r.logger.WithFields(logrus.Fields{
			"title":  candidate.DisplayNameGuess,
			"app_id": candidate.PlatformID,
		}).Debug("Candidate carries storefront id, skipping search")

		return Outcome{
			Identity: providers.Identity{
				Provider:     "steam",
				ID:           candidate.PlatformID,
				Title:        candidate.DisplayNameGuess,
				StorefrontID: candidate.PlatformID,
			},
			Confident: true,
		}
	}

	query, variant := utils.StripNoiseTokens(candidate.DisplayNameGuess)

	matches := r.search(ctx, query)
	if len(matches) == 0 {
		r.logger.WithField("query", query).Debug("No provider returned matches")
		return Outcome{Variant: variant}
	}

	ranked := rankMatches(matches, query)
	top := ranked[0]

	outcome := Outcome{
		Identity: providers.Identity{
			Provider:     top.Provider(),
			ID:           top.ID(),
			Title:        top.Title(),
			StorefrontID: top.StorefrontID(),
		},
		Variant: variant,
		Raw:     rawMatches(ranked),
	}

	// Adopt the top match only when it is close enough to the query;
	// otherwise surface everything for human confirmation.
	distance := levenshtein.ComputeDistance(utils.NormalizeTitle(query), utils.NormalizeTitle(top.Title()))
	outcome.Confident = distance <= distanceThreshold

	r.logger.WithFields(logrus.Fields{
		"query":     query,
		"matched":   top.Title(),
		"provider":  top.Provider(),
		"distance":  distance,
		"confident": outcome.Confident,
	}).Debug("Resolution completed")

	return outcome
}

// search runs the provider fallback chain: the first provider that answers
// with at least one match wins
func (r *Resolver) search(ctx context.Context, query string) []providers.Match {
	for _, searcher := range r.searchers {
		matches, err := searcher.SearchByTitle(ctx, query)
		if err != nil {
			metrics.ProviderRequests.WithLabelValues(searcher.Name(), "error").Inc()
			r.logger.WithError(err).WithFields(logrus.Fields{
				"provider": searcher.Name(),
				"query":    query,
			}).Warn("Provider search failed, trying next")
			continue
		}
		metrics.ProviderRequests.WithLabelValues(searcher.Name(), "ok").Inc()
		if len(matches) > 0 {
			return matches
		}
	}
	return nil
}

// rankMatches orders matches by:
// 1. Matches exposing a storefront id (richer artwork and metadata later)
// 2. More recent release date
// 3. Exact case-insensitive title equality to the query
// Remaining ties resolve by edit distance, then provider confidence.
func rankMatches(matches []providers.Match, query string) []providers.Match {
	ranked := make([]providers.Match, len(matches))
	copy(ranked, matches)

	sort.SliceStable(ranked, func(i, j int) bool {
		hasStoreI := ranked[i].StorefrontID() != ""
		hasStoreJ := ranked[j].StorefrontID() != ""
		if hasStoreI != hasStoreJ {
			return hasStoreI
		}

		dateI, dateJ := ranked[i].ReleaseDate(), ranked[j].ReleaseDate()
		if !dateI.Equal(dateJ) {
			return dateI.After(dateJ)
		}

		exactI := strings.EqualFold(ranked[i].Title(), query)
		exactJ := strings.EqualFold(ranked[j].Title(), query)
		if exactI != exactJ {
			return exactI
		}

		normQuery := utils.NormalizeTitle(query)
		distI := levenshtein.ComputeDistance(normQuery, utils.NormalizeTitle(ranked[i].Title()))
		distJ := levenshtein.ComputeDistance(normQuery, utils.NormalizeTitle(ranked[j].Title()))
		if distI != distJ {
			return distI < distJ
		}

		return ranked[i].Confidence() > ranked[j].Confidence()
	})

	return ranked
}

// rawMatches converts ranked provider matches into the minimal shape stored
// on ambiguous entries
func rawMatches(matches []providers.Match) []models.RawMatch {
	raw := make([]models.RawMatch, 0, len(matches))
	for _, m := range matches {
		raw = append(raw, models.RawMatch{
			Provider:    m.Provider(),
			ID:          m.ID(),
			Title:       m.Title(),
			ReleaseDate: m.ReleaseDate(),
			Confidence:  m.Confidence(),
		})
	}
	return raw
}

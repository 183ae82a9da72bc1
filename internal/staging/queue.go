// Package staging holds candidates between scan and library commit. The
// queue is the single source of truth for per-candidate pipeline state.
package staging

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gamarr/internal/models"
	"gamarr/internal/providers"
)

// allowedTransitions encodes the status machine:
// pending -> scanning -> {matched|ambiguous} -> {ready|error}.
// Transitions are monotonic within one pipeline run.
var allowedTransitions = map[models.Status][]models.Status{
	models.StatusPending:  {models.StatusScanning, models.StatusError},
	models.StatusScanning: {models.StatusMatched, models.StatusAmbiguous, models.StatusError},
	models.StatusMatched:  {models.StatusReady, models.StatusAmbiguous, models.StatusError},
}

// Queue is the in-memory staging area. Entries are appended incrementally as
// soon as they survive dedup, so callers can render partial progress.
type Queue struct {
	mu      sync.RWMutex
	entries []*models.StagedGame
	byID    map[string]*models.StagedGame
}

// NewQueue creates an empty staging queue
func NewQueue() *Queue {
	return &Queue{
		byID: make(map[string]*models.StagedGame),
	}
}

// Append stages a surviving candidate and returns its entry
func (q *Queue) Append(candidate models.ScanCandidate) *models.StagedGame {
	staged := &models.StagedGame{
		ID:         uuid.NewString(),
		SourceKind: candidate.SourceKind,
		Candidate:  candidate,
		Title:      candidate.DisplayNameGuess,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	q.mu.Lock()
	q.entries = append(q.entries, staged)
	q.byID[staged.ID] = staged
	q.mu.Unlock()

	return staged
}

// Get returns the staged game with the given id
func (q *Queue) Get(id string) (*models.StagedGame, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	staged, ok := q.byID[id]
	return staged, ok
}

// Snapshot returns a copy of every entry in append order
func (q *Queue) Snapshot() []models.StagedGame {
	q.mu.RLock()
	defer q.mu.RUnlock()

	snapshot := make([]models.StagedGame, 0, len(q.entries))
	for _, staged := range q.entries {
		snapshot = append(snapshot, *staged)
	}
	return snapshot
}

// Counts returns the number of entries per status
func (q *Queue) Counts() map[models.Status]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, staged := range q.entries {
		counts[staged.Status]++
	}
	return counts
}

// Len returns the number of staged entries
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// transition moves an entry to the next status, enforcing the machine
func (q *Queue) transition(id string, next models.Status, apply func(*models.StagedGame)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	staged, ok := q.byID[id]
	if !ok {
		return fmt.Errorf("no staged game with id %s", id)
	}

	allowed := false
	for _, status := range allowedTransitions[staged.Status] {
		if status == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("invalid status transition %s -> %s for %s", staged.Status, next, id)
	}

	staged.Status = next
	staged.UpdatedAt = time.Now()
	if apply != nil {
		apply(staged)
	}
	return nil
}

// MarkScanning marks an entry as being processed
func (q *Queue) MarkScanning(id string) error {
	return q.transition(id, models.StatusScanning, nil)
}

// MarkMatched records a confident resolved identity
func (q *Queue) MarkMatched(id string, identity providers.Identity) error {
	return q.transition(id, models.StatusMatched, func(staged *models.StagedGame) {
		staged.Title = identity.Title
		staged.ProviderName = identity.Provider
		staged.ProviderID = identity.ID
	})
}

// MarkAmbiguous parks an entry for human confirmation, preserving the raw
// search results
func (q *Queue) MarkAmbiguous(id, note string, raw []models.RawMatch) error {
	return q.transition(id, models.StatusAmbiguous, func(staged *models.StagedGame) {
		staged.StatusNote = note
		staged.RawMatches = raw
	})
}

// MarkReady completes an entry with its acquired metadata
func (q *Queue) MarkReady(id string, meta models.PartialMetadata) error {
	return q.transition(id, models.StatusReady, func(staged *models.StagedGame) {
		staged.Metadata = meta
		staged.StatusNote = ""
	})
}

// MarkError records an unexpected failure with a human-readable cause
func (q *Queue) MarkError(id, cause string) error {
	return q.transition(id, models.StatusError, func(staged *models.StagedGame) {
		staged.StatusNote = cause
	})
}

// SetMetadata attaches acquired metadata without a status change
func (q *Queue) SetMetadata(id string, meta models.PartialMetadata) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if staged, ok := q.byID[id]; ok {
		staged.Metadata = meta
		staged.UpdatedAt = time.Now()
	}
}

// SetIgnored flips the ignored flag. It is orthogonal to status and legal
// from any state.
func (q *Queue) SetIgnored(id string, ignored bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	staged, ok := q.byID[id]
	if !ok {
		return fmt.Errorf("no staged game with id %s", id)
	}
	staged.Ignored = ignored
	staged.UpdatedAt = time.Now()
	return nil
}

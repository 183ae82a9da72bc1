// Package pipeline orchestrates one import batch: scan, dedup, then
// per-candidate resolution, acquisition and caching under a bounded worker
// pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"gamarr/internal/dedup"
	"gamarr/internal/metrics"
	"gamarr/internal/models"
	"gamarr/internal/providers"
	"gamarr/internal/resolver"
	"gamarr/internal/scanners"
	"gamarr/internal/staging"
)

// ErrAlreadyRunning is returned when a run is requested while another batch
// is in flight
var ErrAlreadyRunning = errors.New("a pipeline run is already in progress")

// Progress reports incremental batch state to the caller
type Progress struct {
	Processed    int
	Total        int
	CurrentTitle string
}

// ProgressFunc receives progress updates; may be nil
type ProgressFunc func(Progress)

type identityResolver interface {
	Resolve(ctx context.Context, candidate models.ScanCandidate) resolver.Outcome
}

type metadataAcquirer interface {
	Acquire(ctx context.Context, identity providers.Identity) models.PartialMetadata
}

type artworkCacher interface {
	CacheArtwork(ctx context.Context, gameID string, meta models.PartialMetadata, forceRefresh bool) models.PartialMetadata
}

// Pipeline wires the batch stages together
type Pipeline struct {
	scanners    []scanners.Scanner
	manualRoots []string
	dedup       *dedup.Deduplicator
	resolver    identityResolver
	acquirer    metadataAcquirer
	cache       artworkCacher
	queue       *staging.Queue
	db          *models.Database
	workers     int
	logger      *logrus.Logger

	running atomic.Bool
}

// NewPipeline creates a new pipeline. manualRoots are the user-specified
// scan roots validated before each run; a missing root is a batch-level
// failure, not a skipped folder.
func NewPipeline(
	scanList []scanners.Scanner,
	manualRoots []string,
	deduplicator *dedup.Deduplicator,
	identityRes identityResolver,
	acquirer metadataAcquirer,
	cache artworkCacher,
	queue *staging.Queue,
	db *models.Database,
	workers int,
	logger *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		scanners:    scanList,
		manualRoots: manualRoots,
		dedup:       deduplicator,
		resolver:    identityRes,
		acquirer:    acquirer,
		cache:       cache,
		queue:       queue,
		db:          db,
		workers:     workers,
		logger:      logger,
	}
}

// Queue returns the staging queue consumed by the caller
func (p *Pipeline) Queue() *staging.Queue {
	return p.queue
}

// Running reports whether a batch is currently in flight
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one full batch. Candidates appear in the staging queue as
// soon as they survive dedup; cancellation stops new candidates while
// in-flight ones finish. Entries already staged survive a batch-level error.
func (p *Pipeline) Run(ctx context.Context, onProgress ProgressFunc) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	start := time.Now()
	defer metrics.RecordScanDuration(start)

	for _, root := range p.manualRoots {
		if _, err := os.Stat(root); err != nil {
			return fmt.Errorf("invalid scan root %s: %w", root, err)
		}
	}

	p.logger.Info("Starting import batch")

	candidates := scanners.RunAll(ctx, p.scanners, p.logger)
	for _, candidate := range candidates {
		metrics.CandidatesScanned.WithLabelValues(string(candidate.SourceKind)).Inc()
	}

	library, err := p.db.ListLibrary()
	if err != nil {
		return fmt.Errorf("failed to load confirmed library: %w", err)
	}

	survivors := p.dedup.Filter(candidates, library, p.queue.Snapshot())
	metrics.CandidatesDeduped.Add(float64(len(candidates) - len(survivors)))

	staged := make([]*models.StagedGame, 0, len(survivors))
	for _, candidate := range survivors {
		staged = append(staged, p.queue.Append(candidate))
	}

	total := len(staged)
	var processed atomic.Int64
	var corrupt atomic.Int64

	jobs := make(chan *models.StagedGame, total)
	for _, entry := range staged {
		jobs <- entry
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if ctx.Err() != nil {
					// No new candidates after cancellation; park the
					// remainder with a cause instead of leaving them pending
					if err := p.queue.MarkError(entry.ID, "cancelled before processing"); err != nil {
						corrupt.Add(1)
					}
					metrics.CandidatesCompleted.WithLabelValues(string(models.StatusError)).Inc()
				} else {
					p.processCandidate(ctx, entry, &corrupt)
				}

				done := int(processed.Add(1))
				if onProgress != nil {
					onProgress(Progress{Processed: done, Total: total, CurrentTitle: entry.Title})
				}
			}
		}()
	}
	wg.Wait()

	p.logger.WithFields(logrus.Fields{
		"total":    total,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Import batch completed")

	if corrupt.Load() > 0 {
		return fmt.Errorf("staging state corrupted for %d candidates", corrupt.Load())
	}
	return nil
}

// processCandidate drives one staged entry through resolve, acquire and
// cache. Every exit leaves the entry in a terminal status.
func (p *Pipeline) processCandidate(ctx context.Context, entry *models.StagedGame, corrupt *atomic.Int64) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"id":    entry.ID,
				"title": entry.Title,
				"panic": r,
			}).Error("Candidate processing panicked")
			if err := p.queue.MarkError(entry.ID, fmt.Sprintf("internal error: %v", r)); err != nil {
				corrupt.Add(1)
			}
			metrics.CandidatesCompleted.WithLabelValues(string(models.StatusError)).Inc()
		}
	}()

	finish := func(status models.Status, markErr error) {
		if markErr != nil {
			p.logger.WithError(markErr).WithField("id", entry.ID).Error("Staging transition failed")
			corrupt.Add(1)
			return
		}
		metrics.CandidatesCompleted.WithLabelValues(string(status)).Inc()
	}

	if err := p.queue.MarkScanning(entry.ID); err != nil {
		corrupt.Add(1)
		return
	}

	outcome := p.resolver.Resolve(ctx, entry.Candidate)
	if !outcome.Confident {
		finish(models.StatusAmbiguous, p.queue.MarkAmbiguous(entry.ID, "no confident match found", outcome.Raw))
		return
	}

	if err := p.queue.MarkMatched(entry.ID, outcome.Identity); err != nil {
		corrupt.Add(1)
		return
	}

	meta := p.acquirer.Acquire(ctx, outcome.Identity)
	meta = p.cache.CacheArtwork(ctx, entry.ID, meta, false)

	if meta.Empty() {
		finish(models.StatusAmbiguous, p.queue.MarkAmbiguous(entry.ID, "resolved but nothing acquired", outcome.Raw))
		return
	}

	finish(models.StatusReady, p.queue.MarkReady(entry.ID, meta))
}

// Package scanners discovers installed games across heterogeneous sources.
// Scanners never fail: unreadable entries are skipped and logged.
package scanners

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
)

// Scanner produces scan candidates for one installation ecosystem
type Scanner interface {
	Kind() models.SourceKind
	Scan(ctx context.Context) []models.ScanCandidate
}

// RunAll runs every scanner concurrently and collects their candidates.
// Scanners not yet started when ctx is cancelled are skipped.
func RunAll(ctx context.Context, scanners []Scanner, logger *logrus.Logger) []models.ScanCandidate {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates []models.ScanCandidate
	)

	for _, scanner := range scanners {
		if ctx.Err() != nil {
			logger.WithField("source", scanner.Kind()).Info("Scan cancelled before source started")
			continue
		}

		wg.Add(1)
		go func(s Scanner) {
			defer wg.Done()

			found := s.Scan(ctx)

			logger.WithFields(logrus.Fields{
				"source": s.Kind(),
				"count":  len(found),
			}).Info("Source scan completed")

			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
		}(scanner)
	}

	wg.Wait()
	return candidates
}

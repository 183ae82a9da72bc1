// Package scheduler drives periodic background imports in serve mode.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"gamarr/internal/pipeline"
)

// Scheduler manages scheduled pipeline runs
type Scheduler struct {
	cron   *cron.Cron
	pipe   *pipeline.Pipeline
	spec   string
	logger *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(pipe *pipeline.Pipeline, spec string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		pipe:   pipe,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the periodic import job and runs an initial batch
func (s *Scheduler) Start() error {
	s.logger.WithField("cron", s.spec).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.spec, func() {
		s.runBatch()
	})
	if err != nil {
		return fmt.Errorf("failed to add import job: %w", err)
	}

	s.cron.Start()

	go s.runBatch()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runBatch executes one import batch. Overlapping runs are skipped, not
// queued.
func (s *Scheduler) runBatch() {
	s.logger.Info("Running scheduled import")

	err := s.pipe.Run(context.Background(), func(progress pipeline.Progress) {
		s.logger.WithFields(logrus.Fields{
			"processed": progress.Processed,
			"total":     progress.Total,
			"title":     progress.CurrentTitle,
		}).Debug("Import progress")
	})

	switch {
	case err == pipeline.ErrAlreadyRunning:
		s.logger.Warn("Skipping scheduled import, previous run still in progress")
	case err != nil:
		s.logger.WithError(err).Error("Scheduled import failed")
	default:
		s.logger.Info("Scheduled import completed")
	}
}

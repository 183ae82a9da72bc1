// Package dedup filters freshly scanned candidates against the confirmed
// library and the current staging queue.
package dedup

import (
	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
	"gamarr/internal/utils"
)

// Deduplicator drops candidates that already exist in the library or are
// already staged
type Deduplicator struct {
	logger *logrus.Logger
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(logger *logrus.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// SynthesizeID builds the platform-qualified id used to compare a candidate
// against library entries. Candidates without a platform id are compared by
// path only; their committed id is a generated uuid.
func SynthesizeID(candidate models.ScanCandidate) string {
	if candidate.PlatformID == "" {
		return ""
	}
	return string(candidate.SourceKind) + ":" + candidate.PlatformID
}

// Filter returns the candidates that are neither in the library nor already
// staged. A candidate is dropped when its synthesized id, normalized
// executable path or normalized install path matches an existing entry, so a
// rescan before commit stages nothing new. Platform ids are sometimes absent
// or inconsistent at scan time, so the path checks are the safety net.
func (d *Deduplicator) Filter(candidates []models.ScanCandidate, library []*models.LibraryEntry, staged []models.StagedGame) []models.ScanCandidate {
	knownIDs := make(map[string]struct{}, len(library)+len(staged))
	knownExePaths := make(map[string]struct{}, len(library)+len(staged))
	knownInstallPaths := make(map[string]struct{}, len(library)+len(staged))

	for _, entry := range library {
		knownIDs[entry.ID] = struct{}{}
		if entry.ExePath != "" {
			knownExePaths[utils.NormalizePath(entry.ExePath)] = struct{}{}
		}
		if entry.InstallPath != "" {
			knownInstallPaths[utils.NormalizePath(entry.InstallPath)] = struct{}{}
		}
	}

	for _, entry := range staged {
		if id := SynthesizeID(entry.Candidate); id != "" {
			knownIDs[id] = struct{}{}
		}
		if entry.Candidate.ExecutablePath != "" {
			knownExePaths[utils.NormalizePath(entry.Candidate.ExecutablePath)] = struct{}{}
		}
		if entry.Candidate.InstallPath != "" {
			knownInstallPaths[utils.NormalizePath(entry.Candidate.InstallPath)] = struct{}{}
		}
	}

	survivors := make([]models.ScanCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if id := SynthesizeID(candidate); id != "" {
			if _, exists := knownIDs[id]; exists {
				d.logger.WithField("title", candidate.DisplayNameGuess).Debug("Dropping candidate: id already in library")
				continue
			}
		}

		if candidate.ExecutablePath != "" {
			if _, exists := knownExePaths[utils.NormalizePath(candidate.ExecutablePath)]; exists {
				d.logger.WithField("title", candidate.DisplayNameGuess).Debug("Dropping candidate: executable already in library")
				continue
			}
		}

		if candidate.InstallPath != "" {
			if _, exists := knownInstallPaths[utils.NormalizePath(candidate.InstallPath)]; exists {
				d.logger.WithField("title", candidate.DisplayNameGuess).Debug("Dropping candidate: install path already in library")
				continue
			}
		}

		survivors = append(survivors, candidate)
	}

	d.logger.WithFields(logrus.Fields{
		"scanned":   len(candidates),
		"survivors": len(survivors),
	}).Info("Deduplication completed")

	return survivors
}

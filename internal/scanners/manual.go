package scanners

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"gamarr/internal/config"
	"gamarr/internal/models"
	"gamarr/internal/utils"
)

// ManualScanner scans user-configured folders. Each subdirectory of a
// configured folder is a candidate; the per-folder recursive flag controls
// how deep the executable search goes. Unreadable folders yield an empty
// list plus a logged warning.
type ManualScanner struct {
	folders []config.ManualFolder
	logger  *logrus.Logger
}

// NewManualScanner creates a new manual-folder scanner
func NewManualScanner(folders []config.ManualFolder, logger *logrus.Logger) *ManualScanner {
	return &ManualScanner{
		folders: folders,
		logger:  logger,
	}
}

// Kind returns the source kind
func (s *ManualScanner) Kind() models.SourceKind {
	return models.SourceManual
}

// Scan visits every configured folder
func (s *ManualScanner) Scan(ctx context.Context) []models.ScanCandidate {
	var candidates []models.ScanCandidate
	for _, folder := range s.folders {
		if ctx.Err() != nil {
			s.logger.Info("Manual scan cancelled")
			break
		}
		candidates = append(candidates, s.scanFolder(folder)...)
	}
	return candidates
}

func (s *ManualScanner) scanFolder(folder config.ManualFolder) []models.ScanCandidate {
	entries, err := os.ReadDir(folder.Path)
	if err != nil {
		s.logger.WithError(err).WithField("folder", folder.Path).Warn("Cannot read manual folder")
		return nil
	}

	var candidates []models.ScanCandidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		installPath := filepath.Join(folder.Path, entry.Name())

		var exe string
		if folder.Recursive {
			exe = chooseExecutable(installPath, findExecutables(installPath, s.logger))
		} else {
			exe = topLevelExecutable(installPath, s.logger)
		}

		candidates = append(candidates, models.ScanCandidate{
			SourceKind:       models.SourceManual,
			DisplayNameGuess: utils.PrettifyFolderName(entry.Name()),
			InstallPath:      installPath,
			ExecutablePath:   exe,
		})
	}

	return candidates
}

// topLevelExecutable looks for a runnable executable directly inside a game
// folder without descending
func topLevelExecutable(dir string, logger *logrus.Logger) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.WithError(err).WithField("dir", dir).Debug("Skipping unreadable directory")
		return ""
	}

	var executables []string
	for _, entry := range entries {
		if !entry.IsDir() && isRunnableExecutable(entry.Name()) {
			executables = append(executables, filepath.Join(dir, entry.Name()))
		}
	}
	return chooseExecutable(dir, executables)
}

package scanners

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
	"gamarr/internal/utils"
)

// gamePassSkipNames are subfolder name fragments below the library root that
// never hold a standalone game
var gamePassSkipNames = []string{
	"content",
	"metadata",
	"dlc",
	"preorder",
	"pre-order",
	"launcher",
	"redist",
	"tools",
	"temp",
	"downloads",
}

// GamePassScanner walks one level of a fixed Game Pass library root. Each
// surviving subfolder is a candidate; the executable walk and preference
// ordering are shared with the registry scanner.
type GamePassScanner struct {
	root      string
	franchise *FranchiseMap
	logger    *logrus.Logger
}

// NewGamePassScanner creates a new fixed-directory scanner
func NewGamePassScanner(root string, franchise *FranchiseMap, logger *logrus.Logger) *GamePassScanner {
	return &GamePassScanner{
		root:      root,
		franchise: franchise,
		logger:    logger,
	}
}

// Kind returns the source kind
func (s *GamePassScanner) Kind() models.SourceKind {
	return models.SourceGamePass
}

// Scan walks the library root one level deep
func (s *GamePassScanner) Scan(ctx context.Context) []models.ScanCandidate {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.WithError(err).WithField("root", s.root).Warn("Cannot read Game Pass root")
		return nil
	}

	var candidates []models.ScanCandidate
	for _, entry := range entries {
		if ctx.Err() != nil {
			s.logger.Info("Game Pass scan cancelled")
			break
		}
		if !entry.IsDir() || skipGamePassFolder(entry.Name()) {
			continue
		}

		installPath := filepath.Join(s.root, entry.Name())

		// Game Pass installs keep the payload under Content when present
		walkRoot := installPath
		if info, err := os.Stat(filepath.Join(installPath, "Content")); err == nil && info.IsDir() {
			walkRoot = filepath.Join(installPath, "Content")
		}

		executables := findExecutables(walkRoot, s.logger)
		exe := chooseExecutable(walkRoot, executables)
		if exe == "" {
			s.logger.WithField("folder", entry.Name()).Debug("No runnable executable found, skipping folder")
			continue
		}

		title := s.franchise.Resolve(utils.PrettifyFolderName(entry.Name()))

		candidates = append(candidates, models.ScanCandidate{
			SourceKind:       models.SourceGamePass,
			DisplayNameGuess: title,
			InstallPath:      installPath,
			ExecutablePath:   exe,
		})
	}

	return candidates
}

// skipGamePassFolder drops known non-game subfolders by substring match
func skipGamePassFolder(name string) bool {
	lower := strings.ToLower(name)
	for _, skip := range gamePassSkipNames {
		if strings.Contains(lower, skip) {
			return true
		}
	}
	return false
}

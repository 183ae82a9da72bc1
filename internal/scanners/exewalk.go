package scanners

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxWalkDepth bounds the executable walk below an install root
const maxWalkDepth = 20

// launchHelperName is the Game Pass launch helper. It is the correct entry
// point for Game Pass titles and must survive the installer filter.
const launchHelperName = "gamelaunchhelper.exe"

// excludedExePatterns filters installer/updater/bootstrapper binaries by
// filename substring
var excludedExePatterns = []string{
	"setup",
	"unins",
	"install",
	"updater",
	"update",
	"bootstrap",
	"crashhandler",
	"crashreport",
	"crashpad",
	"redist",
	"vcredist",
	"dxsetup",
	"dotnet",
	"cleanup",
}

// findExecutables walks an install tree to bounded depth collecting runnable
// executables. Unreadable directories are skipped, never fatal.
func findExecutables(root string, logger *logrus.Logger) []string {
	var executables []string
	walkExecutables(root, 0, &executables, logger)
	return executables
}

func walkExecutables(dir string, depth int, executables *[]string, logger *logrus.Logger) {
	if depth > maxWalkDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.WithError(err).WithField("dir", dir).Debug("Skipping unreadable directory")
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			walkExecutables(path, depth+1, executables, logger)
			continue
		}
		if isRunnableExecutable(entry.Name()) {
			*executables = append(*executables, path)
		}
	}
}

// isRunnableExecutable reports whether a filename looks like a game entry
// point rather than an installer or support binary. The launch helper is
// always kept.
func isRunnableExecutable(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".exe") {
		return false
	}
	if lower == launchHelperName {
		return true
	}
	for _, pattern := range excludedExePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

// chooseExecutable picks the best entry point among qualifying executables:
// launch helper > executable under a "content" path segment > fewest path
// separators from the install root (shallowest wins ties).
func chooseExecutable(root string, executables []string) string {
	if len(executables) == 0 {
		return ""
	}

	best := executables[0]
	bestScore := exeScore(root, best)
	for _, exe := range executables[1:] {
		if score := exeScore(root, exe); score < bestScore {
			best, bestScore = exe, score
		}
	}
	return best
}

// exeScore ranks an executable; lower is better. Depth contributes last so
// the category preferences always dominate.
func exeScore(root, exe string) int {
	rel, err := filepath.Rel(root, exe)
	if err != nil {
		rel = exe
	}
	rel = strings.ToLower(filepath.ToSlash(rel))

	depth := strings.Count(rel, "/")

	if filepath.Base(rel) == launchHelperName {
		return depth
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == "content" {
			return 1000 + depth
		}
	}
	return 2000 + depth
}

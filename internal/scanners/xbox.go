package scanners

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
	"gamarr/internal/utils"
)

const registryCacheKey = "registered-games"

// XboxScanner discovers installed UWP/Game Pass packages. Registry presence
// is the primary positive signal: generic app inventories are dominated by
// utilities and OEM bloatware, so heuristic filtering alone misclassifies
// badly. The heuristic classifier only runs when no registry signal exists.
type XboxScanner struct {
	packagesRoot  string
	registry      RegistryQuery
	registryCache *gocache.Cache
	logger        *logrus.Logger
}

// NewXboxScanner creates a new registry-platform scanner
func NewXboxScanner(packagesRoot string, registry RegistryQuery, logger *logrus.Logger) *XboxScanner {
	return &XboxScanner{
		packagesRoot:  packagesRoot,
		registry:      registry,
		registryCache: gocache.New(15*time.Minute, 30*time.Minute),
		logger:        logger,
	}
}

// Kind returns the source kind
func (s *XboxScanner) Kind() models.SourceKind {
	return models.SourceXbox
}

// Scan lists installed packages under the packages root and emits those that
// are registered gaming-services packages, falling back to the heuristic
// classifier when the registry is unavailable or empty
func (s *XboxScanner) Scan(ctx context.Context) []models.ScanCandidate {
	registered := s.registeredGames(ctx)

	entries, err := os.ReadDir(s.packagesRoot)
	if err != nil {
		s.logger.WithError(err).WithField("root", s.packagesRoot).Warn("Cannot read packages root")
		return nil
	}

	var candidates []models.ScanCandidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		family := packageFamily(entry.Name())
		if family == "" {
			continue
		}
		installPath := filepath.Join(s.packagesRoot, entry.Name())

		if len(registered) > 0 {
			if _, isGame := registered[strings.ToLower(family)]; !isGame {
				continue
			}
		} else if !s.classifyAsGame(installPath, entry.Name()) {
			continue
		}

		executables := findExecutables(installPath, s.logger)
		exe := chooseExecutable(installPath, executables)

		candidates = append(candidates, models.ScanCandidate{
			SourceKind:       models.SourceXbox,
			DisplayNameGuess: packageDisplayName(entry.Name()),
			InstallPath:      installPath,
			ExecutablePath:   exe,
			PlatformID:       family,
			LaunchArgs:       `shell:appsFolder\` + family + "!Game",
		})
	}

	return candidates
}

// registeredGames returns the registered gaming-services set, memoized so
// repeated pipeline runs in one process issue one external query. A failed
// query degrades to an empty set.
func (s *XboxScanner) registeredGames(ctx context.Context) map[string]struct{} {
	if cached, found := s.registryCache.Get(registryCacheKey); found {
		return cached.(map[string]struct{})
	}

	registered, err := s.registry.QueryRegisteredGames(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Gaming services registry unavailable, falling back to heuristics")
		registered = map[string]struct{}{}
	}

	s.registryCache.Set(registryCacheKey, registered, gocache.DefaultExpiration)
	return registered
}

// publisherAllowList short-circuits the heuristic chain for vendors that only
// ship games through this channel
var publisherAllowList = []string{
	"bethesdasoftworks",
	"sega",
	"devolverdigital",
	"paradoxinteractive",
	"mojang",
	"obsidianentertainment",
	"ninjatheory",
	"playgroundgames",
	"rareltd",
	"turn10studios",
	"343industries",
	"thecoalition",
}

// systemVendorDenyList rejects system components and OEM packages outright
var systemVendorDenyList = []string{
	"microsoft.windows",
	"microsoft.vclibs",
	"microsoft.net",
	"microsoft.ui",
	"microsoft.services",
	"microsoft.advertising",
	"realteksemiconductor",
	"dolbylaboratories",
	"advancedmicrodevices",
	"intelcorporation",
	"nvidiacorp",
	"synapticsincorporated",
	"hpinc",
	"dellinc",
	"lenovo",
}

// packageKeywordDenyList rejects non-game packages by name keyword
var packageKeywordDenyList = []string{
	"runtime",
	"framework",
	"driver",
	"extension",
	"store",
	"helper",
	"codec",
	"plugin",
	"component",
	"installer",
	"gamingservices",
	"xboxapp",
	"xboxidentity",
	"xboxspeech",
	"xboxgamecallableui",
}

// minPackageFiles is the file-count threshold below which a package is
// assumed to be a stub or component rather than a game
const minPackageFiles = 3

// shellStubMaxSize marks a lone tiny executable as a shell stub
const shellStubMaxSize = 256 * 1024

// classifyAsGame is the secondary heuristic chain, exercised only without a
// registry signal: publisher allow-list, then system/OEM deny-list, then
// file-count threshold, then keyword deny-list, then shell-stub detection.
func (s *XboxScanner) classifyAsGame(installPath, packageName string) bool {
	lowerName := strings.ToLower(packageName)

	for _, publisher := range publisherAllowList {
		if strings.HasPrefix(lowerName, publisher) {
			return true
		}
	}

	for _, vendor := range systemVendorDenyList {
		if strings.HasPrefix(lowerName, vendor) {
			return false
		}
	}

	if countFiles(installPath, minPackageFiles) < minPackageFiles {
		return false
	}

	for _, keyword := range packageKeywordDenyList {
		if strings.Contains(lowerName, keyword) {
			return false
		}
	}

	if isShellStub(installPath, s.logger) {
		return false
	}

	return true
}

// countFiles counts regular files in a directory tree, stopping early once
// limit is reached
func countFiles(root string, limit int) int {
	count := 0
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			count++
			if count >= limit {
				return filepath.SkipAll
			}
		}
		return nil
	})
	return count
}

// isShellStub detects packages whose only executable is a tiny redirector
func isShellStub(installPath string, logger *logrus.Logger) bool {
	executables := findExecutables(installPath, logger)
	if len(executables) != 1 {
		return false
	}
	info, err := os.Stat(executables[0])
	if err != nil {
		return false
	}
	return info.Size() < shellStubMaxSize
}

// packageFamily derives the package family identity from an install folder
// name like "Publisher.Game_1.0.0.0_x64__8wekyb3d8bbwe": name plus publisher
// hash, without version and architecture.
func packageFamily(folderName string) string {
	parts := strings.Split(folderName, "_")
	if len(parts) < 2 {
		return ""
	}
	name := parts[0]
	hash := parts[len(parts)-1]
	if name == "" || hash == "" {
		return ""
	}
	return name + "_" + hash
}

// packageDisplayName guesses a display name from the package name segment,
// e.g. "BethesdaSoftworks.Starfield" -> "Starfield"
func packageDisplayName(folderName string) string {
	name := strings.SplitN(folderName, "_", 2)[0]
	if idx := strings.LastIndex(name, "."); idx >= 0 && idx < len(name)-1 {
		name = name[idx+1:]
	}
	return utils.PrettifyFolderName(splitCamelCase(name))
}

// splitCamelCase inserts spaces into CamelCase package segments
func splitCamelCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(name[i-1])
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

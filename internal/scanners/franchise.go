package scanners

import (
	"bufio"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// builtinFranchiseMap resolves generic install folder names that map to
// multiple historical releases of a franchise. The mapping is an explicit,
// maintained heuristic: the newest release wins, deterministically, without
// re-querying any provider. Entries can be overridden from a mapping file.
var builtinFranchiseMap = map[string]string{
	"call of duty":               "Call of Duty: Black Ops 6",
	"forza motorsport":           "Forza Motorsport",
	"forza horizon":              "Forza Horizon 5",
	"microsoft flight simulator": "Microsoft Flight Simulator 2024",
	"flight simulator":           "Microsoft Flight Simulator 2024",
	"doom":                       "DOOM: The Dark Ages",
	"hitman":                     "HITMAN World of Assassination",
	"mortal kombat":              "Mortal Kombat 1",
}

// FranchiseMap resolves generic folder names to their current release title
type FranchiseMap struct {
	entries map[string]string
}

// LoadFranchiseMap builds the franchise table from the built-in entries plus
// an optional override file of "folder name = title" lines. A missing or
// unreadable override file keeps the built-in table.
func LoadFranchiseMap(path string, logger *logrus.Logger) *FranchiseMap {
	entries := make(map[string]string, len(builtinFranchiseMap))
	for folder, title := range builtinFranchiseMap {
		entries[folder] = title
	}

	if path != "" {
		if err := mergeMapFile(path, entries); err != nil {
			logger.WithError(err).WithField("path", path).Warn("Failed to load franchise map file, using built-in table")
		}
	}

	return &FranchiseMap{entries: entries}
}

func mergeMapFile(path string, entries map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		folder := strings.ToLower(strings.TrimSpace(parts[0]))
		title := strings.TrimSpace(parts[1])
		if folder != "" && title != "" {
			entries[folder] = title
		}
	}
	return scanner.Err()
}

// Resolve maps a display name guess to the franchise's current release
// title, or returns the guess unchanged when no mapping exists
func (f *FranchiseMap) Resolve(name string) string {
	if title, ok := f.entries[strings.ToLower(strings.TrimSpace(name))]; ok {
		return title
	}
	return name
}

package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// noiseTokenRegex matches edition/variant markers that pollute title searches.
// "Half Life 2: Deathmatch Demo" should be searched as "Half Life 2: Deathmatch".
var noiseTokenRegex = regexp.MustCompile(`(?i)[\s\-:]*(\(|\[)?\b(demo|trial|playtest|beta|early access)\b(\)|\])?\s*$`)

// StripNoiseTokens removes trailing demo/trial style markers from a title.
// Returns the cleaned title and whether anything was stripped, so the caller
// can track that the original was a variant.
func StripNoiseTokens(title string) (string, bool) {
	cleaned := noiseTokenRegex.ReplaceAllString(title, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return strings.TrimSpace(title), false
	}
	return cleaned, cleaned != strings.TrimSpace(title)
}

// NormalizePath lower-cases a filesystem path and flips backslashes to
// slashes so paths scanned on different occasions compare equal
func NormalizePath(path string) string {
	normalized := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	return strings.TrimRight(normalized, "/")
}

// NormalizeTitle reduces a title to lower-case alphanumerics for comparison
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var folderSeparatorRegex = regexp.MustCompile(`[_\.]+`)
var multiSpaceRegex = regexp.MustCompile(`\s{2,}`)

var titleCaser = cases.Title(language.English)

// PrettifyFolderName turns a folder name like "half_life.2" into a readable
// display name guess. The result is a guess, never authoritative.
func PrettifyFolderName(name string) string {
	pretty := folderSeparatorRegex.ReplaceAllString(name, " ")
	pretty = multiSpaceRegex.ReplaceAllString(pretty, " ")
	pretty = strings.TrimSpace(pretty)
	if pretty == "" {
		return name
	}
	// Folder names that already carry mixed case are left alone
	if pretty == strings.ToLower(pretty) || pretty == strings.ToUpper(pretty) {
		pretty = titleCaser.String(strings.ToLower(pretty))
	}
	return pretty
}

// IsNumericID reports whether an opaque platform id looks like a numeric
// storefront app id
func IsNumericID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

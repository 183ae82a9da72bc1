package scanners

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gamarr/internal/models"
)

func TestGamePassScanSkipsKnownFolders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Hades II", "hades2.exe"), 10)
	for _, skip := range []string{"DLC", "GamingServices Temp", "Redist", "downloads"} {
		writeFile(t, filepath.Join(root, skip, "thing.exe"), 10)
	}

	scanner := NewGamePassScanner(root, LoadFranchiseMap("", testLogger()), testLogger())
	candidates := scanner.Scan(context.Background())

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].DisplayNameGuess != "Hades II" {
		t.Errorf("display name = %q", candidates[0].DisplayNameGuess)
	}
	if candidates[0].SourceKind != models.SourceGamePass {
		t.Errorf("source kind = %s", candidates[0].SourceKind)
	}
}

func TestGamePassScanPrefersContentSubdir(t *testing.T) {
	root := t.TempDir()
	install := filepath.Join(root, "Starfield")
	writeFile(t, filepath.Join(install, "Content", "gamelaunchhelper.exe"), 10)
	writeFile(t, filepath.Join(install, "Content", "Starfield.exe"), 10)

	scanner := NewGamePassScanner(root, LoadFranchiseMap("", testLogger()), testLogger())
	candidates := scanner.Scan(context.Background())

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	want := filepath.Join(install, "Content", "gamelaunchhelper.exe")
	if candidates[0].ExecutablePath != want {
		t.Errorf("executable = %q, want launch helper %q", candidates[0].ExecutablePath, want)
	}
	if candidates[0].InstallPath != install {
		t.Errorf("install path = %q, want folder root %q", candidates[0].InstallPath, install)
	}
}

func TestGamePassScanSkipsFoldersWithoutExecutable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "EmptyShell", "readme.txt"), 10)

	scanner := NewGamePassScanner(root, LoadFranchiseMap("", testLogger()), testLogger())
	if candidates := scanner.Scan(context.Background()); len(candidates) != 0 {
		t.Errorf("expected 0 candidates, got %d", len(candidates))
	}
}

func TestGamePassFranchiseResolution(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Call of Duty", "cod.exe"), 10)

	scanner := NewGamePassScanner(root, LoadFranchiseMap("", testLogger()), testLogger())
	candidates := scanner.Scan(context.Background())

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].DisplayNameGuess != "Call of Duty: Black Ops 6" {
		t.Errorf("franchise folder resolved to %q", candidates[0].DisplayNameGuess)
	}
}

func TestFranchiseMapResolve(t *testing.T) {
	m := LoadFranchiseMap("", testLogger())

	if got := m.Resolve("Forza Horizon"); got != "Forza Horizon 5" {
		t.Errorf("Resolve(Forza Horizon) = %q", got)
	}
	if got := m.Resolve("Some Unknown Game"); got != "Some Unknown Game" {
		t.Errorf("unmapped name should pass through, got %q", got)
	}
}

func TestFranchiseMapOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "franchises.conf")
	content := "# comment line\n" +
		"call of duty = Call of Duty: Modern Warfare III\n" +
		"my homebrew = My Homebrew: Remastered\n" +
		"malformed line without equals\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m := LoadFranchiseMap(path, testLogger())

	if got := m.Resolve("Call of Duty"); got != "Call of Duty: Modern Warfare III" {
		t.Errorf("override should win over built-in, got %q", got)
	}
	if got := m.Resolve("My Homebrew"); got != "My Homebrew: Remastered" {
		t.Errorf("new override entry missing, got %q", got)
	}
	if got := m.Resolve("DOOM"); got != "DOOM: The Dark Ages" {
		t.Errorf("built-in entry lost after override load, got %q", got)
	}
}

func TestFranchiseMapMissingFileKeepsBuiltins(t *testing.T) {
	m := LoadFranchiseMap(filepath.Join(t.TempDir(), "missing.conf"), testLogger())
	if got := m.Resolve("Hitman"); got != "HITMAN World of Assassination" {
		t.Errorf("Resolve(Hitman) = %q", got)
	}
}

package scanners

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIsRunnableExecutable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"game.exe", true},
		{"Game.EXE", true},
		{"gamelaunchhelper.exe", true},
		{"setup.exe", false},
		{"unins000.exe", false},
		{"UnityCrashHandler64.exe", false},
		{"vcredist_x64.exe", false},
		{"DXSETUP.exe", false},
		{"game.dll", false},
		{"readme.txt", false},
	}

	for _, tt := range tests {
		if got := isRunnableExecutable(tt.name); got != tt.want {
			t.Errorf("isRunnableExecutable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFindExecutablesFiltersAndRecurses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "game.exe"), 10)
	writeFile(t, filepath.Join(root, "setup.exe"), 10)
	writeFile(t, filepath.Join(root, "bin", "x64", "engine.exe"), 10)
	writeFile(t, filepath.Join(root, "docs", "manual.pdf"), 10)

	executables := findExecutables(root, testLogger())
	if len(executables) != 2 {
		t.Fatalf("expected 2 executables, got %d: %v", len(executables), executables)
	}
}

func TestChooseExecutablePrefersLaunchHelper(t *testing.T) {
	root := t.TempDir()
	helper := filepath.Join(root, "deep", "nested", "gamelaunchhelper.exe")
	shallow := filepath.Join(root, "game.exe")

	// The helper wins even though the plain exe is shallower
	if got := chooseExecutable(root, []string{shallow, helper}); got != helper {
		t.Errorf("chooseExecutable = %q, want launch helper %q", got, helper)
	}
}

func TestChooseExecutablePrefersContentSegment(t *testing.T) {
	root := t.TempDir()
	inContent := filepath.Join(root, "Content", "bin", "game.exe")
	outside := filepath.Join(root, "support.exe")

	if got := chooseExecutable(root, []string{outside, inContent}); got != inContent {
		t.Errorf("chooseExecutable = %q, want content executable %q", got, inContent)
	}
}

func TestChooseExecutableShallowestWinsTies(t *testing.T) {
	root := t.TempDir()
	shallow := filepath.Join(root, "game.exe")
	deep := filepath.Join(root, "bin", "x64", "game.exe")

	if got := chooseExecutable(root, []string{deep, shallow}); got != shallow {
		t.Errorf("chooseExecutable = %q, want shallowest %q", got, shallow)
	}
}

func TestChooseExecutableEmpty(t *testing.T) {
	if got := chooseExecutable(t.TempDir(), nil); got != "" {
		t.Errorf("chooseExecutable with no candidates = %q, want empty", got)
	}
}

func TestWalkDepthBounded(t *testing.T) {
	root := t.TempDir()

	// Build a chain deeper than the walk bound with an exe at the bottom
	deep := root
	for i := 0; i <= maxWalkDepth+1; i++ {
		deep = filepath.Join(deep, "d")
	}
	writeFile(t, filepath.Join(deep, "game.exe"), 10)
	writeFile(t, filepath.Join(root, "top.exe"), 10)

	executables := findExecutables(root, testLogger())
	if len(executables) != 1 {
		t.Fatalf("expected only the shallow executable, got %v", executables)
	}
	if filepath.Base(executables[0]) != "top.exe" {
		t.Errorf("unexpected executable %q", executables[0])
	}
}

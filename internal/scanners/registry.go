package scanners

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RegistryQuery exposes the platform registry of officially-registered
// gaming-services packages. A no-op implementation exists for hosts without
// the capability, so scanner logic stays free of conditional compilation.
type RegistryQuery interface {
	QueryRegisteredGames(ctx context.Context) (map[string]struct{}, error)
}

// NewRegistryQuery returns the real registry query on Windows and a no-op
// query everywhere else
func NewRegistryQuery(logger *logrus.Logger) RegistryQuery {
	if runtime.GOOS == "windows" {
		return &powershellRegistry{logger: logger}
	}
	return noopRegistry{}
}

// noopRegistry is used on hosts without a platform registry. It reports an
// empty set, which sends the scanner down the heuristic path.
type noopRegistry struct{}

func (noopRegistry) QueryRegisteredGames(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

const gamingServicesKey = `HKLM:\SOFTWARE\Microsoft\GamingServices\PackageRepository\Package`

// powershellRegistry queries the gaming-services package repository through
// an external PowerShell invocation
type powershellRegistry struct {
	logger *logrus.Logger
}

func (r *powershellRegistry) QueryRegisteredGames(ctx context.Context) (map[string]struct{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	script := fmt.Sprintf(
		`Get-ChildItem -Path '%s' | ForEach-Object { ($_ | Get-ItemProperty).PackageFamilyName }`,
		gamingServicesKey,
	)

	cmd := exec.CommandContext(queryCtx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("gaming services registry query failed: %w", err)
	}

	registered := make(map[string]struct{})
	for _, line := range strings.Split(string(output), "\n") {
		family := strings.TrimSpace(line)
		if family != "" {
			registered[strings.ToLower(family)] = struct{}{}
		}
	}

	r.logger.WithField("count", len(registered)).Debug("Gaming services registry queried")
	return registered, nil
}

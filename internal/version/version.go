// Package version carries build metadata injected via ldflags.
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the full version line printed by the version command.
func String() string {
	return fmt.Sprintf("screenmark %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}

package version

import "fmt"

// These variables are injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("asg-builder %s (%s, %s)", Version, Commit, BuildDate)
}

// UserAgent identifies payload fetches.
func UserAgent() string {
	return "asg-builder/" + Version
}

// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

func Short() string {
	return Version
}

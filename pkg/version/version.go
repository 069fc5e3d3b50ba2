// Package version carries build metadata injected with -ldflags -X.
package version

import "fmt"

// Build metadata. Overridden at link time.
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

// String formats the metadata for the version command.
func String() string {
	return fmt.Sprintf("bundlesize %s (commit: %s, built: %s)", Version, Commit, Date)
}

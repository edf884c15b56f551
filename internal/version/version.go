// Package version carries build-time version information, set via
// -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version, or "dev" for untagged builds.
	Version = "dev"

	// GitCommit is the short commit SHA.
	GitCommit = "none"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info is the structured form served by the CLI and startup log.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String returns "version (commit)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}

// Full includes the build date and Go runtime.
func Full() string {
	return fmt.Sprintf("%s (%s) built %s with %s", Version, GitCommit, BuildDate, runtime.Version())
}

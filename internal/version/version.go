// Package version holds build information injected with ldflags, e.g.
//
//	-ldflags "-X github.com/jmylchreest/landtint/internal/version.Version=v1.2.0 \
//	          -X github.com/jmylchreest/landtint/internal/version.Commit=$(git rev-parse HEAD) \
//	          -X github.com/jmylchreest/landtint/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"

	// GoVersion is the toolchain that built the binary.
	GoVersion = runtime.Version()
)

// Info is the build information, also emitted by `landtint version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a one-line description of the build.
func String() string {
	info := GetInfo()
	if info.Commit != "unknown" && info.Date != "unknown" {
		return fmt.Sprintf("landtint version %s (commit: %s, built: %s, %s, %s)",
			info.Version, shortCommit(info.Commit), info.Date, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("landtint version %s (%s, %s)", info.Version, info.GoVersion, info.Platform)
}

// Short returns just the version.
func Short() string {
	return Version
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}

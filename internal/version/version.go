// Package version reports the agentdesk release.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionContent string

// Commit is set at build time with -ldflags "-X .../version.Commit=<sha>".
var Commit = "dev"

// Get returns the release number from the embedded VERSION file.
func Get() string {
	return strings.TrimSpace(versionContent)
}

// String returns the release, commit and Go runtime on one line.
func String() string {
	return fmt.Sprintf("agentdesk %s (%s, %s %s/%s)", Get(), Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

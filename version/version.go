// Package version exposes build information injected at link time.
package version

import "runtime"

// Set via -ldflags "-X github.com/jackzampolin/archivist/version.GitRelease=..."
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
)

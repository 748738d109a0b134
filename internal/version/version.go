// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags, for example
// -ldflags "-X colour-deconvolution/internal/version.GitCommit=$(git rev-parse --short HEAD)".
var (
	// Version is the semantic version
	Version = "0.3.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// String returns a one-line description for -version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

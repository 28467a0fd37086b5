// Package settings provides build metadata, per-invocation settings, and
// context helpers shared by the pathbench CLI and its library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "pathbench"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds how a single invocation renders its results.
type Run struct {
	Output  string
	NoColor bool
	IsQuiet bool
	// Width is the output width in columns. Zero means the terminal width.
	Width int
}

// NewCliParams returns the defaults used when pathbench runs from the command line.
func NewCliParams() *Run {
	return &Run{Output: "table"}
}

// Package version carries build identification, populated via -ldflags.
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the full build identity for startup logs.
func String() string {
	return Version + " (" + GitSHA + ", " + BuildTime + ")"
}

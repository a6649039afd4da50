// Package version exposes the build-stamped version string.
package version

// version is injected at build time via -ldflags.
var version = "v0.0.0"

// Value returns the current version.
func Value() string {
	return version
}

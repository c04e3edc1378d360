// Package version carries the build version stamped in by the linker:
//
//	go build -ldflags "-X github.com/orris-inc/sessiongate/internal/shared/version.Version=1.4.0"
package version

import "strings"

var (
	Version = "dev"
	Commit  = ""
)

// Normalize ensures version string has "v" prefix.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3", "dev" -> "dev"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" || version == "dev" {
		return version
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// String returns the normalized version, with the commit when known.
func String() string {
	v := Normalize(Version)
	if Commit != "" {
		return v + "+" + Commit
	}
	return v
}

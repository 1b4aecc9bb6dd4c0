// Package version holds the build version of the solemnstats binaries.
// Set it at build time with:
//
//	go build -ldflags "-X github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/version.Version=v1.2.3"
package version

import "runtime/debug"

// Version defaults to "dev" when not set through ldflags.
var Version = "dev"

// GetVersion returns Version, falling back to the module version recorded
// in the binary's build info for "go install"ed builds.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

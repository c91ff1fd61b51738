// Package provenance collects the host and build facts recorded in output
// metadata.
package provenance

import (
	"os"
	"runtime/debug"

	"github.com/couchcryptid/auv-align/internal/domain"
)

// UnknownCommit is recorded when the binary carries no VCS stamp.
const UnknownCommit = "<failed to get git commit>"

// Build returns the provenance of the current process.
func Build(vehicle, mission, commandLine string) domain.Provenance {
	return domain.Provenance{
		Vehicle:     vehicle,
		Mission:     mission,
		CommandLine: commandLine,
		Host:        Hostname(),
		Commit:      Commit(),
	}
}

// Commit returns the VCS revision stamped into the binary by the Go
// toolchain.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return UnknownCommit
	}
	return commitFrom(info.Settings)
}

func commitFrom(settings []debug.BuildSetting) string {
	for _, s := range settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return UnknownCommit
}

// Hostname returns the host name, or "unknown" when it cannot be read.
func Hostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

// Package version carries the build identity of the netorch binary.
package version

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/tenantnet/netorch/pkg/version.Version=v0.3.0 \
//	  -X github.com/tenantnet/netorch/pkg/version.GitCommit=abc1234 \
//	  -X github.com/tenantnet/netorch/pkg/version.BuildDate=2026-01-01T00:00:00Z"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a formatted version string for display.
func Info() string {
	return Version + " (" + GitCommit + ") built " + BuildDate
}

// String names tool with its version, or marks a dev build.
func String(tool string) string {
	if Version == "dev" {
		return tool + " dev build"
	}
	return tool + " " + Version + " (" + GitCommit + ")"
}

// Package version holds build-time version metadata.
package version

// Version is the broker's release version, overridable at build time with
// -ldflags "-X github.com/kandev/meddler/internal/version.Version=...".
var Version = "dev"

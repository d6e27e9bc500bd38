// Package version reports the build of a streamkit binary.
//
// Version, commit, branch and build time are set at compile time via
// -ldflags; anything left empty is read from the embedded build info:
//
//	go build -ldflags "-X github.com/kbukum/streamkit/version.Version=1.0.0" ./cmd/streamkit
package version

// Package buildinfo holds the version of the running feditest binary.
package buildinfo

// Version is the feditest engine version. main overrides it at startup with
// the value injected through -ldflags.
var Version = "dev"

// UserAgent returns the HTTP User-Agent used by in-process node drivers.
func UserAgent() string {
	return "feditest/" + Version
}

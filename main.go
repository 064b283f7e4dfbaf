package main

import (
	"feditest/cmd"
	"feditest/internal/buildinfo"
)

// Version can be set during build with -ldflags
var version = "dev"

func main() {
	buildinfo.Version = version
	cmd.SetVersion(version)
	cmd.Execute()
}

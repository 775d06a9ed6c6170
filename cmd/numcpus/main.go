// Diagnostic CLI: print the logical and physical CPU counts and the signals
// they were based upon.

package main

import (
	"flag"
	"os"

	libnumcpus "github.com/thechampagne/libnumcpus"
)

// The command line args, owned by this executable:
var runArgs = libnumcpus.RegisterRunArgs(flag.CommandLine)

// Customize the library for this particular executable. This should be done
// before invoking `libnumcpus.Run', so it best to do it via `init()'.
func init() {
	// The build info, based on buildinfo.go, normally overwritten at build
	// time via -ldflags "-X main.Version=... -X main.GitInfo=...":
	libnumcpus.UpdateBuildInfo(Version, GitInfo)
}

func main() {
	flag.Parse()
	os.Exit(libnumcpus.Run(runArgs))
}

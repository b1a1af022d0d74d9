// Package main is the entry point for the hostplane CLI.
//
// hostplane provisions a web-application host: it resolves the operator's
// network topology, provisions TLS certificates per zone, synthesizes
// reverse-proxy and firewall configuration, supervises the application
// services and verifies the result.
//
// Commands: init, deploy, verify, renew, version.
//
// For detailed usage information, run:
//
//	hostplane --help
package main

import (
	"fmt"
	"os"

	"github.com/hostplane/hostplane/cmd/hostplane/commands"
	"github.com/hostplane/hostplane/cmd/hostplane/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(handlers.ExitCode(err))
	}
}

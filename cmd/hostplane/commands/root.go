// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the hostplane CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hostplane",
		Short:         "Provision and verify a web-application host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Verify())
	cmd.AddCommand(Renew())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

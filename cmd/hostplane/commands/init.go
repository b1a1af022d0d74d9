package commands

import (
	"github.com/spf13/cobra"

	"github.com/hostplane/hostplane/cmd/hostplane/handlers"
)

// Init returns the command that creates a host configuration file, either
// through the interactive wizard or from a non-interactive template.
func Init() *cobra.Command {
	var outputPath string
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a host configuration file",
		Long: `Create a hostplane.yaml in the current directory.

On an interactive terminal this runs a short wizard; with
--non-interactive (or without a TTY) a commented template is written
instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, nonInteractive)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (default: hostplane.yaml)")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Write a template without running the wizard")

	return cmd
}

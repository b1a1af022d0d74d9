package commands

import (
	"github.com/spf13/cobra"

	"github.com/hostplane/hostplane/cmd/hostplane/handlers"
)

// Verify returns the command that re-runs verification against the
// persisted deployment state. Read-only and safe to run at any time.
func Verify() *cobra.Command {
	var jsonOutput bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the deployed host against its declared topology",
		Long: `Probe the running system and report readiness.

Verification uses the topology persisted by the last deploy, so no
configuration file is needed. Exit code 2 indicates a failed check.

Examples:
  hostplane verify
  hostplane verify --json
  hostplane verify --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), watch, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&watch, "watch", false, "Continuously re-verify in a live view")

	return cmd
}

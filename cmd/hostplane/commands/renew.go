package commands

import (
	"github.com/spf13/cobra"

	"github.com/hostplane/hostplane/cmd/hostplane/handlers"
)

// Renew returns the command invoked by the generated systemd timer to
// renew zone certificates that are within the renewal window.
func Renew() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Renew zone certificates that are close to expiry",
		Long: `Renew certificates within the renewal window (30 days before expiry).

This command is invoked daily by the hostplane-renew timer; running it
manually is safe and a no-op unless a certificate is due. Renewed pairs
replace the live files atomically, so the proxy never observes a partial
write.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Renew(cmd.Context())
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/hostplane/hostplane/cmd/hostplane/handlers"
)

// Deploy returns the command that runs the provisioning pipeline.
//
// Optional flags:
//
//	--config, -c: Path to host configuration YAML (default: hostplane.yaml)
//	--phase:      Run a single phase instead of the full pipeline
//
// Flags overriding the configuration file:
//
//	--mode, --domain, --cert-strategy, --monitoring
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run the provisioning pipeline",
		Long: `Provision the host: certificates, reverse proxy, firewall and services.

Phases run in a fixed order (prerequisites, configuration,
serviceactivation, verification) and every step is idempotent, so deploy
can be re-run safely after fixing a failure.

Examples:
  # Full pipeline using hostplane.yaml in the current directory
  hostplane deploy

  # Full pipeline with a specific config
  hostplane deploy -c production.yaml

  # Re-run a single phase
  hostplane deploy --phase configuration

  # Override the exposure mode from the command line
  hostplane deploy --mode wan --domain login.example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: hostplane.yaml)")
	cmd.Flags().StringVar(&opts.Phase, "phase", "", "Run only the named phase")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Override exposure mode (lan, wan, hybrid)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "Override public domain")
	cmd.Flags().StringVar(&opts.CertStrategy, "cert-strategy", "", "Override certificate strategy (selfsigned, localca, acme)")
	cmd.Flags().StringVar(&opts.Monitoring, "monitoring", "", "Override monitoring level (basic, full)")

	return cmd
}

package config

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/hostplane/hostplane/internal/util/netutil"
)

// RunWizard runs the interactive setup wizard and returns the resulting
// Intent. Used when no config file exists and stdin is a terminal.
func RunWizard(ctx context.Context) (*Intent, error) {
	intent := &Intent{
		Mode:         ModeLAN,
		CertStrategy: StrategyLocalCA,
		ACMEProvider: ProviderLetsEncrypt,
		Monitoring:   MonitoringBasic,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Mode]().
				Title("Network exposure").
				Description("lan: local network only | wan: internet-facing | hybrid: both").
				Options(
					huh.NewOption("LAN only", ModeLAN),
					huh.NewOption("WAN (internet-facing)", ModeWAN),
					huh.NewOption("Hybrid (LAN + WAN)", ModeHybrid),
				).
				Value(&intent.Mode),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("LAN subnet").
				Description("CIDR of the local network this host serves").
				Placeholder("192.168.1.0/24").
				Value(&intent.LANSubnet).
				Validate(validateCIDR),

			huh.NewInput().
				Title("LAN server IP").
				Description("This host's address inside the LAN subnet").
				Placeholder("192.168.1.10").
				Value(&intent.LANServerIP).
				Validate(validateIP),

			huh.NewInput().
				Title("LAN interface").
				Placeholder("eth0").
				Value(&intent.LANInterface),
		).WithHideFunc(func() bool {
			return intent.Mode == ModeWAN
		}),

		huh.NewGroup(
			huh.NewInput().
				Title("Public domain").
				Description("DNS name pointing at this host").
				Placeholder("app.example.com").
				Value(&intent.Domain).
				Validate(validateWizardDomain),

			huh.NewInput().
				Title("WAN interface").
				Placeholder("eth0").
				Value(&intent.WANInterface),
		).WithHideFunc(func() bool {
			return intent.Mode == ModeLAN
		}),

		huh.NewGroup(
			huh.NewSelect[CertStrategy]().
				Title("Certificate strategy").
				Description("ACME requires the host to be reachable from the internet").
				Options(
					huh.NewOption("Local CA (trusted after importing the CA cert)", StrategyLocalCA),
					huh.NewOption("Self-signed", StrategySelfSigned),
					huh.NewOption("ACME (publicly trusted)", StrategyACME),
				).
				Value(&intent.CertStrategy),
		),

		huh.NewGroup(
			huh.NewSelect[ACMEProvider]().
				Title("ACME provider").
				Options(
					huh.NewOption("Let's Encrypt", ProviderLetsEncrypt),
					huh.NewOption("ZeroSSL", ProviderZeroSSL),
				).
				Value(&intent.ACMEProvider),

			huh.NewInput().
				Title("ACME account email").
				Description("Expiry notices go here. Defaults to admin@<domain>.").
				Placeholder("admin@example.com").
				Value(&intent.ACMEEmail),
		).WithHideFunc(func() bool {
			return intent.CertStrategy != StrategyACME
		}),

		huh.NewGroup(
			huh.NewSelect[MonitoringLevel]().
				Title("Monitoring depth").
				Options(
					huh.NewOption("Basic (liveness + certificate checks)", MonitoringBasic),
					huh.NewOption("Full (adds Prometheus textfile metrics)", MonitoringFull),
				).
				Value(&intent.Monitoring),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}

	intent.ApplyDefaults()
	return intent, nil
}

func validateCIDR(s string) error {
	if s == "" {
		return nil // required-ness depends on mode, checked at resolve time
	}
	if _, _, err := net.ParseCIDR(s); err != nil {
		return fmt.Errorf("not a valid CIDR (e.g. 192.168.1.0/24)")
	}
	return nil
}

func validateIP(s string) error {
	if s == "" {
		return nil
	}
	if net.ParseIP(s) == nil {
		return fmt.Errorf("not a valid IP address")
	}
	return nil
}

func validateWizardDomain(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !netutil.ValidDomain(s) {
		return fmt.Errorf("not a valid domain name")
	}
	return nil
}

package provisioning

import (
	"fmt"

	"github.com/hostplane/hostplane/internal/system"
)

// ServiceActivationPhase loads the firewall ruleset and brings every
// required service up. Steps are restart-if-changed: an unchanged artifact
// triggers no service action, so re-running after a clean deploy performs
// no effective OS mutation.
type ServiceActivationPhase struct{}

// NewServiceActivationPhase creates the phase.
func NewServiceActivationPhase() *ServiceActivationPhase { return &ServiceActivationPhase{} }

// Name implements Phase.
func (p *ServiceActivationPhase) Name() string { return "serviceactivation" }

// Provision implements Phase.
func (p *ServiceActivationPhase) Provision(ctx *Context) error {
	systemd := system.Systemd{Run: ctx.Runner}
	nft := system.Nftables{Run: ctx.Runner}
	nginx := system.Nginx{Run: ctx.Runner}

	// Firewall first, so services come up behind the final rules.
	if ctx.State.FirewallChanged || !nft.TableActive(ctx) {
		if err := nft.Check(ctx, ctx.Layout.NftablesPath); err != nil {
			return fmt.Errorf("nftables ruleset rejected: %w", err)
		}
		if err := nft.Apply(ctx, ctx.Layout.NftablesPath); err != nil {
			return fmt.Errorf("failed to load nftables ruleset: %w", err)
		}
		ctx.Observer.Printf("[serviceactivation] firewall ruleset loaded")
	}

	if ctx.State.UnitsChanged {
		if err := systemd.DaemonReload(ctx); err != nil {
			return fmt.Errorf("daemon-reload failed: %w", err)
		}
	}

	services := []string{"hostplane-app", "hostplane-stream", "fail2ban"}
	for _, svc := range services {
		if err := systemd.EnableNow(ctx, svc); err != nil {
			return fmt.Errorf("failed to start %s: %w", svc, err)
		}
	}

	// Validate the proxy config before touching nginx.
	if err := nginx.TestConfig(ctx); err != nil {
		return fmt.Errorf("nginx configuration rejected: %w", err)
	}
	if err := systemd.EnableNow(ctx, "nginx"); err != nil {
		return fmt.Errorf("failed to start nginx: %w", err)
	}
	if ctx.State.VhostsChanged {
		if err := systemd.Reload(ctx, "nginx"); err != nil {
			return fmt.Errorf("failed to reload nginx: %w", err)
		}
		ctx.Observer.Printf("[serviceactivation] nginx reloaded with new vhosts")
	}

	if ctx.Topology.HasWAN() {
		if err := systemd.EnableNow(ctx, "hostplane-renew.timer"); err != nil {
			return fmt.Errorf("failed to enable renewal timer: %w", err)
		}
	}

	return nil
}

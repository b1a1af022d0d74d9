package provisioning

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/synth"
	"github.com/hostplane/hostplane/internal/system"
	"github.com/hostplane/hostplane/internal/units"
	"github.com/hostplane/hostplane/internal/util/atomicfile"
)

// ConfigurationPhase provisions zone certificates and synthesizes every
// configuration artifact: nginx vhosts, the nftables ruleset, fail2ban
// jails and systemd units. All writes are write-if-different, so an
// unchanged topology produces zero filesystem mutation.
type ConfigurationPhase struct{}

// NewConfigurationPhase creates the phase.
func NewConfigurationPhase() *ConfigurationPhase { return &ConfigurationPhase{} }

// Name implements Phase.
func (p *ConfigurationPhase) Name() string { return "configuration" }

// Provision implements Phase.
func (p *ConfigurationPhase) Provision(ctx *Context) error {
	if err := p.provisionZones(ctx); err != nil {
		return err
	}

	routes, rulesets, err := synth.Synthesize(ctx.Topology, ctx.ActiveZones())
	if err != nil {
		// An InvariantViolation is a logic defect; surface it untouched.
		return err
	}
	ctx.State.Routes = routes
	ctx.State.Rulesets = rulesets

	if err := p.writeProxyConfigs(ctx); err != nil {
		return err
	}
	if err := p.writeFirewallConfigs(ctx); err != nil {
		return err
	}
	if err := p.writeUnits(ctx); err != nil {
		return err
	}
	return nil
}

// provisionZones provisions certificates LAN-first. A zone failure is
// isolated unless it is the only requested zone.
func (p *ConfigurationPhase) provisionZones(ctx *Context) error {
	zones := certs.ZonesFor(ctx.Topology, ctx.Layout.CertsDir())
	ctx.State.Zones = zones

	// On a re-deploy nginx already owns port 80, so the HTTP-01 solver
	// cannot bind it; the installed WAN vhost forwards challenges to the
	// loopback port instead.
	if ctx.Certs.HTTP01Addr == "" && (system.Systemd{Run: ctx.Runner}).IsActive(ctx, "nginx") {
		ctx.Certs.HTTP01Addr = fmt.Sprintf("127.0.0.1:%d", certs.HTTP01ProxyPort)
	}

	for _, zone := range zones {
		if err := ctx.Certs.Provision(ctx, ctx.Topology, zone); err != nil {
			ctx.State.FailedZones[zone.ID] = err
			ctx.Observer.Event(Event{
				Type:     EventZoneFailed,
				Phase:    p.Name(),
				Resource: string(zone.ID),
				Message:  err.Error(),
			})
			continue
		}
		ctx.Observer.Event(Event{
			Type:     EventZoneProvisioned,
			Phase:    p.Name(),
			Resource: string(zone.ID),
			Message:  fmt.Sprintf("%s certificate ready", zone.Strategy),
		})
	}

	if len(ctx.ActiveZones()) == 0 {
		for _, err := range ctx.State.FailedZones {
			return fmt.Errorf("no zone could be provisioned: %w", err)
		}
		return fmt.Errorf("topology yields no certificate zones")
	}
	return nil
}

// writeProxyConfigs installs one vhost file per synthesized route.
func (p *ConfigurationPhase) writeProxyConfigs(ctx *Context) error {
	if err := os.MkdirAll(ctx.Layout.NginxDir, 0o755); err != nil {
		return fmt.Errorf("failed to create nginx directory: %w", err)
	}
	for _, route := range ctx.State.Routes {
		path := filepath.Join(ctx.Layout.NginxDir, synth.NginxFileName(route))
		changed, err := atomicfile.WriteFileIfChanged(path, synth.RenderNginx(route), 0o644)
		if err != nil {
			return fmt.Errorf("failed to write vhost for zone %s: %w", route.Zone, err)
		}
		ctx.State.VhostsChanged = ctx.State.VhostsChanged || changed
		logResource(ctx.Observer, p.Name(), path, changed)
	}
	return nil
}

// writeFirewallConfigs installs the nftables ruleset and the fail2ban jail
// catalogue. The jail catalogue is merged alongside the synthesized rules,
// never substituted for them.
func (p *ConfigurationPhase) writeFirewallConfigs(ctx *Context) error {
	if err := os.MkdirAll(filepath.Dir(ctx.Layout.NftablesPath), 0o755); err != nil {
		return fmt.Errorf("failed to create nftables directory: %w", err)
	}
	changed, err := atomicfile.WriteFileIfChanged(ctx.Layout.NftablesPath, synth.RenderNftables(ctx.State.Rulesets), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write nftables ruleset: %w", err)
	}
	ctx.State.FirewallChanged = changed
	logResource(ctx.Observer, p.Name(), ctx.Layout.NftablesPath, changed)

	if err := os.MkdirAll(filepath.Dir(ctx.Layout.Fail2banJailPath), 0o755); err != nil {
		return fmt.Errorf("failed to create fail2ban directory: %w", err)
	}
	jailChanged, err := atomicfile.WriteFileIfChanged(ctx.Layout.Fail2banJailPath, synth.RenderFail2banJail(synth.IntrusionJails()), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write fail2ban jails: %w", err)
	}
	ctx.State.FirewallChanged = ctx.State.FirewallChanged || jailChanged
	logResource(ctx.Observer, p.Name(), ctx.Layout.Fail2banJailPath, jailChanged)

	if err := os.MkdirAll(ctx.Layout.Fail2banFilterDir, 0o755); err != nil {
		return fmt.Errorf("failed to create fail2ban filter directory: %w", err)
	}
	for name, content := range synth.Fail2banFilters() {
		path := filepath.Join(ctx.Layout.Fail2banFilterDir, name)
		filterChanged, err := atomicfile.WriteFileIfChanged(path, content, 0o644)
		if err != nil {
			return fmt.Errorf("failed to write fail2ban filter %s: %w", name, err)
		}
		ctx.State.FirewallChanged = ctx.State.FirewallChanged || filterChanged
	}
	return nil
}

// writeUnits installs the application supervision units and, when the
// topology has a WAN surface, the renewal service/timer pair.
func (p *ConfigurationPhase) writeUnits(ctx *Context) error {
	if err := os.MkdirAll(ctx.Layout.SystemdDir, 0o755); err != nil {
		return fmt.Errorf("failed to create systemd directory: %w", err)
	}

	all := units.AppUnits("/opt/hostplane")
	var rendered []struct {
		name string
		data []byte
	}
	for _, u := range all {
		rendered = append(rendered, struct {
			name string
			data []byte
		}{u.Name, u.Render()})
	}

	if ctx.Topology.HasWAN() {
		service, timer := units.RenewalUnits(ctx.BinaryPath)
		rendered = append(rendered,
			struct {
				name string
				data []byte
			}{service.Name, service.Render()},
			struct {
				name string
				data []byte
			}{timer.Name, timer.Render()},
		)
	}

	for _, unit := range rendered {
		path := filepath.Join(ctx.Layout.SystemdDir, unit.name)
		changed, err := atomicfile.WriteFileIfChanged(path, unit.data, 0o644)
		if err != nil {
			return fmt.Errorf("failed to write unit %s: %w", unit.name, err)
		}
		ctx.State.UnitsChanged = ctx.State.UnitsChanged || changed
		logResource(ctx.Observer, p.Name(), path, changed)
	}
	return nil
}

// Package verify probes the deployed host and reports whether it matches
// the declared topology. Every check is independent, individually
// reportable, and read-only, so verification can re-run at any time.
package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/synth"
	"github.com/hostplane/hostplane/internal/system"
	"github.com/hostplane/hostplane/internal/topology"
	"github.com/hostplane/hostplane/internal/util/netutil"
)

// ExpiryWarnWindow is how close to expiry a certificate may get before
// verification warns. The renewal timer renews at 30 days out, so reaching
// 7 days means renewal has been failing for weeks.
const ExpiryWarnWindow = 7 * 24 * time.Hour

// Status is the verdict of one check or of the whole report.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one independent verification result. Immutable once recorded.
type Check struct {
	Name   string `yaml:"name"`
	Zone   string `yaml:"zone,omitempty"`
	Status Status `yaml:"status"`
	Detail string `yaml:"detail,omitempty"`

	// Hint carries a deterministic remediation suggestion, when one exists.
	Hint string `yaml:"hint,omitempty"`
}

// ReadinessReport aggregates all checks. Overall is fail if any check
// fails, else warn if any warns, else pass.
type ReadinessReport struct {
	Checks      []Check   `yaml:"checks"`
	Overall     Status    `yaml:"overall"`
	GeneratedAt time.Time `yaml:"generatedAt"`
}

// Failed reports whether any check failed.
func (r *ReadinessReport) Failed() bool { return r.Overall == StatusFail }

// Engine runs verification checks against the live host.
type Engine struct {
	Run system.Runner
	Now func() time.Time

	// NginxDir and NftablesPath locate the synthesized artifacts on disk.
	NginxDir     string
	NftablesPath string
}

// NewEngine creates an Engine probing the real host.
func NewEngine(nginxDir, nftablesPath string) *Engine {
	return &Engine{
		Run:          system.ExecRunner{},
		Now:          time.Now,
		NginxDir:     nginxDir,
		NftablesPath: nftablesPath,
	}
}

// Verify runs every check the topology requires and aggregates the report.
func (e *Engine) Verify(ctx context.Context, t *topology.Topology, zones []*certs.Zone, routes []synth.ProxyRoute, rulesets []synth.FirewallRuleSet) *ReadinessReport {
	var checks []Check

	checks = append(checks, e.checkInterfaces(t)...)
	checks = append(checks, e.checkCertificates(zones)...)
	checks = append(checks, e.checkProxy(ctx, routes)...)
	checks = append(checks, e.checkFirewall(ctx, rulesets)...)
	checks = append(checks, e.checkServices(ctx, t)...)

	report := &ReadinessReport{
		Checks:      checks,
		Overall:     StatusPass,
		GeneratedAt: e.Now().UTC(),
	}
	for _, c := range checks {
		switch c.Status {
		case StatusFail:
			report.Overall = StatusFail
		case StatusWarn:
			if report.Overall != StatusFail {
				report.Overall = StatusWarn
			}
		}
	}
	return report
}

// checkInterfaces verifies interface existence and address assignment.
func (e *Engine) checkInterfaces(t *topology.Topology) []Check {
	var checks []Check

	if t.HasLAN() {
		check := Check{Name: "lan interface", Zone: string(topology.ZoneLAN)}
		has, err := netutil.InterfaceHasAddress(t.LANInterface, t.LANServerIP)
		switch {
		case err != nil:
			check.Status = StatusFail
			check.Detail = err.Error()
			check.Hint = fmt.Sprintf("check that interface %s exists (ip link show)", t.LANInterface)
		case !has:
			check.Status = StatusFail
			check.Detail = fmt.Sprintf("%s does not carry %s", t.LANInterface, t.LANServerIP)
			check.Hint = fmt.Sprintf("assign the address: ip addr add %s dev %s", t.LANServerIP, t.LANInterface)
		default:
			check.Status = StatusPass
			check.Detail = fmt.Sprintf("%s carries %s", t.LANInterface, t.LANServerIP)
		}
		checks = append(checks, check)
	}

	if t.HasWAN() {
		check := Check{Name: "wan interface", Zone: string(topology.ZoneWAN)}
		if netutil.InterfaceExists(t.WANInterface) {
			check.Status = StatusPass
			check.Detail = t.WANInterface + " exists"
		} else {
			check.Status = StatusFail
			check.Detail = fmt.Sprintf("interface %s not found", t.WANInterface)
		}
		checks = append(checks, check)
	}

	return checks
}

// checkCertificates verifies parseability and expiry horizon per zone.
func (e *Engine) checkCertificates(zones []*certs.Zone) []Check {
	now := e.Now()
	var checks []Check

	for _, zone := range zones {
		check := Check{Name: "certificate", Zone: string(zone.ID)}
		info, err := certs.Inspect(zone.CertPath)
		switch {
		case err != nil:
			check.Status = StatusFail
			check.Detail = err.Error()
			check.Hint = "re-run `hostplane deploy --phase configuration` to reissue"
		case now.After(info.NotAfter):
			check.Status = StatusFail
			check.Detail = fmt.Sprintf("expired %s", info.NotAfter.Format(time.RFC3339))
			check.Hint = "run `hostplane renew`"
		case now.After(info.NotAfter.Add(-ExpiryWarnWindow)):
			check.Status = StatusWarn
			check.Detail = fmt.Sprintf("expires in %s", info.NotAfter.Sub(now).Round(time.Hour))
			check.Hint = "renewal appears stalled; run `hostplane renew` and check its output"
		default:
			check.Status = StatusPass
			check.Detail = fmt.Sprintf("valid until %s", info.NotAfter.Format("2006-01-02"))
		}
		checks = append(checks, check)
	}

	return checks
}

// checkProxy verifies nginx config validity and that installed vhosts match
// the synthesized routes.
func (e *Engine) checkProxy(ctx context.Context, routes []synth.ProxyRoute) []Check {
	checks := []Check{}

	configCheck := Check{Name: "proxy config"}
	if err := (system.Nginx{Run: e.Run}).TestConfig(ctx); err != nil {
		configCheck.Status = StatusFail
		configCheck.Detail = err.Error()
		configCheck.Hint = "nginx -t shows the offending directive"
	} else {
		configCheck.Status = StatusPass
		configCheck.Detail = "nginx configuration test passed"
	}
	checks = append(checks, configCheck)

	for _, route := range routes {
		check := Check{Name: "proxy route", Zone: string(route.Zone)}
		path := filepath.Join(e.NginxDir, synth.NginxFileName(route))
		installed, err := os.ReadFile(path) // #nosec G304
		switch {
		case err != nil:
			check.Status = StatusFail
			check.Detail = fmt.Sprintf("vhost file missing: %v", err)
			check.Hint = "re-run `hostplane deploy --phase configuration`"
		case string(installed) != string(synth.RenderNginx(route)):
			check.Status = StatusFail
			check.Detail = "installed vhost differs from synthesized route"
			check.Hint = "re-run `hostplane deploy --phase configuration` to reconcile"
		default:
			check.Status = StatusPass
			check.Detail = "vhost matches synthesized route"
		}
		checks = append(checks, check)
	}

	return checks
}

// checkFirewall verifies the ruleset is loaded and every synthesized allow
// rule is present in the live table.
func (e *Engine) checkFirewall(ctx context.Context, rulesets []synth.FirewallRuleSet) []Check {
	nft := system.Nftables{Run: e.Run}

	activeCheck := Check{Name: "firewall active"}
	active, loadErr := nft.ActiveRules(ctx)
	if loadErr != nil {
		activeCheck.Status = StatusFail
		activeCheck.Detail = "hostplane nftables table is not loaded"
		activeCheck.Hint = "re-run `hostplane deploy --phase serviceactivation`"
	} else {
		activeCheck.Status = StatusPass
		activeCheck.Detail = "hostplane nftables table loaded"
	}
	checks := []Check{activeCheck}

	// Per-zone rule checks stay individually reportable even with the table
	// absent: no table means no zone's rules are live.
	for _, rs := range rulesets {
		check := Check{Name: "firewall rules", Zone: string(rs.Zone)}
		if loadErr != nil {
			check.Status = StatusFail
			check.Detail = "table not loaded, no rules active"
			check.Hint = "re-apply the ruleset: nft -f " + e.NftablesPath
		} else if missing := missingAllowRules(rs, active); len(missing) > 0 {
			check.Status = StatusFail
			check.Detail = "missing allow rules: " + strings.Join(missing, "; ")
			check.Hint = "re-apply the ruleset: nft -f " + e.NftablesPath
		} else {
			check.Status = StatusPass
			check.Detail = fmt.Sprintf("all %d rules present", len(rs.Rules))
		}
		checks = append(checks, check)
	}

	return checks
}

// missingAllowRules returns descriptions of allow rules absent from the
// live listing. Matching is on port/source since nft normalizes formatting.
func missingAllowRules(rs synth.FirewallRuleSet, active string) []string {
	var missing []string
	for _, rule := range rs.Rules {
		if rule.Action != synth.ActionAllow || rule.Port == 0 {
			continue
		}
		needle := fmt.Sprintf("dport %d", rule.Port)
		if !strings.Contains(active, needle) {
			missing = append(missing, fmt.Sprintf("port %d (%s)", rule.Port, rule.Comment))
		}
	}
	return missing
}

// checkServices verifies liveness of every service the topology requires.
func (e *Engine) checkServices(ctx context.Context, t *topology.Topology) []Check {
	systemd := system.Systemd{Run: e.Run}

	required := []string{"nginx", "fail2ban", "hostplane-app", "hostplane-stream"}
	if t.HasWAN() {
		required = append(required, "hostplane-renew.timer")
	}

	var checks []Check
	for _, unit := range required {
		check := Check{Name: "service " + unit}
		if systemd.IsActive(ctx, unit) {
			check.Status = StatusPass
			check.Detail = "active"
		} else {
			check.Status = StatusFail
			check.Detail = "not active"
			check.Hint = "systemctl status " + unit
		}
		checks = append(checks, check)
	}
	return checks
}

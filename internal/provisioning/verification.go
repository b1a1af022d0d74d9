package provisioning

import (
	"fmt"

	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/state"
	"github.com/hostplane/hostplane/internal/synth"
	"github.com/hostplane/hostplane/internal/verify"
)

// VerificationPhase probes the deployed host, records the readiness report
// and persists deployment state. The phase itself succeeds whenever
// verification ran; a failing report is surfaced by the caller through the
// exit code, since verification is read-only and must not halt like a
// mutating phase failure does.
type VerificationPhase struct{}

// NewVerificationPhase creates the phase.
func NewVerificationPhase() *VerificationPhase { return &VerificationPhase{} }

// Name implements Phase.
func (p *VerificationPhase) Name() string { return "verification" }

// Provision implements Phase.
func (p *VerificationPhase) Provision(ctx *Context) error {
	if len(ctx.State.Zones) == 0 {
		if err := p.restorePersisted(ctx); err != nil {
			return err
		}
	}

	engine := verify.NewEngine(ctx.Layout.NginxDir, ctx.Layout.NftablesPath)
	engine.Run = ctx.Runner

	report := engine.Verify(ctx, ctx.Topology, ctx.ActiveZones(), ctx.State.Routes, ctx.State.Rulesets)

	// Zones that failed provisioning are reported as failed checks so a
	// hybrid host with a broken WAN still shows its LAN surface passing.
	for id, zoneErr := range ctx.State.FailedZones {
		report.Checks = append(report.Checks, verify.Check{
			Name:   "certificate",
			Zone:   string(id),
			Status: verify.StatusFail,
			Detail: zoneErr.Error(),
			Hint:   "fix the cause and re-run `hostplane deploy`",
		})
		report.Overall = verify.StatusFail
	}

	ctx.State.Report = report

	if err := state.Save(ctx.Layout, &state.State{
		Topology:   ctx.Topology,
		Zones:      ctx.State.Zones,
		LastReport: report,
	}); err != nil {
		return fmt.Errorf("failed to persist deployment state: %w", err)
	}

	if ctx.Topology.Monitoring == config.MonitoringFull {
		if err := WriteMetrics(ctx); err != nil {
			ctx.Observer.Printf("warning: failed to write metrics textfile: %v", err)
		}
	}

	ctx.Observer.Printf("[verification] overall: %s (%d checks)", report.Overall, len(report.Checks))
	return nil
}

// restorePersisted rehydrates zone metadata and the synthesized artifacts
// from the last recorded deployment, so verification runs as a standalone
// phase without wiping what a full deploy persisted.
func (p *VerificationPhase) restorePersisted(ctx *Context) error {
	persisted, err := state.Load(ctx.Layout)
	if err != nil {
		// Nothing recorded yet; verify whatever the pipeline produced.
		return nil
	}
	routes, rulesets, err := synth.Synthesize(ctx.Topology, persisted.Zones)
	if err != nil {
		return err
	}
	ctx.State.Zones = persisted.Zones
	ctx.State.Routes = routes
	ctx.State.Rulesets = rulesets
	return nil
}

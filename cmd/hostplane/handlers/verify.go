package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/hostplane/hostplane/internal/state"
	"github.com/hostplane/hostplane/internal/synth"
	"github.com/hostplane/hostplane/internal/ui/tui"
	"github.com/hostplane/hostplane/internal/verify"
)

// Verify re-runs verification against the persisted deployment state.
func Verify(ctx context.Context, watch, jsonOutput bool) error {
	layout := state.DefaultLayout()
	return verifyWithLayout(ctx, layout, watch, jsonOutput)
}

func verifyWithLayout(ctx context.Context, layout state.Layout, watch, jsonOutput bool) error {
	persisted, err := state.Load(layout)
	if err != nil {
		return fmt.Errorf("no deployment state found (run `hostplane deploy` first): %w", err)
	}

	// Re-synthesize expected artifacts from the persisted topology; the
	// synthesis is deterministic, so this reproduces what deploy installed.
	routes, rulesets, err := synth.Synthesize(persisted.Topology, persisted.Zones)
	if err != nil {
		return err
	}

	engine := verify.NewEngine(layout.NginxDir, layout.NftablesPath)
	runReport := func() *verify.ReadinessReport {
		return engine.Verify(ctx, persisted.Topology, persisted.Zones, routes, rulesets)
	}

	if watch && !jsonOutput && isInteractiveTTY() {
		return tui.RunVerifyWatch(ctx, runReport)
	}

	report := runReport()

	persisted.LastReport = report
	if err := state.Save(layout, persisted); err != nil {
		return fmt.Errorf("failed to persist readiness report: %w", err)
	}

	if jsonOutput {
		out, err := verify.RenderJSON(report)
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		fmt.Print(renderReport(report, isInteractiveTTY()))
	}

	if report.Failed() {
		failed := 0
		for _, c := range report.Checks {
			if c.Status == verify.StatusFail {
				failed++
			}
		}
		return &VerificationError{FailedChecks: failed}
	}
	return nil
}

// renderReport picks styled or plain rendering.
func renderReport(report *verify.ReadinessReport, styled bool) string {
	if styled {
		return verify.RenderStyled(report)
	}
	return verify.RenderPlain(report)
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/provisioning"
	"github.com/hostplane/hostplane/internal/state"
	"github.com/hostplane/hostplane/internal/topology"
	"github.com/hostplane/hostplane/internal/verify"
)

// DeployOptions carries the deploy command's flags.
type DeployOptions struct {
	ConfigPath   string
	Phase        string
	Mode         string
	Domain       string
	CertStrategy string
	Monitoring   string

	// Layout overrides the filesystem layout; zero value means production
	// paths. Used by tests.
	Layout *state.Layout
}

// Deploy runs the provisioning pipeline (or a single phase of it).
func Deploy(ctx context.Context, opts DeployOptions) error {
	intent, err := loadIntent(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyOverrides(intent, opts)

	topo, err := topology.Resolve(intent)
	if err != nil {
		return err
	}

	layout := state.DefaultLayout()
	if opts.Layout != nil {
		layout = *opts.Layout
	}

	binary, err := os.Executable()
	if err != nil {
		binary = "/usr/local/bin/hostplane"
	}

	pctx := provisioning.NewContext(ctx, topo, layout, binary)

	phases := provisioning.DefaultPhases()
	if opts.Phase != "" {
		phase, err := phaseByName(phases, opts.Phase)
		if err != nil {
			return err
		}
		phases = []provisioning.Phase{phase}
	}

	if _, err := provisioning.RunPhases(pctx, phases); err != nil {
		return err
	}

	return reportOutcome(pctx.State.Report)
}

// reportOutcome maps the readiness report onto the process outcome: a
// failing report yields exit code 2 even though every phase succeeded.
func reportOutcome(report *verify.ReadinessReport) error {
	if report == nil {
		return nil
	}
	fmt.Print(renderReport(report, isInteractiveTTY()))
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

// loadIntent loads the Intent from the config file, falling back to the
// default file name.
func loadIntent(path string) (*config.Intent, error) {
	if path == "" {
		path = config.DefaultConfigFile
	}
	intent, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config (run `hostplane init` to create one): %w", err)
	}
	return intent, nil
}

// applyOverrides layers command-line flags over the loaded Intent.
func applyOverrides(intent *config.Intent, opts DeployOptions) {
	if opts.Mode != "" {
		intent.Mode = config.Mode(opts.Mode)
	}
	if opts.Domain != "" {
		intent.Domain = opts.Domain
	}
	if opts.CertStrategy != "" {
		intent.CertStrategy = config.CertStrategy(opts.CertStrategy)
	}
	if opts.Monitoring != "" {
		intent.Monitoring = config.MonitoringLevel(opts.Monitoring)
	}
	intent.ApplyDefaults()
}

// phaseByName finds a phase by its name.
func phaseByName(phases []provisioning.Phase, name string) (provisioning.Phase, error) {
	for _, p := range phases {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown phase %q (prerequisites, configuration, serviceactivation, verification)", name)
}

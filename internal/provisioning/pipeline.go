package provisioning

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPhases returns the full pipeline in its fixed order.
func DefaultPhases() []Phase {
	return []Phase{
		NewPrerequisitesPhase(),
		NewConfigurationPhase(),
		NewServiceActivationPhase(),
		NewVerificationPhase(),
	}
}

// RunPhases executes phases sequentially, producing one PhaseRecord each.
// A phase runs only if every previous record reached success; the first
// failure halts the pipeline and is returned as a PhaseExecutionError
// alongside the records accumulated so far.
func RunPhases(ctx *Context, phases []Phase) ([]PhaseRecord, error) {
	start := time.Now()
	logRef := deployLogRef(ctx, start)
	records := make([]PhaseRecord, 0, len(phases))

	ctx.Observer.Printf("Starting deployment with %d phases...", len(phases))

	for i, phase := range phases {
		record := PhaseRecord{
			PhaseName: phase.Name(),
			StartedAt: time.Now(),
			Status:    StatusRunning,
			LogRef:    logRef,
		}
		logPhaseStart(ctx.Observer, fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases)))

		err := phase.Provision(ctx)
		completed := time.Now()
		record.CompletedAt = &completed

		if err != nil {
			record.Status = StatusFailed
			record.Error = err.Error()
			records = append(records, record)
			logPhaseFailed(ctx.Observer, phase.Name(), err)
			writeDeployLog(ctx, logRef, records)
			return records, &PhaseExecutionError{Phase: phase.Name(), Err: err}
		}

		record.Status = StatusSuccess
		records = append(records, record)
		logPhaseComplete(ctx.Observer, phase.Name(), record.Duration())
	}

	writeDeployLog(ctx, logRef, records)
	ctx.Observer.Printf("Deployment completed in %v", time.Since(start).Round(time.Millisecond))
	return records, nil
}

// deployLogRef names the structured deployment log for this run.
func deployLogRef(ctx *Context, start time.Time) string {
	return filepath.Join(ctx.Layout.LogDir(), "deploy-"+start.UTC().Format("20060102-150405")+".yaml")
}

// writeDeployLog persists the per-run structured log. Log failures are
// reported but never fail the pipeline.
func writeDeployLog(ctx *Context, path string, records []PhaseRecord) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		ctx.Observer.Printf("warning: failed to create log directory: %v", err)
		return
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		ctx.Observer.Printf("warning: failed to marshal deployment log: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306
		ctx.Observer.Printf("warning: failed to write deployment log: %v", err)
	}
}

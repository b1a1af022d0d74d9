// Package provisioning sequences deployment into ordered, idempotent
// phases: Prerequisites → Configuration → ServiceActivation → Verification.
//
// A phase may only run after the previous phase's record reached success.
// On failure the pipeline halts and leaves partially-applied state; every
// step is install-if-absent / write-if-different / restart-if-changed, so a
// re-run after a fix converges to the same end state.
package provisioning

import (
	"fmt"
	"time"
)

// Phase is one step of the deployment pipeline.
type Phase interface {
	// Name returns the phase name used in records and logs.
	Name() string

	// Provision executes the phase against the shared context.
	Provision(ctx *Context) error
}

// PhaseStatus is the lifecycle state of a phase record.
type PhaseStatus string

const (
	StatusPending PhaseStatus = "pending"
	StatusRunning PhaseStatus = "running"
	StatusSuccess PhaseStatus = "success"
	StatusFailed  PhaseStatus = "failed"
)

// PhaseRecord tracks one phase execution. Created at phase start, mutated
// only by the orchestrator, terminal once success or failed.
type PhaseRecord struct {
	PhaseName   string      `yaml:"phase"`
	StartedAt   time.Time   `yaml:"startedAt"`
	CompletedAt *time.Time  `yaml:"completedAt,omitempty"`
	Status      PhaseStatus `yaml:"status"`
	Error       string      `yaml:"error,omitempty"`
	LogRef      string      `yaml:"logRef,omitempty"`
}

// Duration returns the phase wall time, zero while still running.
func (r *PhaseRecord) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// PhaseExecutionError halts the pipeline: phases are strictly ordered, so a
// failed phase invalidates everything after it.
type PhaseExecutionError struct {
	Phase string
	Err   error
}

// Error implements the error interface.
func (e *PhaseExecutionError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

// Unwrap supports errors.Is/As against the cause.
func (e *PhaseExecutionError) Unwrap() error { return e.Err }

// Package system wraps the host commands the pipeline drives: systemd,
// nftables and the nginx binary. All OS interaction goes through the Runner
// interface so phases and verification can run against a fake in tests.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes host commands.
type Runner interface {
	// Run executes name with args and returns combined output. A non-zero
	// exit status is returned as an error wrapping the output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath reports where name resolves in PATH.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands on the real host.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 - command names come from fixed call sites, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// LookPath implements Runner.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Package handlers implements the command execution logic behind the CLI.
package handlers

import (
	"errors"
	"fmt"
)

// VerificationError signals that deployment (or re-verification) completed
// but the readiness report contains failing checks. It maps to exit code 2,
// distinct from a phase failure's exit code 1.
type VerificationError struct {
	FailedChecks int
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %d check(s) failing", e.FailedChecks)
}

// ExitCode maps a handler error to the process exit code:
// 0 full success, 1 a phase failed, 2 verification failed.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var verr *VerificationError
	if errors.As(err, &verr) {
		return 2
	}
	return 1
}

package certs

import (
	"errors"
	"fmt"

	"github.com/hostplane/hostplane/internal/topology"
)

// ErrValidationUnreachable indicates that ACME domain validation cannot
// succeed because the topology has no WAN-reachable surface.
var ErrValidationUnreachable = errors.New("acme validation unreachable: topology has no WAN surface")

// ProvisionError wraps a per-zone provisioning failure. Zone failures are
// isolated: a failing WAN zone never blocks a LAN zone.
type ProvisionError struct {
	Zone ZoneRef
	Err  error
}

// ZoneRef identifies the failing zone and strategy for error reporting.
type ZoneRef struct {
	ID       topology.ZoneID
	Strategy string
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	return fmt.Sprintf("failed to provision %s certificate (%s): %v", e.Zone.ID, e.Zone.Strategy, e.Err)
}

// Unwrap supports errors.Is/As against the underlying cause.
func (e *ProvisionError) Unwrap() error { return e.Err }

func provisionErr(z *Zone, err error) *ProvisionError {
	return &ProvisionError{
		Zone: ZoneRef{ID: z.ID, Strategy: string(z.Strategy)},
		Err:  err,
	}
}

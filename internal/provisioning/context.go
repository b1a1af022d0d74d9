package provisioning

import (
	"context"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/state"
	"github.com/hostplane/hostplane/internal/synth"
	"github.com/hostplane/hostplane/internal/system"
	"github.com/hostplane/hostplane/internal/topology"
	"github.com/hostplane/hostplane/internal/verify"
)

// State holds the shared results of pipeline phases. It is progressively
// populated as each phase completes and is passed to subsequent phases.
type State struct {
	// Certificate results (populated by the Configuration phase).
	Zones       []*certs.Zone
	FailedZones map[topology.ZoneID]error

	// Synthesis results (populated by the Configuration phase).
	Routes   []synth.ProxyRoute
	Rulesets []synth.FirewallRuleSet

	// Changed-ness flags driving restart-if-changed activation.
	VhostsChanged   bool
	FirewallChanged bool
	UnitsChanged    bool

	// Verification result (populated by the Verification phase).
	Report *verify.ReadinessReport
}

// NewState creates an empty pipeline state.
func NewState() *State {
	return &State{
		FailedZones: make(map[topology.ZoneID]error),
	}
}

// Context wraps all dependencies and state needed by a pipeline phase.
type Context struct {
	context.Context
	Topology *topology.Topology
	Layout   state.Layout
	State    *State
	Runner   system.Runner
	Certs    *certs.Provisioner
	Observer Observer

	// BinaryPath is the installed hostplane binary, referenced by the
	// generated renewal unit.
	BinaryPath string
}

// NewContext creates a pipeline context for a resolved topology.
func NewContext(ctx context.Context, t *topology.Topology, layout state.Layout, binaryPath string) *Context {
	provisioner := certs.NewProvisioner(layout.CertsDir())
	observer := NewConsoleObserver()
	provisioner.Logf = observer.Printf

	return &Context{
		Context:    ctx,
		Topology:   t,
		Layout:     layout,
		State:      NewState(),
		Runner:     system.ExecRunner{},
		Certs:      provisioner,
		Observer:   observer,
		BinaryPath: binaryPath,
	}
}

// ActiveZones returns the zones that provisioned successfully, preserving
// LAN-before-WAN order.
func (c *Context) ActiveZones() []*certs.Zone {
	var zones []*certs.Zone
	for _, z := range c.State.Zones {
		if _, failed := c.State.FailedZones[z.ID]; !failed {
			zones = append(zones, z)
		}
	}
	return zones
}

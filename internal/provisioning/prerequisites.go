package provisioning

import (
	"fmt"
	"os"
	"strings"
)

// requiredTool is a host binary the pipeline depends on.
type requiredTool struct {
	name        string
	description string
}

// requiredTools lists the binaries every deployment needs. Package
// installation itself is out of scope; the phase only verifies presence.
var requiredTools = []requiredTool{
	{name: "nginx", description: "reverse proxy"},
	{name: "nft", description: "firewall ruleset loader"},
	{name: "fail2ban-server", description: "intrusion prevention"},
	{name: "systemctl", description: "service supervision"},
}

// PrerequisitesPhase verifies required tools and creates the state
// directory tree. Pure checks plus mkdir; re-running is a no-op.
type PrerequisitesPhase struct{}

// NewPrerequisitesPhase creates the phase.
func NewPrerequisitesPhase() *PrerequisitesPhase { return &PrerequisitesPhase{} }

// Name implements Phase.
func (p *PrerequisitesPhase) Name() string { return "prerequisites" }

// Provision implements Phase.
func (p *PrerequisitesPhase) Provision(ctx *Context) error {
	var missing []string
	for _, tool := range requiredTools {
		if _, err := ctx.Runner.LookPath(tool.name); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.name, tool.description))
			continue
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s; install them and re-run", strings.Join(missing, ", "))
	}

	for _, dir := range []string{ctx.Layout.BaseDir, ctx.Layout.CertsDir(), ctx.Layout.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	ctx.Observer.Printf("[prerequisites] all %d required tools present", len(requiredTools))
	return nil
}

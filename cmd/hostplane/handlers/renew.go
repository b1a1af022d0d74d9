package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/state"
	"github.com/hostplane/hostplane/internal/system"
)

// Renew renews every zone certificate inside its renewal window and reloads
// the proxy if anything was reissued. Invoked daily by the generated timer.
func Renew(ctx context.Context) error {
	layout := state.DefaultLayout()
	return renewWithLayout(ctx, layout, system.ExecRunner{})
}

func renewWithLayout(ctx context.Context, layout state.Layout, runner system.Runner) error {
	persisted, err := state.Load(layout)
	if err != nil {
		return fmt.Errorf("no deployment state found, nothing to renew: %w", err)
	}

	prov := certs.NewProvisioner(layout.CertsDir())
	// nginx owns :80 at this point; its vhosts forward ACME challenges to
	// the loopback solver port.
	prov.HTTP01Addr = fmt.Sprintf("127.0.0.1:%d", certs.HTTP01ProxyPort)
	prov.Logf = log.Printf

	var renewed int
	var firstErr error
	for _, zone := range persisted.Zones {
		did, err := prov.Renew(ctx, persisted.Topology, zone)
		if err != nil {
			log.Printf("[renew] %s: %v", zone.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if did {
			log.Printf("[renew] %s: certificate renewed, expires %s", zone.ID, zone.NotAfter.Format("2006-01-02"))
			renewed++
		}
	}

	if renewed > 0 {
		// Pick up the new pair without dropping connections.
		sysd := system.Systemd{Run: runner}
		if err := sysd.Reload(ctx, "nginx"); err != nil {
			return fmt.Errorf("certificates renewed but nginx reload failed: %w", err)
		}
	}

	if err := state.Save(layout, persisted); err != nil {
		return fmt.Errorf("failed to persist renewal state: %w", err)
	}

	if firstErr != nil {
		return fmt.Errorf("renewal incomplete: %w", firstErr)
	}
	if renewed == 0 {
		log.Printf("[renew] all certificates outside the renewal window, nothing to do")
	}
	return nil
}

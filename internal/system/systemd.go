package system

import (
	"context"
	"strings"
)

// Systemd drives the process supervisor through a Runner.
type Systemd struct {
	Run Runner
}

// DaemonReload makes systemd pick up new or changed unit files.
func (s Systemd) DaemonReload(ctx context.Context) error {
	_, err := s.Run.Run(ctx, "systemctl", "daemon-reload")
	return err
}

// EnableNow enables a unit and starts it. Idempotent: systemctl treats an
// already enabled/active unit as success.
func (s Systemd) EnableNow(ctx context.Context, unit string) error {
	_, err := s.Run.Run(ctx, "systemctl", "enable", "--now", unit)
	return err
}

// Restart restarts a unit.
func (s Systemd) Restart(ctx context.Context, unit string) error {
	_, err := s.Run.Run(ctx, "systemctl", "restart", unit)
	return err
}

// Reload asks a unit to reload its configuration (nginx reload).
func (s Systemd) Reload(ctx context.Context, unit string) error {
	_, err := s.Run.Run(ctx, "systemctl", "reload", unit)
	return err
}

// IsActive reports whether a unit is currently active.
func (s Systemd) IsActive(ctx context.Context, unit string) bool {
	out, err := s.Run.Run(ctx, "systemctl", "is-active", unit)
	return err == nil && strings.TrimSpace(string(out)) == "active"
}

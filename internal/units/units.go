// Package units builds systemd unit definitions as typed values and
// serializes them once, so the supervision surface is derived from the same
// topology as everything else instead of being interpolated text.
package units

import (
	"fmt"
	"sort"
	"strings"
)

// Unit is a systemd service definition.
type Unit struct {
	Name        string // file name, e.g. "hostplane-app.service"
	Description string
	After       []string
	ExecStart   string
	WorkingDir  string
	Environment map[string]string
	Restart     string
	User        string
	WantedBy    string
}

// Timer is a systemd timer definition paired with a service of the same stem.
type Timer struct {
	Name        string // file name, e.g. "hostplane-renew.timer"
	Description string
	OnCalendar  string
	Persistent  bool
}

// Render serializes a service unit.
func (u Unit) Render() []byte {
	var b strings.Builder

	b.WriteString("# Managed by hostplane. Manual edits are overwritten.\n")
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", u.Description)
	for _, a := range u.After {
		fmt.Fprintf(&b, "After=%s\n", a)
	}

	b.WriteString("\n[Service]\n")
	if u.User != "" {
		fmt.Fprintf(&b, "User=%s\n", u.User)
	}
	if u.WorkingDir != "" {
		fmt.Fprintf(&b, "WorkingDirectory=%s\n", u.WorkingDir)
	}

	keys := make([]string, 0, len(u.Environment))
	for k := range u.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "Environment=%s=%s\n", k, u.Environment[k])
	}

	fmt.Fprintf(&b, "ExecStart=%s\n", u.ExecStart)
	restart := u.Restart
	if restart == "" {
		restart = "on-failure"
	}
	fmt.Fprintf(&b, "Restart=%s\n", restart)
	b.WriteString("RestartSec=5\n")

	wantedBy := u.WantedBy
	if wantedBy == "" {
		wantedBy = "multi-user.target"
	}
	fmt.Fprintf(&b, "\n[Install]\nWantedBy=%s\n", wantedBy)

	return []byte(b.String())
}

// Render serializes a timer unit.
func (t Timer) Render() []byte {
	var b strings.Builder

	b.WriteString("# Managed by hostplane. Manual edits are overwritten.\n")
	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", t.Description)

	b.WriteString("\n[Timer]\n")
	fmt.Fprintf(&b, "OnCalendar=%s\n", t.OnCalendar)
	if t.Persistent {
		b.WriteString("Persistent=true\n")
	}

	b.WriteString("\n[Install]\nWantedBy=timers.target\n")
	return []byte(b.String())
}

// AppUnits returns the supervision units for the web application itself.
func AppUnits(workDir string) []Unit {
	return []Unit{
		{
			Name:        "hostplane-app.service",
			Description: "hostplane web application server",
			After:       []string{"network-online.target"},
			ExecStart:   workDir + "/bin/app --listen 127.0.0.1:8080",
			WorkingDir:  workDir,
			Environment: map[string]string{"APP_ENV": "production"},
			User:        "www-data",
		},
		{
			Name:        "hostplane-stream.service",
			Description: "hostplane streaming gateway",
			After:       []string{"network-online.target", "hostplane-app.service"},
			ExecStart:   workDir + "/bin/app --listen 127.0.0.1:8081 --stream",
			WorkingDir:  workDir,
			Environment: map[string]string{"APP_ENV": "production"},
			User:        "www-data",
		},
	}
}

// RenewalUnits returns the service/timer pair driving out-of-band
// certificate renewal. Present only when the topology has a WAN surface.
func RenewalUnits(binaryPath string) (Unit, Timer) {
	service := Unit{
		Name:        "hostplane-renew.service",
		Description: "hostplane certificate renewal",
		After:       []string{"network-online.target"},
		ExecStart:   binaryPath + " renew",
		Restart:     "no",
		WantedBy:    "multi-user.target",
	}
	timer := Timer{
		Name:        "hostplane-renew.timer",
		Description: "Daily hostplane certificate renewal check",
		OnCalendar:  "daily",
		Persistent:  true,
	}
	return service, timer
}

// Package state persists the resolved topology, zone certificate metadata
// and the last readiness report, so verification and renewal can run
// without re-deriving operator intent.
package state

import "path/filepath"

// Layout fixes every path the pipeline writes. Tests point BaseDir and the
// system directories at a temp root.
type Layout struct {
	// BaseDir holds hostplane's own state (default /var/lib/hostplane).
	BaseDir string
	// NginxDir receives one vhost file per zone.
	NginxDir string
	// NftablesPath is the generated firewall ruleset file.
	NftablesPath string
	// Fail2banJailPath is the generated jail.local.
	Fail2banJailPath string
	// Fail2banFilterDir receives custom filter definitions.
	Fail2banFilterDir string
	// SystemdDir receives generated unit files.
	SystemdDir string
	// MetricsPath is the node_exporter textfile for deployment metrics.
	MetricsPath string
}

// DefaultLayout returns the production filesystem layout.
func DefaultLayout() Layout {
	return Layout{
		BaseDir:           "/var/lib/hostplane",
		NginxDir:          "/etc/nginx/conf.d",
		NftablesPath:      "/etc/nftables.d/hostplane.nft",
		Fail2banJailPath:  "/etc/fail2ban/jail.d/hostplane.local",
		Fail2banFilterDir: "/etc/fail2ban/filter.d",
		SystemdDir:        "/etc/systemd/system",
		MetricsPath:       "/var/lib/node_exporter/textfile/hostplane.prom",
	}
}

// CertsDir is where zone certificates live.
func (l Layout) CertsDir() string {
	return filepath.Join(l.BaseDir, "certs")
}

// StatePath is the persisted state file.
func (l Layout) StatePath() string {
	return filepath.Join(l.BaseDir, "state.yaml")
}

// LogDir holds per-run deployment logs.
func (l Layout) LogDir() string {
	return filepath.Join(l.BaseDir, "logs")
}

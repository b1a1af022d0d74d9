// Package certs provisions and renews per-zone TLS certificates.
//
// Three strategies are supported: self-signed, a host-local CA, and ACME
// against a public certificate authority. The strategy is matched
// exhaustively here and nowhere else; downstream components only see the
// resulting Zone metadata and file paths.
package certs

import (
	"fmt"
	"time"

	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/topology"
)

// Default validity and renewal windows.
const (
	// SelfSignedValidity is the fixed validity of self-signed certificates.
	SelfSignedValidity = 365 * 24 * time.Hour
	// LocalCAValidity is the validity of the bootstrapped local CA root.
	LocalCAValidity = 10 * 365 * 24 * time.Hour
	// LocalLeafValidity is the validity of leaves issued by the local CA.
	LocalLeafValidity = 825 * 24 * time.Hour
	// RenewBefore is how long before expiry a certificate becomes due for
	// renewal. Renewal earlier than this is a no-op.
	RenewBefore = 30 * 24 * time.Hour
)

// Zone is one topology-scoped certificate surface. Mutated only by the
// Provisioner; renewed in place via atomic file replacement.
type Zone struct {
	ID       topology.ZoneID     `yaml:"id"`
	Strategy config.CertStrategy `yaml:"strategy"`
	Provider config.ACMEProvider `yaml:"provider,omitempty"`

	// SubjectNames are the DNS names and IP addresses the certificate
	// must cover.
	SubjectNames []string `yaml:"subjectNames"`

	CertPath string `yaml:"certPath"`
	KeyPath  string `yaml:"keyPath"`

	// ACMEEmail is the account contact for ACME zones.
	ACMEEmail string `yaml:"acmeEmail,omitempty"`

	// IssuedAt and NotAfter describe the currently installed certificate.
	// Zero until the first successful provision.
	IssuedAt time.Time `yaml:"issuedAt,omitempty"`
	NotAfter time.Time `yaml:"notAfter,omitempty"`
}

// DueForRenewal reports whether the zone's certificate is within the
// renewal window at the given instant.
func (z *Zone) DueForRenewal(now time.Time) bool {
	if z.NotAfter.IsZero() {
		return true
	}
	return now.After(z.NotAfter.Add(-RenewBefore))
}

// ZonesFor derives the certificate zones for a topology. LAN precedes WAN,
// matching provisioning order.
func ZonesFor(t *topology.Topology, dir string) []*Zone {
	var zones []*Zone

	if t.HasLAN() {
		strategy := t.CertStrategy
		if strategy == config.StrategyACME {
			// ACME cannot validate a private address; the LAN surface of a
			// hybrid host falls back to the local CA.
			strategy = config.StrategyLocalCA
		}
		zones = append(zones, &Zone{
			ID:           topology.ZoneLAN,
			Strategy:     strategy,
			SubjectNames: lanSubjectNames(t),
			CertPath:     fmt.Sprintf("%s/lan/server.crt", dir),
			KeyPath:      fmt.Sprintf("%s/lan/server.key", dir),
		})
	}

	if t.HasWAN() {
		zones = append(zones, &Zone{
			ID:           topology.ZoneWAN,
			Strategy:     t.CertStrategy,
			Provider:     t.ACMEProvider,
			SubjectNames: []string{t.WANDomain},
			ACMEEmail:    t.WANACMEEmail,
			CertPath:     fmt.Sprintf("%s/wan/server.crt", dir),
			KeyPath:      fmt.Sprintf("%s/wan/server.key", dir),
		})
	}

	return zones
}

// lanSubjectNames returns every name a LAN client might use to reach the
// host: the LAN address, loopback aliases, and the domain if one exists.
func lanSubjectNames(t *topology.Topology) []string {
	names := []string{t.LANServerIP, "localhost", "127.0.0.1"}
	if t.WANDomain != "" {
		names = append([]string{t.WANDomain}, names...)
	}
	return names
}

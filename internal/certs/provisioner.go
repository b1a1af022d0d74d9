package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/topology"
	"github.com/hostplane/hostplane/internal/util/atomicfile"
)

// Provisioner obtains and renews zone certificates. The zero value is not
// usable; construct with NewProvisioner.
type Provisioner struct {
	// Dir is the certificate root directory (zones live in subdirectories).
	Dir string

	// Now is the clock, overridable in tests.
	Now func() time.Time

	// DirectoryURL overrides the ACME directory for all providers.
	// Used by tests to point at a stub ACME server.
	DirectoryURL string

	// HTTP01Addr is where the HTTP-01 solver listens. Empty means ":80"
	// (initial issuance); the renewal path sets a loopback port that the
	// proxy forwards challenges to.
	HTTP01Addr string

	// Logf receives progress messages. Never nil.
	Logf func(format string, v ...interface{})
}

// NewProvisioner creates a Provisioner rooted at dir.
func NewProvisioner(dir string) *Provisioner {
	return &Provisioner{
		Dir:  dir,
		Now:  time.Now,
		Logf: func(string, ...interface{}) {},
	}
}

// Provision ensures the zone's certificate exists, covers its subject
// names, and is outside the renewal window. Re-invoking on a valid,
// non-expiring certificate is a no-op.
func (p *Provisioner) Provision(ctx context.Context, t *topology.Topology, zone *Zone) error {
	if fresh, err := p.reuseExisting(zone); err != nil {
		return provisionErr(zone, err)
	} else if fresh {
		p.Logf("[certs] %s: certificate valid until %s, skipping", zone.ID, zone.NotAfter.Format(time.RFC3339))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(zone.CertPath), 0o755); err != nil {
		return provisionErr(zone, fmt.Errorf("failed to create zone directory: %w", err))
	}

	switch zone.Strategy {
	case config.StrategySelfSigned:
		if err := p.provisionSelfSigned(zone); err != nil {
			return provisionErr(zone, err)
		}
	case config.StrategyLocalCA:
		if err := p.provisionLocalCA(zone); err != nil {
			return provisionErr(zone, err)
		}
	case config.StrategyACME:
		if !t.HasWAN() {
			return provisionErr(zone, ErrValidationUnreachable)
		}
		if err := p.provisionACME(ctx, zone); err != nil {
			return provisionErr(zone, err)
		}
	default:
		return provisionErr(zone, fmt.Errorf("unknown certificate strategy %q", zone.Strategy))
	}

	info, err := Inspect(zone.CertPath)
	if err != nil {
		return provisionErr(zone, fmt.Errorf("issued certificate does not parse back: %w", err))
	}
	zone.IssuedAt = info.NotBefore
	zone.NotAfter = info.NotAfter
	p.Logf("[certs] %s: issued %s certificate, expires %s", zone.ID, zone.Strategy, info.NotAfter.Format(time.RFC3339))
	return nil
}

// Renew re-provisions the zone only if it is due. Safe to run concurrently
// with a pipeline run: the live cert/key pair is only ever replaced
// atomically.
func (p *Provisioner) Renew(ctx context.Context, t *topology.Topology, zone *Zone) (bool, error) {
	if !zone.DueForRenewal(p.Now()) {
		return false, nil
	}
	// Force reissue by ignoring the installed certificate.
	forced := *zone
	forced.NotAfter = time.Time{}
	if err := p.Provision(ctx, t, &forced); err != nil {
		return false, err
	}
	zone.IssuedAt = forced.IssuedAt
	zone.NotAfter = forced.NotAfter
	return true, nil
}

// reuseExisting reports whether the installed certificate already satisfies
// the zone and refreshes zone metadata from it.
func (p *Provisioner) reuseExisting(zone *Zone) (bool, error) {
	if _, err := os.Stat(zone.CertPath); os.IsNotExist(err) {
		return false, nil
	}
	if _, err := os.Stat(zone.KeyPath); os.IsNotExist(err) {
		return false, nil
	}
	info, err := Inspect(zone.CertPath)
	if err != nil {
		// Unparsable certificate: reissue rather than fail.
		p.Logf("[certs] %s: installed certificate unreadable (%v), reissuing", zone.ID, err)
		return false, nil
	}
	if !info.Covers(zone.SubjectNames) {
		return false, nil
	}
	zone.IssuedAt = info.NotBefore
	zone.NotAfter = info.NotAfter
	if zone.DueForRenewal(p.Now()) {
		return false, nil
	}
	return true, nil
}

// installPair atomically installs the certificate/key pair for a zone.
func installPair(zone *Zone, certPEM, keyPEM []byte) error {
	return atomicfile.WritePair(zone.CertPath, certPEM, zone.KeyPath, keyPEM)
}

// newLeafKey generates the private key used for all locally issued leaves.
func newLeafKey() (*ecdsa.PrivateKey, []byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return key, keyPEM, nil
}

// newSerial returns a random 128-bit certificate serial.
func newSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}
	return serial, nil
}

// splitSubjectNames separates DNS names from IP addresses for SAN fields.
func splitSubjectNames(names []string) (dns []string, ips []net.IP) {
	for _, n := range names {
		if ip := net.ParseIP(n); ip != nil {
			ips = append(ips, ip)
			continue
		}
		dns = append(dns, n)
	}
	return dns, ips
}

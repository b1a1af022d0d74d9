package certs

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// caCertName and caKeyName are the on-disk names of the host-local CA pair.
const (
	caCertName = "ca.crt"
	caKeyName  = "ca.key"
)

// provisionLocalCA ensures the host-local CA exists (bootstrapped once,
// idempotent) and issues a multi-SAN leaf for the zone.
func (p *Provisioner) provisionLocalCA(zone *Zone) error {
	caCert, caKey, err := p.ensureCA()
	if err != nil {
		return fmt.Errorf("failed to bootstrap local CA: %w", err)
	}

	key, keyPEM, err := newLeafKey()
	if err != nil {
		return err
	}
	serial, err := newSerial()
	if err != nil {
		return err
	}

	dns, ips := splitSubjectNames(zone.SubjectNames)
	now := p.Now()

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName(zone),
			Organization: []string{"hostplane"},
		},
		NotBefore:   now.Add(-5 * time.Minute),
		NotAfter:    now.Add(LocalLeafValidity),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    dns,
		IPAddresses: ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, &key.PublicKey, caKey)
	if err != nil {
		return fmt.Errorf("failed to sign leaf certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	return installPair(zone, certPEM, keyPEM)
}

// CACertPath returns the path of the local CA certificate so operators can
// distribute it to LAN clients.
func (p *Provisioner) CACertPath() string {
	return filepath.Join(p.Dir, "ca", caCertName)
}

// ensureCA loads the local CA, bootstrapping it on first use. Re-invocation
// with an existing CA pair is a pure read.
func (p *Provisioner) ensureCA() (*x509.Certificate, *ecdsa.PrivateKey, error) {
	caDir := filepath.Join(p.Dir, "ca")
	certPath := filepath.Join(caDir, caCertName)
	keyPath := filepath.Join(caDir, caKeyName)

	if cert, key, err := loadCA(certPath, keyPath); err == nil {
		return cert, key, nil
	} else if !os.IsNotExist(err) {
		return nil, nil, err
	}

	p.Logf("[certs] bootstrapping local CA at %s", certPath)
	if err := os.MkdirAll(caDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create CA directory: %w", err)
	}

	key, keyPEM, err := newLeafKey()
	if err != nil {
		return nil, nil, err
	}
	serial, err := newSerial()
	if err != nil {
		return nil, nil, err
	}

	now := p.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "hostplane local CA",
			Organization: []string{"hostplane"},
		},
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              now.Add(LocalCAValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return nil, nil, fmt.Errorf("failed to write CA key: %w", err)
	}
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil { // #nosec G306
		return nil, nil, fmt.Errorf("failed to write CA certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}
	return cert, key, nil
}

// loadCA reads an existing CA pair. Returns os.ErrNotExist-wrapped errors
// when either half is missing.
func loadCA(certPath, keyPath string) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	certData, err := os.ReadFile(certPath) // #nosec G304
	if err != nil {
		return nil, nil, err
	}
	keyData, err := os.ReadFile(keyPath) // #nosec G304
	if err != nil {
		return nil, nil, err
	}

	certBlock, _ := pem.Decode(certData)
	if certBlock == nil {
		return nil, nil, fmt.Errorf("CA certificate at %s is not valid PEM", certPath)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	keyBlock, _ := pem.Decode(keyData)
	if keyBlock == nil {
		return nil, nil, fmt.Errorf("CA key at %s is not valid PEM", keyPath)
	}
	key, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA key: %w", err)
	}

	return cert, key, nil
}

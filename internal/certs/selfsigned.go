package certs

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"time"
)

// provisionSelfSigned generates a key and a self-signed certificate for the
// zone. Fully offline; always succeeds given valid subject names.
func (p *Provisioner) provisionSelfSigned(zone *Zone) error {
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
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              now.Add(SelfSignedValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dns,
		IPAddresses:           ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	return installPair(zone, certPEM, keyPEM)
}

// commonName picks the certificate CN: the first DNS subject name, falling
// back to the first name of any kind.
func commonName(zone *Zone) string {
	dns, _ := splitSubjectNames(zone.SubjectNames)
	if len(dns) > 0 {
		return dns[0]
	}
	if len(zone.SubjectNames) > 0 {
		return zone.SubjectNames[0]
	}
	return "hostplane"
}

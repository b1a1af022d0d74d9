package certs

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"sort"
	"time"
)

// CertInfo is the parsed metadata of an installed certificate.
type CertInfo struct {
	SubjectNames []string // DNS names and IP SANs, sorted
	Issuer       string
	NotBefore    time.Time
	NotAfter     time.Time
	SelfSigned   bool
}

// Inspect parses the PEM certificate at path and returns its metadata.
func Inspect(path string) (*CertInfo, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	return InspectPEM(data)
}

// InspectPEM parses the first certificate in a PEM bundle.
func InspectPEM(data []byte) (*CertInfo, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no PEM certificate block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	names := make([]string, 0, len(cert.DNSNames)+len(cert.IPAddresses))
	names = append(names, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		names = append(names, ip.String())
	}
	sort.Strings(names)

	return &CertInfo{
		SubjectNames: names,
		Issuer:       cert.Issuer.CommonName,
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		SelfSigned:   cert.Issuer.CommonName == cert.Subject.CommonName,
	}, nil
}

// Covers reports whether the certificate covers every requested name.
func (ci *CertInfo) Covers(names []string) bool {
	have := make(map[string]bool, len(ci.SubjectNames))
	for _, n := range ci.SubjectNames {
		have[n] = true
	}
	for _, n := range names {
		if !have[n] {
			return false
		}
	}
	return true
}

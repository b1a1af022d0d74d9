package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/acme"

	"github.com/hostplane/hostplane/internal/config"
)

// Directory URLs of the supported ACME providers.
const (
	letsEncryptDirectory = "https://acme-v02.api.letsencrypt.org/directory"
	zeroSSLDirectory     = "https://acme.zerossl.com/v2/DV90"
)

// HTTP01ProxyPort is the loopback port the renewal-time solver listens on.
// The synthesized WAN vhost proxies /.well-known/acme-challenge/ here, so
// renewals work while nginx holds port 80. Initial issuance happens before
// the proxy is activated and binds port 80 directly.
const HTTP01ProxyPort = 8402

const defaultHTTP01Addr = ":80"

// acmeDirectoryURL returns the directory endpoint for a provider, honoring
// the test override.
func (p *Provisioner) acmeDirectoryURL(provider config.ACMEProvider) string {
	if p.DirectoryURL != "" {
		return p.DirectoryURL
	}
	if provider == config.ProviderZeroSSL {
		return zeroSSLDirectory
	}
	return letsEncryptDirectory
}

// provisionACME obtains a certificate for the zone via HTTP-01 domain
// validation.
func (p *Provisioner) provisionACME(ctx context.Context, zone *Zone) error {
	accountKey, err := p.ensureAccountKey()
	if err != nil {
		return err
	}

	client := &acme.Client{
		Key:          accountKey,
		DirectoryURL: p.acmeDirectoryURL(zone.Provider),
	}

	account := &acme.Account{}
	if zone.ACMEEmail != "" {
		account.Contact = []string{"mailto:" + zone.ACMEEmail}
	}
	if _, err := client.Register(ctx, account, acme.AcceptTOS); err != nil &&
		!errors.Is(err, acme.ErrAccountAlreadyExists) {
		return fmt.Errorf("acme registration failed: %w", err)
	}

	order, err := client.AuthorizeOrder(ctx, acme.DomainIDs(zone.SubjectNames...))
	if err != nil {
		return fmt.Errorf("acme order failed: %w", err)
	}

	addr := p.HTTP01Addr
	if addr == "" {
		addr = defaultHTTP01Addr
	}
	solver := newHTTP01Solver()
	if err := solver.start(addr); err != nil {
		return fmt.Errorf("failed to start HTTP-01 solver: %w", err)
	}
	defer solver.stop()

	for _, authzURL := range order.AuthzURLs {
		if err := p.solveAuthorization(ctx, client, solver, authzURL); err != nil {
			return err
		}
	}

	order, err = client.WaitOrder(ctx, order.URI)
	if err != nil {
		return fmt.Errorf("acme order did not become ready: %w", err)
	}

	key, keyPEM, err := newLeafKey()
	if err != nil {
		return err
	}
	csr, err := newCSR(key, zone.SubjectNames)
	if err != nil {
		return err
	}

	chain, _, err := client.CreateOrderCert(ctx, order.FinalizeURL, csr, true)
	if err != nil {
		return fmt.Errorf("acme finalization failed: %w", err)
	}

	var certPEM []byte
	for _, der := range chain {
		certPEM = append(certPEM, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}

	return installPair(zone, certPEM, keyPEM)
}

// solveAuthorization completes one HTTP-01 authorization.
func (p *Provisioner) solveAuthorization(ctx context.Context, client *acme.Client, solver *http01Solver, authzURL string) error {
	authz, err := client.GetAuthorization(ctx, authzURL)
	if err != nil {
		return fmt.Errorf("failed to fetch authorization: %w", err)
	}
	if authz.Status == acme.StatusValid {
		return nil
	}

	var challenge *acme.Challenge
	for _, c := range authz.Challenges {
		if c.Type == "http-01" {
			challenge = c
			break
		}
	}
	if challenge == nil {
		return fmt.Errorf("authorization %s offers no http-01 challenge", authzURL)
	}

	response, err := client.HTTP01ChallengeResponse(challenge.Token)
	if err != nil {
		return fmt.Errorf("failed to build challenge response: %w", err)
	}
	solver.set(client.HTTP01ChallengePath(challenge.Token), response)

	if _, err := client.Accept(ctx, challenge); err != nil {
		return fmt.Errorf("failed to accept challenge: %w", err)
	}
	if _, err := client.WaitAuthorization(ctx, authz.URI); err != nil {
		return fmt.Errorf("domain validation failed: %w", err)
	}
	return nil
}

// ensureAccountKey loads or creates the persistent ACME account key.
func (p *Provisioner) ensureAccountKey() (*ecdsa.PrivateKey, error) {
	keyPath := filepath.Join(p.Dir, "acme", "account.key")

	data, err := os.ReadFile(keyPath) // #nosec G304
	if err == nil {
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("acme account key at %s is not valid PEM", keyPath)
		}
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse acme account key: %w", err)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read acme account key: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate acme account key: %w", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal acme account key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create acme directory: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write acme account key: %w", err)
	}
	return key, nil
}

// newCSR builds a certificate signing request covering the subject names.
func newCSR(key *ecdsa.PrivateKey, names []string) ([]byte, error) {
	dns, ips := splitSubjectNames(names)
	if len(dns) == 0 {
		return nil, fmt.Errorf("acme subjects need at least one DNS name, got %v", names)
	}
	template := &x509.CertificateRequest{
		Subject:     pkix.Name{CommonName: dns[0]},
		DNSNames:    dns,
		IPAddresses: ips,
	}
	csr, err := x509.CreateCertificateRequest(rand.Reader, template, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSR: %w", err)
	}
	return csr, nil
}

// http01Solver serves ACME HTTP-01 challenge responses on port 80.
type http01Solver struct {
	mux    *http.ServeMux
	server *http.Server
}

func newHTTP01Solver() *http01Solver {
	return &http01Solver{mux: http.NewServeMux()}
}

func (s *http01Solver) set(path, response string) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(response))
	})
}

func (s *http01Solver) start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = s.server.Serve(listener)
	}()
	return nil
}

func (s *http01Solver) stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

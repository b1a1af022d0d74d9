package certs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/topology"
)

func lanTopology() *topology.Topology {
	return &topology.Topology{
		Mode:         config.ModeLAN,
		LANSubnet:    "192.168.1.0/24",
		LANServerIP:  "192.168.1.10",
		LANInterface: "eth0",
		CertStrategy: config.StrategyLocalCA,
		Monitoring:   config.MonitoringBasic,
	}
}

func hybridTopology() *topology.Topology {
	t := lanTopology()
	t.Mode = config.ModeHybrid
	t.WANDomain = "app.example.com"
	t.WANInterface = "eth1"
	t.WANACMEEmail = "admin@app.example.com"
	t.CertStrategy = config.StrategyACME
	t.ACMEProvider = config.ProviderLetsEncrypt
	return t
}

func TestZonesFor_LAN(t *testing.T) {
	t.Parallel()

	zones := ZonesFor(lanTopology(), "/certs")

	require.Len(t, zones, 1)
	z := zones[0]
	assert.Equal(t, topology.ZoneLAN, z.ID)
	assert.Equal(t, config.StrategyLocalCA, z.Strategy)
	assert.Equal(t, []string{"192.168.1.10", "localhost", "127.0.0.1"}, z.SubjectNames)
	assert.Equal(t, "/certs/lan/server.crt", z.CertPath)
	assert.Equal(t, "/certs/lan/server.key", z.KeyPath)
}

func TestZonesFor_Hybrid(t *testing.T) {
	t.Parallel()

	zones := ZonesFor(hybridTopology(), "/certs")

	require.Len(t, zones, 2)

	lan, wan := zones[0], zones[1]
	assert.Equal(t, topology.ZoneLAN, lan.ID)
	// ACME cannot validate private addresses, so the hybrid LAN surface
	// falls back to the local CA.
	assert.Equal(t, config.StrategyLocalCA, lan.Strategy)
	assert.Equal(t, []string{"app.example.com", "192.168.1.10", "localhost", "127.0.0.1"}, lan.SubjectNames)

	assert.Equal(t, topology.ZoneWAN, wan.ID)
	assert.Equal(t, config.StrategyACME, wan.Strategy)
	assert.Equal(t, config.ProviderLetsEncrypt, wan.Provider)
	assert.Equal(t, []string{"app.example.com"}, wan.SubjectNames)
	assert.Equal(t, "admin@app.example.com", wan.ACMEEmail)
}

func TestZone_DueForRenewal(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		notAfter time.Time
		due      bool
	}{
		{"never provisioned", time.Time{}, true},
		{"expires far out", now.Add(200 * 24 * time.Hour), false},
		{"inside the window", now.Add(10 * 24 * time.Hour), true},
		{"already expired", now.Add(-time.Hour), true},
		{"exactly at the boundary", now.Add(RenewBefore), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			z := &Zone{NotAfter: tt.notAfter}
			assert.Equal(t, tt.due, z.DueForRenewal(now))
		})
	}
}

func TestProvision_SelfSigned(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)

	topo := lanTopology()
	topo.CertStrategy = config.StrategySelfSigned
	zones := ZonesFor(topo, dir)

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))

	info, err := Inspect(zones[0].CertPath)
	require.NoError(t, err)
	assert.True(t, info.SelfSigned)
	assert.True(t, info.Covers(zones[0].SubjectNames))
	assert.WithinDuration(t, time.Now().Add(SelfSignedValidity), info.NotAfter, time.Hour)

	assert.False(t, zones[0].NotAfter.IsZero(), "zone metadata refreshed after issuance")

	keyInfo, err := os.Stat(zones[0].KeyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), keyInfo.Mode().Perm())
}

func TestProvision_LocalCA(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)

	topo := lanTopology()
	zones := ZonesFor(topo, dir)

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))

	info, err := Inspect(zones[0].CertPath)
	require.NoError(t, err)
	assert.False(t, info.SelfSigned, "leaf is signed by the CA, not itself")
	assert.Equal(t, "hostplane local CA", info.Issuer)
	assert.True(t, info.Covers(zones[0].SubjectNames))

	// The CA pair exists for distribution to LAN clients.
	caInfo, err := Inspect(prov.CACertPath())
	require.NoError(t, err)
	assert.True(t, caInfo.SelfSigned)
	assert.WithinDuration(t, time.Now().Add(LocalCAValidity), caInfo.NotAfter, time.Hour)
}

func TestProvision_LocalCA_BootstrapsOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)
	topo := lanTopology()
	zones := ZonesFor(topo, dir)

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))
	caBefore, err := os.ReadFile(prov.CACertPath())
	require.NoError(t, err)

	// Force a reissue; the CA itself must not be regenerated.
	zones[0].NotAfter = time.Time{}
	require.NoError(t, os.Remove(zones[0].CertPath))
	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))

	caAfter, err := os.ReadFile(prov.CACertPath())
	require.NoError(t, err)
	assert.Equal(t, caBefore, caAfter)
}

func TestProvision_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)
	topo := lanTopology()
	zones := ZonesFor(topo, dir)

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))
	certBefore, err := os.ReadFile(zones[0].CertPath)
	require.NoError(t, err)

	// Second run must not touch the valid certificate.
	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))
	certAfter, err := os.ReadFile(zones[0].CertPath)
	require.NoError(t, err)
	assert.Equal(t, certBefore, certAfter)
}

func TestProvision_ReissuesOnSubjectMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)
	topo := lanTopology()
	zones := ZonesFor(topo, dir)

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))
	certBefore, err := os.ReadFile(zones[0].CertPath)
	require.NoError(t, err)

	// The operator added a domain; the installed cert no longer covers it.
	zones[0].SubjectNames = append(zones[0].SubjectNames, "intranet.example.com")
	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))

	certAfter, err := os.ReadFile(zones[0].CertPath)
	require.NoError(t, err)
	assert.NotEqual(t, certBefore, certAfter)

	info, err := Inspect(zones[0].CertPath)
	require.NoError(t, err)
	assert.True(t, info.Covers(zones[0].SubjectNames))
}

func TestProvision_ReissuesUnparsableCert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)
	topo := lanTopology()
	zones := ZonesFor(topo, dir)

	require.NoError(t, os.MkdirAll(filepath.Dir(zones[0].CertPath), 0o755))
	require.NoError(t, os.WriteFile(zones[0].CertPath, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(zones[0].KeyPath, []byte("garbage"), 0o600))

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))

	info, err := Inspect(zones[0].CertPath)
	require.NoError(t, err)
	assert.True(t, info.Covers(zones[0].SubjectNames))
}

func TestProvision_ACMEWithoutWAN(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)
	topo := lanTopology()

	zone := &Zone{
		ID:           topology.ZoneLAN,
		Strategy:     config.StrategyACME,
		SubjectNames: []string{"app.example.com"},
		CertPath:     filepath.Join(dir, "lan", "server.crt"),
		KeyPath:      filepath.Join(dir, "lan", "server.key"),
	}

	err := prov.Provision(context.Background(), topo, zone)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationUnreachable)

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, topology.ZoneLAN, perr.Zone.ID)
}

func TestRenew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	prov := NewProvisioner(dir)
	topo := lanTopology()
	zones := ZonesFor(topo, dir)

	require.NoError(t, prov.Provision(context.Background(), topo, zones[0]))
	certBefore, err := os.ReadFile(zones[0].CertPath)
	require.NoError(t, err)

	// Outside the window: no-op.
	renewed, err := prov.Renew(context.Background(), topo, zones[0])
	require.NoError(t, err)
	assert.False(t, renewed)

	// Move the clock to inside the window: reissue.
	prov.Now = func() time.Time {
		return zones[0].NotAfter.Add(-RenewBefore + time.Hour)
	}
	renewed, err = prov.Renew(context.Background(), topo, zones[0])
	require.NoError(t, err)
	assert.True(t, renewed)

	certAfter, err := os.ReadFile(zones[0].CertPath)
	require.NoError(t, err)
	assert.NotEqual(t, certBefore, certAfter)
}

func TestNewCSR_RejectsIPOnlySubjects(t *testing.T) {
	t.Parallel()

	key, _, err := newLeafKey()
	require.NoError(t, err)

	_, err = newCSR(key, []string{"192.168.1.10", "127.0.0.1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DNS name")

	csr, err := newCSR(key, []string{"app.example.com", "192.168.1.10"})
	require.NoError(t, err)
	assert.NotEmpty(t, csr)
}

func TestInspectPEM_Garbage(t *testing.T) {
	t.Parallel()

	_, err := InspectPEM([]byte("not pem at all"))
	assert.Error(t, err)
}

package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostplane/hostplane/internal/config"
)

func lanIntent() *config.Intent {
	return &config.Intent{
		Mode:         config.ModeLAN,
		LANSubnet:    "192.168.1.0/24",
		LANServerIP:  "192.168.1.10",
		LANInterface: "eth0",
		CertStrategy: config.StrategyLocalCA,
		Monitoring:   config.MonitoringBasic,
	}
}

func wanIntent() *config.Intent {
	return &config.Intent{
		Mode:         config.ModeWAN,
		Domain:       "app.example.com",
		WANInterface: "eth0",
		CertStrategy: config.StrategyACME,
		ACMEProvider: config.ProviderLetsEncrypt,
		Monitoring:   config.MonitoringBasic,
	}
}

func hybridIntent() *config.Intent {
	intent := lanIntent()
	intent.Mode = config.ModeHybrid
	intent.Domain = "app.example.com"
	intent.WANInterface = "eth1"
	intent.CertStrategy = config.StrategyACME
	intent.ACMEProvider = config.ProviderLetsEncrypt
	return intent
}

func TestResolve_LAN(t *testing.T) {
	t.Parallel()

	topo, err := Resolve(lanIntent())

	require.NoError(t, err)
	assert.True(t, topo.HasLAN())
	assert.False(t, topo.HasWAN())
	assert.Equal(t, "192.168.1.0/24", topo.LANSubnet)
	assert.Equal(t, "192.168.1.10", topo.LANServerIP)
	assert.Empty(t, topo.WANDomain)
	assert.Equal(t, []ZoneID{ZoneLAN}, topo.Zones())
}

func TestResolve_WAN(t *testing.T) {
	t.Parallel()

	topo, err := Resolve(wanIntent())

	require.NoError(t, err)
	assert.False(t, topo.HasLAN())
	assert.True(t, topo.HasWAN())
	assert.Equal(t, "app.example.com", topo.WANDomain)
	assert.Equal(t, "admin@app.example.com", topo.WANACMEEmail)
	assert.Equal(t, []ZoneID{ZoneWAN}, topo.Zones())
}

func TestResolve_Hybrid_ZoneOrder(t *testing.T) {
	t.Parallel()

	topo, err := Resolve(hybridIntent())

	require.NoError(t, err)
	assert.True(t, topo.HasLAN())
	assert.True(t, topo.HasWAN())
	// LAN first so a WAN failure never blocks the LAN surface.
	assert.Equal(t, []ZoneID{ZoneLAN, ZoneWAN}, topo.Zones())
}

func TestResolve_DomainNormalized(t *testing.T) {
	t.Parallel()

	intent := wanIntent()
	intent.Domain = "  App.Example.COM "

	topo, err := Resolve(intent)

	require.NoError(t, err)
	assert.Equal(t, "app.example.com", topo.WANDomain)
}

func TestResolve_ExplicitEmailPreserved(t *testing.T) {
	t.Parallel()

	intent := wanIntent()
	intent.ACMEEmail = "ops@example.com"

	topo, err := Resolve(intent)

	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", topo.WANACMEEmail)
}

func TestResolve_InvalidIntents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Intent)
		intent func() *config.Intent
		field  string
	}{
		{
			name:   "missing mode",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.Mode = "" },
			field:  "mode",
		},
		{
			name:   "unknown mode",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.Mode = "mesh" },
			field:  "mode",
		},
		{
			name:   "lan without subnet",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.LANSubnet = "" },
			field:  "lanSubnet",
		},
		{
			name:   "lan with malformed subnet",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.LANSubnet = "192.168.1.0/240" },
			field:  "lanSubnet",
		},
		{
			name:   "lan without server IP",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.LANServerIP = "" },
			field:  "lanServerIp",
		},
		{
			name:   "server IP outside subnet",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.LANServerIP = "10.0.0.5" },
			field:  "lanServerIp",
		},
		{
			name:   "wan without domain",
			intent: wanIntent,
			mutate: func(in *config.Intent) { in.Domain = "" },
			field:  "domain",
		},
		{
			name:   "wan with invalid domain",
			intent: wanIntent,
			mutate: func(in *config.Intent) { in.Domain = "not a domain" },
			field:  "domain",
		},
		{
			name:   "acme on lan-only host",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.CertStrategy = config.StrategyACME },
			field:  "certStrategy",
		},
		{
			name:   "unknown cert strategy",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.CertStrategy = "vault" },
			field:  "certStrategy",
		},
		{
			name:   "unknown acme provider",
			intent: wanIntent,
			mutate: func(in *config.Intent) { in.ACMEProvider = "buypass" },
			field:  "acmeProvider",
		},
		{
			name:   "unknown monitoring level",
			intent: lanIntent,
			mutate: func(in *config.Intent) { in.Monitoring = "verbose" },
			field:  "monitoring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			intent := tt.intent()
			tt.mutate(intent)

			topo, err := Resolve(intent)

			require.Error(t, err)
			assert.Nil(t, topo)

			var ierr *InvalidIntentError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, tt.field, ierr.Field)
		})
	}
}

func TestResolve_IsPure(t *testing.T) {
	t.Parallel()

	intent := hybridIntent()

	first, err := Resolve(intent)
	require.NoError(t, err)
	second, err := Resolve(intent)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

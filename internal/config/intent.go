// Package config defines the operator Intent record and its loading paths:
// a YAML configuration file for non-interactive runs and an interactive
// wizard for first-time setup.
//
// Intent is raw operator input. It is not validated here beyond what the
// wizard enforces while typing; authoritative validation happens when the
// topology selector resolves the Intent into a Topology.
package config

// Mode is the network exposure model of the host.
type Mode string

const (
	// ModeLAN exposes the application on the local network only.
	ModeLAN Mode = "lan"
	// ModeWAN exposes the application on the public internet only.
	ModeWAN Mode = "wan"
	// ModeHybrid exposes the application on both surfaces.
	ModeHybrid Mode = "hybrid"
)

// CertStrategy selects how zone certificates are obtained.
type CertStrategy string

const (
	// StrategySelfSigned generates an untrusted certificate locally.
	StrategySelfSigned CertStrategy = "selfsigned"
	// StrategyLocalCA bootstraps a host-local CA and issues leaves from it.
	StrategyLocalCA CertStrategy = "localca"
	// StrategyACME obtains a publicly trusted certificate via domain validation.
	StrategyACME CertStrategy = "acme"
)

// ACMEProvider selects the ACME certificate authority endpoint.
type ACMEProvider string

const (
	ProviderLetsEncrypt ACMEProvider = "letsencrypt"
	ProviderZeroSSL     ACMEProvider = "zerossl"
)

// MonitoringLevel controls verification and metrics depth.
type MonitoringLevel string

const (
	// MonitoringBasic runs service liveness and certificate checks only.
	MonitoringBasic MonitoringLevel = "basic"
	// MonitoringFull additionally exports Prometheus textfile metrics.
	MonitoringFull MonitoringLevel = "full"
)

// Intent is the operator's declared deployment choice. It is resolved into
// an immutable Topology before any component acts on it.
type Intent struct {
	Mode Mode `yaml:"mode"`

	// LAN surface.
	LANSubnet    string `yaml:"lanSubnet,omitempty"`
	LANInterface string `yaml:"lanInterface,omitempty"`
	LANServerIP  string `yaml:"lanServerIp,omitempty"`

	// WAN surface.
	WANInterface string `yaml:"wanInterface,omitempty"`
	Domain       string `yaml:"domain,omitempty"`

	// Certificates.
	CertStrategy CertStrategy `yaml:"certStrategy,omitempty"`
	ACMEProvider ACMEProvider `yaml:"acmeProvider,omitempty"`
	ACMEEmail    string       `yaml:"acmeEmail,omitempty"`

	Monitoring MonitoringLevel `yaml:"monitoring,omitempty"`
}

// ApplyDefaults fills documented defaults for optional fields.
// Mode-dependent required fields are left alone; the topology selector
// rejects their absence.
func (in *Intent) ApplyDefaults() {
	if in.LANInterface == "" && (in.Mode == ModeLAN || in.Mode == ModeHybrid) {
		in.LANInterface = "eth0"
	}
	if in.WANInterface == "" && (in.Mode == ModeWAN || in.Mode == ModeHybrid) {
		in.WANInterface = "eth0"
	}
	if in.CertStrategy == "" {
		if in.Mode == ModeLAN {
			in.CertStrategy = StrategyLocalCA
		} else {
			in.CertStrategy = StrategyACME
		}
	}
	if in.ACMEProvider == "" {
		in.ACMEProvider = ProviderLetsEncrypt
	}
	if in.ACMEEmail == "" && in.Domain != "" {
		in.ACMEEmail = "admin@" + in.Domain
	}
	if in.Monitoring == "" {
		in.Monitoring = MonitoringBasic
	}
}

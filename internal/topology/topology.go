// Package topology resolves operator intent into an immutable Topology
// value. Resolution is a pure function: it reads no ambient state, performs
// no I/O, and is deterministic over its documented input domain.
//
// The Topology is the single source of truth for every downstream
// component. Certificate placement, proxy routes and firewall rules are all
// derived from it; nothing re-reads the original Intent.
package topology

import (
	"fmt"
	"net"
	"strings"

	"github.com/hostplane/hostplane/internal/config"
	"github.com/hostplane/hostplane/internal/util/netutil"
)

// ZoneID identifies one deployment surface of the host.
type ZoneID string

const (
	ZoneLAN ZoneID = "lan"
	ZoneWAN ZoneID = "wan"
)

// Topology is the resolved network exposure model. Created once by Resolve
// and immutable thereafter; all fields for absent surfaces are empty.
type Topology struct {
	Mode config.Mode `yaml:"mode"`

	// LAN surface; populated iff Mode is lan or hybrid.
	LANSubnet    string `yaml:"lanSubnet,omitempty"`
	LANInterface string `yaml:"lanInterface,omitempty"`
	LANServerIP  string `yaml:"lanServerIp,omitempty"`

	// WAN surface; populated iff Mode is wan or hybrid.
	WANInterface string `yaml:"wanInterface,omitempty"`
	WANDomain    string `yaml:"wanDomain,omitempty"`
	WANACMEEmail string `yaml:"wanAcmeEmail,omitempty"`

	CertStrategy config.CertStrategy    `yaml:"certStrategy"`
	ACMEProvider config.ACMEProvider    `yaml:"acmeProvider,omitempty"`
	Monitoring   config.MonitoringLevel `yaml:"monitoring"`
}

// HasLAN reports whether the topology carries a LAN surface.
func (t *Topology) HasLAN() bool {
	return t.Mode == config.ModeLAN || t.Mode == config.ModeHybrid
}

// HasWAN reports whether the topology carries a WAN surface.
func (t *Topology) HasWAN() bool {
	return t.Mode == config.ModeWAN || t.Mode == config.ModeHybrid
}

// Zones returns the present zones in provisioning order. LAN always comes
// first so a WAN certificate failure never blocks the LAN surface.
func (t *Topology) Zones() []ZoneID {
	var zones []ZoneID
	if t.HasLAN() {
		zones = append(zones, ZoneLAN)
	}
	if t.HasWAN() {
		zones = append(zones, ZoneWAN)
	}
	return zones
}

// InvalidIntentError describes an Intent that cannot be resolved into a
// Topology. It is always raised before any mutation.
type InvalidIntentError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *InvalidIntentError) Error() string {
	return fmt.Sprintf("invalid intent: %s: %s", e.Field, e.Message)
}

// Resolve validates intent and derives the Topology. The derivation is a
// fixed table keyed on Mode; there is no negotiation and no retry.
func Resolve(intent *config.Intent) (*Topology, error) {
	switch intent.Mode {
	case config.ModeLAN, config.ModeWAN, config.ModeHybrid:
	case "":
		return nil, &InvalidIntentError{Field: "mode", Message: "mode is required (lan, wan or hybrid)"}
	default:
		return nil, &InvalidIntentError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", intent.Mode)}
	}

	t := &Topology{
		Mode:         intent.Mode,
		CertStrategy: intent.CertStrategy,
		Monitoring:   intent.Monitoring,
	}

	hasLAN := intent.Mode == config.ModeLAN || intent.Mode == config.ModeHybrid
	hasWAN := intent.Mode == config.ModeWAN || intent.Mode == config.ModeHybrid

	if hasLAN {
		if err := resolveLAN(intent, t); err != nil {
			return nil, err
		}
	}
	if hasWAN {
		if err := resolveWAN(intent, t); err != nil {
			return nil, err
		}
	}

	switch intent.CertStrategy {
	case config.StrategySelfSigned, config.StrategyLocalCA:
		// Topology-agnostic strategies.
	case config.StrategyACME:
		if !hasWAN {
			return nil, &InvalidIntentError{
				Field:   "certStrategy",
				Message: "acme requires a WAN-reachable surface; use selfsigned or localca for lan-only hosts",
			}
		}
		switch intent.ACMEProvider {
		case config.ProviderLetsEncrypt, config.ProviderZeroSSL:
			t.ACMEProvider = intent.ACMEProvider
		default:
			return nil, &InvalidIntentError{
				Field:   "acmeProvider",
				Message: fmt.Sprintf("unknown provider %q (letsencrypt or zerossl)", intent.ACMEProvider),
			}
		}
	case "":
		return nil, &InvalidIntentError{Field: "certStrategy", Message: "certificate strategy is required"}
	default:
		return nil, &InvalidIntentError{
			Field:   "certStrategy",
			Message: fmt.Sprintf("unknown strategy %q (selfsigned, localca or acme)", intent.CertStrategy),
		}
	}

	switch intent.Monitoring {
	case config.MonitoringBasic, config.MonitoringFull:
	default:
		return nil, &InvalidIntentError{
			Field:   "monitoring",
			Message: fmt.Sprintf("unknown monitoring level %q (basic or full)", intent.Monitoring),
		}
	}

	return t, nil
}

func resolveLAN(intent *config.Intent, t *Topology) error {
	if intent.LANSubnet == "" {
		return &InvalidIntentError{Field: "lanSubnet", Message: "LAN subnet is required for lan/hybrid mode"}
	}
	subnet, err := netutil.NormalizeCIDR(intent.LANSubnet)
	if err != nil {
		return &InvalidIntentError{Field: "lanSubnet", Message: err.Error()}
	}

	if intent.LANServerIP == "" {
		return &InvalidIntentError{Field: "lanServerIp", Message: "LAN server IP is required for lan/hybrid mode"}
	}
	if net.ParseIP(intent.LANServerIP) == nil {
		return &InvalidIntentError{Field: "lanServerIp", Message: fmt.Sprintf("invalid IP address %q", intent.LANServerIP)}
	}
	contained, err := netutil.CIDRContains(subnet, intent.LANServerIP)
	if err != nil {
		return &InvalidIntentError{Field: "lanServerIp", Message: err.Error()}
	}
	if !contained {
		return &InvalidIntentError{
			Field:   "lanServerIp",
			Message: fmt.Sprintf("server IP %s is not inside LAN subnet %s", intent.LANServerIP, subnet),
		}
	}

	t.LANSubnet = subnet
	t.LANServerIP = intent.LANServerIP
	t.LANInterface = intent.LANInterface
	return nil
}

func resolveWAN(intent *config.Intent, t *Topology) error {
	domain := strings.TrimSpace(strings.ToLower(intent.Domain))
	if domain == "" {
		return &InvalidIntentError{Field: "domain", Message: "a domain is required when a WAN surface is present"}
	}
	if !netutil.ValidDomain(domain) {
		return &InvalidIntentError{Field: "domain", Message: fmt.Sprintf("invalid domain name %q", domain)}
	}

	t.WANDomain = domain
	t.WANInterface = intent.WANInterface
	t.WANACMEEmail = intent.ACMEEmail
	if t.WANACMEEmail == "" {
		t.WANACMEEmail = "admin@" + domain
	}
	return nil
}

// Package synth derives reverse-proxy routes and firewall rulesets from a
// resolved topology and its certificate zones.
//
// Synthesis is deterministic and happens entirely in memory: artifacts are
// typed values, checked against the port-traceability invariant, and only
// then serialized. A violated invariant is a logic defect and aborts before
// any file is written.
package synth

import (
	"fmt"

	"github.com/hostplane/hostplane/internal/topology"
)

// Fixed internal upstreams of the web application.
const (
	// AppPort is the loopback port of the HTTP application server.
	AppPort = 8080
	// StreamPort is the loopback port for long-lived/streaming connections.
	StreamPort = 8081
	// CachePort is the loopback cache (redis) port.
	CachePort = 6379
	// DBPort is the loopback database (postgres) port.
	DBPort = 5432

	// HTTPSPort is the TLS listen port of every zone.
	HTTPSPort = 443
	// HTTPPort is the WAN plaintext port (ACME challenges + redirect).
	HTTPPort = 80
	// SSHPort is the fixed administrative port.
	SSHPort = 22
)

// AdminPorts are always allowed regardless of topology.
var AdminPorts = []int{SSHPort}

// LoopbackServicePorts are internal service ports allowed on loopback only.
var LoopbackServicePorts = []int{AppPort, StreamPort, CachePort, DBPort}

// ListenBinding is one (address, port) pair a proxy route binds.
type ListenBinding struct {
	IP   string
	Port int
}

func (b ListenBinding) String() string {
	return fmt.Sprintf("%s:%d", b.IP, b.Port)
}

// UpstreamTarget maps a path prefix to an internal backend.
type UpstreamTarget struct {
	PathPrefix string
	Backend    string // host:port
	Streaming  bool   // long-lived connections: no buffering, long timeouts
}

// RateLimit is a request-rate ceiling applied to a route.
type RateLimit struct {
	RequestsPerSecond int
	Burst             int
}

// ProxyRoute is one synthesized reverse-proxy virtual host.
type ProxyRoute struct {
	Zone           topology.ZoneID
	ServerNames    []string
	ListenBindings []ListenBinding
	TLSCertPath    string
	TLSKeyPath     string
	AllowedSources []string // CIDRs; empty means all sources
	RateLimit      *RateLimit
	Upstreams      []UpstreamTarget

	// RedirectHTTP adds a port-80 server that answers ACME challenges and
	// redirects everything else to HTTPS. WAN routes only.
	RedirectHTTP bool
}

// RuleAction is the verdict of a firewall rule.
type RuleAction string

const (
	ActionAllow RuleAction = "allow"
	ActionDeny  RuleAction = "deny"
)

// Rule is one ordered firewall rule. Evaluation is first-match-wins.
type Rule struct {
	Action     RuleAction
	SourceCIDR string // empty means any source
	Port       int    // 0 means any port
	Protocol   string // "tcp" or "udp"
	Comment    string
}

// FirewallRuleSet is the ordered rule list for one zone, evaluated on a
// default-deny-incoming baseline.
type FirewallRuleSet struct {
	Zone  topology.ZoneID
	Rules []Rule
}

// AllowedPorts returns the distinct ports of allow rules in the set,
// excluding loopback-scoped rules.
func (rs *FirewallRuleSet) AllowedPorts() []int {
	seen := map[int]bool{}
	var ports []int
	for _, r := range rs.Rules {
		if r.Action != ActionAllow || r.Port == 0 {
			continue
		}
		if r.SourceCIDR == loopbackCIDR {
			continue
		}
		if !seen[r.Port] {
			seen[r.Port] = true
			ports = append(ports, r.Port)
		}
	}
	return ports
}

// InvariantViolation indicates synthesized artifacts are internally
// inconsistent. It is a logic defect: it must never be swallowed, and it is
// raised before any file is written.
type InvariantViolation struct {
	Zone   topology.ZoneID
	Detail string
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("synthesis invariant violated in zone %s: %s", e.Zone, e.Detail)
}

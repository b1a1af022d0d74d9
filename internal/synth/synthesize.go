package synth

import (
	"fmt"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/topology"
)

const loopbackCIDR = "127.0.0.0/8"

// wanRateLimit is the fixed request ceiling for internet-facing routes.
var wanRateLimit = RateLimit{RequestsPerSecond: 30, Burst: 60}

// Synthesize derives the proxy routes and firewall rulesets for a topology.
// Every returned artifact has passed the port-traceability invariant; an
// InvariantViolation return means a bug in the derivation itself.
func Synthesize(t *topology.Topology, zones []*certs.Zone) ([]ProxyRoute, []FirewallRuleSet, error) {
	zoneByID := make(map[topology.ZoneID]*certs.Zone, len(zones))
	for _, z := range zones {
		zoneByID[z.ID] = z
	}

	var routes []ProxyRoute
	var rulesets []FirewallRuleSet

	for _, id := range t.Zones() {
		// A zone without a certificate (its provisioning failed or was not
		// requested) gets no route and no allow rules; sibling zones still
		// deploy.
		zone, ok := zoneByID[id]
		if !ok {
			continue
		}

		route := routeFor(t, id, zone)
		routes = append(routes, route)
		rulesets = append(rulesets, rulesFor(id, route))
	}

	if err := checkInvariant(routes, rulesets); err != nil {
		return nil, nil, err
	}
	return routes, rulesets, nil
}

// routeFor builds the proxy route of one zone.
func routeFor(t *topology.Topology, id topology.ZoneID, zone *certs.Zone) ProxyRoute {
	upstreams := []UpstreamTarget{
		{PathPrefix: "/", Backend: fmt.Sprintf("127.0.0.1:%d", AppPort)},
		{PathPrefix: "/stream/", Backend: fmt.Sprintf("127.0.0.1:%d", StreamPort), Streaming: true},
	}

	if id == topology.ZoneLAN {
		return ProxyRoute{
			Zone:           id,
			ServerNames:    zone.SubjectNames,
			ListenBindings: []ListenBinding{{IP: t.LANServerIP, Port: HTTPSPort}},
			TLSCertPath:    zone.CertPath,
			TLSKeyPath:     zone.KeyPath,
			AllowedSources: []string{t.LANSubnet, loopbackCIDR},
			Upstreams:      upstreams,
		}
	}

	return ProxyRoute{
		Zone:           id,
		ServerNames:    []string{t.WANDomain},
		ListenBindings: []ListenBinding{{IP: "0.0.0.0", Port: HTTPSPort}, {IP: "0.0.0.0", Port: HTTPPort}},
		TLSCertPath:    zone.CertPath,
		TLSKeyPath:     zone.KeyPath,
		AllowedSources: nil, // all sources, rate limited instead
		RateLimit:      &wanRateLimit,
		Upstreams:      upstreams,
		RedirectHTTP:   true,
	}
}

// rulesFor builds the ordered firewall ruleset of one zone.
//
// Baseline is default-deny-incoming; rules are first-match-wins. Loopback
// and administrative rules are always present. LAN zones end with an
// explicit deny-all; WAN zones rely on the baseline. RenderNftables moves
// deny rules after every zone's allows when zones share one chain.
func rulesFor(id topology.ZoneID, route ProxyRoute) FirewallRuleSet {
	rules := []Rule{
		{Action: ActionAllow, SourceCIDR: loopbackCIDR, Port: 0, Protocol: "tcp", Comment: "loopback"},
	}

	for _, port := range LoopbackServicePorts {
		rules = append(rules, Rule{
			Action: ActionAllow, SourceCIDR: loopbackCIDR, Port: port, Protocol: "tcp",
			Comment: fmt.Sprintf("internal service %d", port),
		})
	}

	for _, port := range AdminPorts {
		rules = append(rules, Rule{
			Action: ActionAllow, Port: port, Protocol: "tcp", Comment: "administrative",
		})
	}

	sources := route.AllowedSources
	if len(sources) == 0 {
		sources = []string{""} // any source
	}
	for _, binding := range route.ListenBindings {
		for _, src := range sources {
			rules = append(rules, Rule{
				Action: ActionAllow, SourceCIDR: src, Port: binding.Port, Protocol: "tcp",
				Comment: fmt.Sprintf("%s listen %s", id, binding),
			})
		}
	}

	if id == topology.ZoneLAN {
		rules = append(rules, Rule{Action: ActionDeny, Comment: "lan trailing deny"})
	}

	return FirewallRuleSet{Zone: id, Rules: rules}
}

// checkInvariant verifies that every non-loopback allow-rule port traces
// back to a proxy listen binding or the fixed administrative set.
func checkInvariant(routes []ProxyRoute, rulesets []FirewallRuleSet) error {
	traceable := map[topology.ZoneID]map[int]bool{}
	for _, route := range routes {
		ports := map[int]bool{}
		for _, b := range route.ListenBindings {
			ports[b.Port] = true
		}
		for _, p := range AdminPorts {
			ports[p] = true
		}
		traceable[route.Zone] = ports
	}

	for _, rs := range rulesets {
		ports, ok := traceable[rs.Zone]
		if !ok {
			return &InvariantViolation{Zone: rs.Zone, Detail: "ruleset for a zone with no proxy route"}
		}
		for _, port := range rs.AllowedPorts() {
			if !ports[port] {
				return &InvariantViolation{
					Zone:   rs.Zone,
					Detail: fmt.Sprintf("allow rule for port %d is not traceable to a listen binding or administrative port", port),
				}
			}
		}
	}
	return nil
}

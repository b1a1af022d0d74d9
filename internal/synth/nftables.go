package synth

import (
	"fmt"
	"strings"
)

// RenderNftables serializes the zone rulesets into a single nftables file.
// The table is flushed and re-declared wholesale, so applying the file is
// idempotent. The chain is first-match-wins on top of a default-deny
// policy: every zone's allow rules render before any zone's explicit deny,
// so a restrictive zone never shadows a sibling zone's broader exposure.
func RenderNftables(rulesets []FirewallRuleSet) []byte {
	var b strings.Builder

	b.WriteString("#!/usr/sbin/nft -f\n")
	b.WriteString("# Managed by hostplane. Manual edits are overwritten.\n\n")
	b.WriteString("table inet hostplane\n")
	b.WriteString("delete table inet hostplane\n\n")
	b.WriteString("table inet hostplane {\n")
	b.WriteString("    chain input {\n")
	b.WriteString("        type filter hook input priority 0; policy drop;\n\n")
	b.WriteString("        ct state established,related accept\n")
	b.WriteString("        ct state invalid drop\n")
	b.WriteString("        iif lo accept\n")
	b.WriteString("        icmp type echo-request accept\n\n")

	var denies []string
	for _, rs := range rulesets {
		fmt.Fprintf(&b, "        # zone %s\n", rs.Zone)
		for _, rule := range rs.Rules {
			if rule.Action == ActionDeny {
				denies = append(denies, renderRule(rule))
				continue
			}
			b.WriteString("        " + renderRule(rule) + "\n")
		}
		b.WriteString("\n")
	}

	if len(denies) > 0 {
		b.WriteString("        # explicit denies, after every zone's allows\n")
		for _, deny := range denies {
			b.WriteString("        " + deny + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("    }\n")
	b.WriteString("}\n")
	return []byte(b.String())
}

// renderRule serializes a single rule to nft syntax.
func renderRule(r Rule) string {
	var parts []string

	if r.SourceCIDR != "" {
		parts = append(parts, "ip saddr "+r.SourceCIDR)
	}
	if r.Port != 0 {
		proto := r.Protocol
		if proto == "" {
			proto = "tcp"
		}
		parts = append(parts, fmt.Sprintf("%s dport %d", proto, r.Port))
	}

	switch r.Action {
	case ActionAllow:
		parts = append(parts, "accept")
	default:
		parts = append(parts, "drop")
	}

	if r.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment %q", r.Comment))
	}
	return strings.Join(parts, " ")
}

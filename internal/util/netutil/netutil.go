// Package netutil provides small network helpers shared by topology
// resolution and verification.
package netutil

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// domainPattern matches a syntactically valid DNS name: dot-separated
// labels of letters, digits and hyphens, at least two labels, TLD alphabetic.
var domainPattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// ValidDomain reports whether s is a syntactically valid fully qualified
// domain name. It performs no DNS resolution.
func ValidDomain(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	return domainPattern.MatchString(s)
}

// CIDRContains reports whether cidr contains ip. Returns an error if either
// argument does not parse.
func CIDRContains(cidr, ip string) (bool, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return false, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false, fmt.Errorf("invalid IP address %q", ip)
	}
	return ipNet.Contains(parsed), nil
}

// NormalizeCIDR parses cidr and returns it in canonical form
// (network address, not an arbitrary host inside it).
func NormalizeCIDR(cidr string) (string, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if ipNet.IP.To4() == nil {
		return "", fmt.Errorf("only IPv4 CIDRs are supported, got %q", cidr)
	}
	return ipNet.String(), nil
}

// InterfaceHasAddress reports whether the named network interface exists
// and carries the given IPv4 address.
func InterfaceHasAddress(name, ip string) (bool, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return false, fmt.Errorf("interface %s not found: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return false, fmt.Errorf("failed to list addresses of %s: %w", name, err)
	}
	for _, addr := range addrs {
		s := addr.String()
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		if s == ip {
			return true, nil
		}
	}
	return false, nil
}

// InterfaceExists reports whether the named network interface exists.
func InterfaceExists(name string) bool {
	_, err := net.InterfaceByName(name)
	return err == nil
}

package synth

import (
	"fmt"
	"strings"
)

// Jail is one intrusion-prevention rule: a log pattern plus ban policy.
// The jail catalogue is topology-independent and is merged alongside the
// synthesized firewall rulesets, never substituted for them.
type Jail struct {
	Name     string
	Filter   string // fail2ban filter name
	LogPath  string
	MaxRetry int
	FindTime string
	BanTime  string
	Port     string
}

// IntrusionJails returns the fixed abuse-pattern catalogue.
func IntrusionJails() []Jail {
	return []Jail{
		{
			Name:     "sshd",
			Filter:   "sshd",
			LogPath:  "/var/log/auth.log",
			MaxRetry: 5,
			FindTime: "10m",
			BanTime:  "1h",
			Port:     "ssh",
		},
		{
			Name:     "hostplane-auth",
			Filter:   "hostplane-auth",
			LogPath:  "/var/log/nginx/access.log",
			MaxRetry: 10,
			FindTime: "5m",
			BanTime:  "30m",
			Port:     "http,https",
		},
		{
			Name:     "hostplane-burst",
			Filter:   "hostplane-burst",
			LogPath:  "/var/log/nginx/error.log",
			MaxRetry: 20,
			FindTime: "1m",
			BanTime:  "10m",
			Port:     "http,https",
		},
	}
}

// RenderFail2banJail serializes the jail catalogue to a jail.local file.
func RenderFail2banJail(jails []Jail) []byte {
	var b strings.Builder

	b.WriteString("# Managed by hostplane. Manual edits are overwritten.\n\n")
	b.WriteString("[DEFAULT]\n")
	b.WriteString("banaction = nftables-multiport\n")
	b.WriteString("backend = auto\n\n")

	for _, j := range jails {
		fmt.Fprintf(&b, "[%s]\n", j.Name)
		b.WriteString("enabled = true\n")
		fmt.Fprintf(&b, "filter = %s\n", j.Filter)
		fmt.Fprintf(&b, "port = %s\n", j.Port)
		fmt.Fprintf(&b, "logpath = %s\n", j.LogPath)
		fmt.Fprintf(&b, "maxretry = %d\n", j.MaxRetry)
		fmt.Fprintf(&b, "findtime = %s\n", j.FindTime)
		fmt.Fprintf(&b, "bantime = %s\n", j.BanTime)
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// Fail2banFilters returns the filter definitions referenced by the custom
// jails, keyed by file name.
func Fail2banFilters() map[string][]byte {
	return map[string][]byte{
		"hostplane-auth.conf": []byte(`# Managed by hostplane.
[Definition]
failregex = ^<HOST> .* "(GET|POST) /(login|auth|api/login)[^"]*" 401
ignoreregex =
`),
		"hostplane-burst.conf": []byte(`# Managed by hostplane.
[Definition]
failregex = limiting requests, excess: [\d.]+ by zone .*, client: <HOST>
ignoreregex =
`),
	}
}

package system

import (
	"context"
	"strings"
)

// Nftables drives the kernel firewall through the nft binary.
type Nftables struct {
	Run Runner
}

// Apply loads a ruleset file. The generated file flushes and re-declares
// the hostplane table, so repeated application converges.
func (n Nftables) Apply(ctx context.Context, path string) error {
	_, err := n.Run.Run(ctx, "nft", "-f", path)
	return err
}

// Check validates a ruleset file without loading it.
func (n Nftables) Check(ctx context.Context, path string) error {
	_, err := n.Run.Run(ctx, "nft", "-c", "-f", path)
	return err
}

// TableActive reports whether the hostplane table is loaded.
func (n Nftables) TableActive(ctx context.Context) bool {
	out, err := n.Run.Run(ctx, "nft", "list", "table", "inet", "hostplane")
	return err == nil && strings.Contains(string(out), "hostplane")
}

// ActiveRules returns the live hostplane table listing for rule presence
// checks during verification.
func (n Nftables) ActiveRules(ctx context.Context) (string, error) {
	out, err := n.Run.Run(ctx, "nft", "list", "table", "inet", "hostplane")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Nginx drives the reverse proxy binary for config validation.
type Nginx struct {
	Run Runner
}

// TestConfig runs `nginx -t` against the installed configuration.
func (n Nginx) TestConfig(ctx context.Context) error {
	_, err := n.Run.Run(ctx, "nginx", "-t")
	return err
}

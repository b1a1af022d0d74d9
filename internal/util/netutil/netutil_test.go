package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain string
		valid  bool
	}{
		{"example.com", true},
		{"app.example.com", true},
		{"a-b.example.co.uk", true},
		{"xn--bcher-kva.example", true},
		{"localhost", false}, // single label
		{"", false},
		{"-bad.example.com", false},
		{"bad-.example.com", false},
		{"example.123", false}, // numeric TLD
		{"has space.example.com", false},
		{"example.com.", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, ValidDomain(tt.domain))
		})
	}
}

func TestCIDRContains(t *testing.T) {
	t.Parallel()

	ok, err := CIDRContains("192.168.1.0/24", "192.168.1.10")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CIDRContains("192.168.1.0/24", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CIDRContains("not-a-cidr", "10.0.0.1")
	assert.Error(t, err)

	_, err = CIDRContains("192.168.1.0/24", "not-an-ip")
	assert.Error(t, err)
}

func TestNormalizeCIDR(t *testing.T) {
	t.Parallel()

	// A host address inside the network normalizes to the network address.
	got, err := NormalizeCIDR("192.168.1.77/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/24", got)

	got, err = NormalizeCIDR("10.0.0.0/8")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8", got)

	_, err = NormalizeCIDR("fd00::/8")
	assert.Error(t, err, "IPv6 is not supported")

	_, err = NormalizeCIDR("garbage")
	assert.Error(t, err)
}

func TestInterfaceExists(t *testing.T) {
	t.Parallel()

	assert.True(t, InterfaceExists("lo"))
	assert.False(t, InterfaceExists("definitely-not-an-interface0"))
}

func TestInterfaceHasAddress_Loopback(t *testing.T) {
	t.Parallel()

	has, err := InterfaceHasAddress("lo", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = InterfaceHasAddress("lo", "192.0.2.1")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = InterfaceHasAddress("definitely-not-an-interface0", "127.0.0.1")
	assert.Error(t, err)
}

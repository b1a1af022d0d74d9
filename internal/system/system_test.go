package system

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and replays scripted responses keyed on the
// joined command line.
type fakeRunner struct {
	calls     []string
	responses map[string]string
	failures  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: map[string]string{},
		failures:  map[string]error{},
	}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, cmdline)
	if err, ok := f.failures[cmdline]; ok {
		return nil, err
	}
	return []byte(f.responses[cmdline]), nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return "/usr/sbin/" + name, nil
}

func TestSystemd(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.responses["systemctl is-active nginx"] = "active\n"
	runner.responses["systemctl is-active fail2ban"] = "inactive\n"

	sysd := Systemd{Run: runner}
	ctx := context.Background()

	require.NoError(t, sysd.DaemonReload(ctx))
	require.NoError(t, sysd.EnableNow(ctx, "nginx"))
	require.NoError(t, sysd.Restart(ctx, "nginx"))
	require.NoError(t, sysd.Reload(ctx, "nginx"))
	assert.True(t, sysd.IsActive(ctx, "nginx"))
	assert.False(t, sysd.IsActive(ctx, "fail2ban"))

	assert.Contains(t, runner.calls, "systemctl daemon-reload")
	assert.Contains(t, runner.calls, "systemctl enable --now nginx")
	assert.Contains(t, runner.calls, "systemctl restart nginx")
	assert.Contains(t, runner.calls, "systemctl reload nginx")
}

func TestSystemd_IsActive_CommandFailure(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.failures["systemctl is-active nginx"] = errors.New("unit not found")

	sysd := Systemd{Run: runner}
	assert.False(t, sysd.IsActive(context.Background(), "nginx"))
}

func TestNftables(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.responses["nft list table inet hostplane"] = "table inet hostplane {\n}\n"

	nft := Nftables{Run: runner}
	ctx := context.Background()

	require.NoError(t, nft.Apply(ctx, "/etc/nftables.d/hostplane.nft"))
	require.NoError(t, nft.Check(ctx, "/etc/nftables.d/hostplane.nft"))
	assert.True(t, nft.TableActive(ctx))

	rules, err := nft.ActiveRules(ctx)
	require.NoError(t, err)
	assert.Contains(t, rules, "hostplane")

	assert.Contains(t, runner.calls, "nft -f /etc/nftables.d/hostplane.nft")
	assert.Contains(t, runner.calls, "nft -c -f /etc/nftables.d/hostplane.nft")
}

func TestNftables_TableMissing(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.failures["nft list table inet hostplane"] = errors.New("No such file or directory")

	nft := Nftables{Run: runner}
	assert.False(t, nft.TableActive(context.Background()))

	_, err := nft.ActiveRules(context.Background())
	assert.Error(t, err)
}

func TestNginx_TestConfig(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	nginx := Nginx{Run: runner}

	require.NoError(t, nginx.TestConfig(context.Background()))
	assert.Contains(t, runner.calls, "nginx -t")

	runner.failures["nginx -t"] = errors.New(`unknown directive "listenn"`)
	assert.Error(t, nginx.TestConfig(context.Background()))
}

func TestExecRunner_Run(t *testing.T) {
	t.Parallel()

	out, err := ExecRunner{}.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	_, err = ExecRunner{}.Run(context.Background(), "false")
	assert.Error(t, err)
}

func TestExecRunner_LookPath(t *testing.T) {
	t.Parallel()

	path, err := ExecRunner{}.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = ExecRunner{}.LookPath("definitely-not-a-binary-xyz")
	assert.Error(t, err)
}

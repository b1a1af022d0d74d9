package units

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitRender(t *testing.T) {
	t.Parallel()

	u := Unit{
		Name:        "hostplane-app.service",
		Description: "hostplane web application server",
		After:       []string{"network-online.target"},
		ExecStart:   "/srv/app/bin/app --listen 127.0.0.1:8080",
		WorkingDir:  "/srv/app",
		Environment: map[string]string{"B_VAR": "2", "A_VAR": "1"},
		User:        "www-data",
	}

	out := string(u.Render())

	assert.Contains(t, out, "Description=hostplane web application server\n")
	assert.Contains(t, out, "After=network-online.target\n")
	assert.Contains(t, out, "User=www-data\n")
	assert.Contains(t, out, "WorkingDirectory=/srv/app\n")
	assert.Contains(t, out, "ExecStart=/srv/app/bin/app --listen 127.0.0.1:8080\n")
	assert.Contains(t, out, "Restart=on-failure\n", "restart defaults to on-failure")
	assert.Contains(t, out, "WantedBy=multi-user.target\n")

	// Environment keys render sorted, keeping output deterministic.
	aIdx := strings.Index(out, "Environment=A_VAR=1")
	bIdx := strings.Index(out, "Environment=B_VAR=2")
	require.GreaterOrEqual(t, aIdx, 0)
	require.GreaterOrEqual(t, bIdx, 0)
	assert.Less(t, aIdx, bIdx)

	assert.Equal(t, u.Render(), u.Render())
}

func TestTimerRender(t *testing.T) {
	t.Parallel()

	tm := Timer{
		Name:        "hostplane-renew.timer",
		Description: "Daily hostplane certificate renewal check",
		OnCalendar:  "daily",
		Persistent:  true,
	}

	out := string(tm.Render())

	assert.Contains(t, out, "OnCalendar=daily\n")
	assert.Contains(t, out, "Persistent=true\n")
	assert.Contains(t, out, "WantedBy=timers.target\n")
}

func TestAppUnits(t *testing.T) {
	t.Parallel()

	units := AppUnits("/srv/app")
	require.Len(t, units, 2)

	app, stream := units[0], units[1]
	assert.Equal(t, "hostplane-app.service", app.Name)
	assert.Contains(t, app.ExecStart, "127.0.0.1:8080")
	assert.Equal(t, "www-data", app.User)

	assert.Equal(t, "hostplane-stream.service", stream.Name)
	assert.Contains(t, stream.ExecStart, "127.0.0.1:8081")
	assert.Contains(t, stream.After, "hostplane-app.service", "stream starts after the app")
}

func TestRenewalUnits(t *testing.T) {
	t.Parallel()

	service, timer := RenewalUnits("/usr/local/bin/hostplane")

	assert.Equal(t, "hostplane-renew.service", service.Name)
	assert.Equal(t, "/usr/local/bin/hostplane renew", service.ExecStart)
	assert.Contains(t, string(service.Render()), "Restart=no\n", "one-shot renewal does not restart")

	assert.Equal(t, "hostplane-renew.timer", timer.Name)
	assert.Equal(t, "daily", timer.OnCalendar)
	assert.True(t, timer.Persistent, "missed runs fire on next boot")
}

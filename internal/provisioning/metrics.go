package provisioning

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hostplane/hostplane/internal/util/atomicfile"
	"github.com/hostplane/hostplane/internal/verify"
)

// WriteMetrics exports deployment gauges as a node_exporter textfile.
// The host has no long-running hostplane process to scrape, so the textfile
// collector is the export path.
func WriteMetrics(ctx *Context) error {
	registry := prometheus.NewRegistry()

	readiness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hostplane_readiness_status",
		Help: "Overall readiness: 0 pass, 1 warn, 2 fail.",
	})
	checkStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostplane_check_status",
		Help: "Per-check readiness: 0 pass, 1 warn, 2 fail.",
	}, []string{"check", "zone"})
	certExpiry := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hostplane_certificate_expiry_seconds",
		Help: "Seconds until zone certificate expiry.",
	}, []string{"zone"})

	registry.MustRegister(readiness, checkStatus, certExpiry)

	report := ctx.State.Report
	if report != nil {
		readiness.Set(statusValue(report.Overall))
		for _, c := range report.Checks {
			checkStatus.WithLabelValues(c.Name, c.Zone).Set(statusValue(c.Status))
		}
	}
	for _, zone := range ctx.ActiveZones() {
		certExpiry.WithLabelValues(string(zone.ID)).Set(time.Until(zone.NotAfter).Seconds())
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(ctx.Layout.MetricsPath), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return atomicfile.WriteFile(ctx.Layout.MetricsPath, buf.Bytes(), 0o644)
}

func statusValue(s verify.Status) float64 {
	switch s {
	case verify.StatusPass:
		return 0
	case verify.StatusWarn:
		return 1
	default:
		return 2
	}
}

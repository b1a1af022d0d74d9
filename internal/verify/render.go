package verify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headStyle = lipgloss.NewStyle().Bold(true)
)

// RenderJSON serializes the report for machine consumption.
func RenderJSON(r *ReadinessReport) (string, error) {
	data, err := json.MarshalIndent(reportJSON(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

type jsonCheck struct {
	Name   string `json:"name"`
	Zone   string `json:"zone,omitempty"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

type jsonReport struct {
	Overall     string      `json:"overall"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Checks      []jsonCheck `json:"checks"`
}

func reportJSON(r *ReadinessReport) jsonReport {
	out := jsonReport{Overall: string(r.Overall), GeneratedAt: r.GeneratedAt}
	for _, c := range r.Checks {
		out.Checks = append(out.Checks, jsonCheck{
			Name: c.Name, Zone: c.Zone, Status: string(c.Status), Detail: c.Detail, Hint: c.Hint,
		})
	}
	return out
}

// RenderPlain formats the report for non-TTY output.
func RenderPlain(r *ReadinessReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "readiness: %s (%s)\n", r.Overall, r.GeneratedAt.Format(time.RFC3339))
	for _, c := range r.Checks {
		name := c.Name
		if c.Zone != "" {
			name = fmt.Sprintf("%s [%s]", c.Name, c.Zone)
		}
		fmt.Fprintf(&b, "  %-4s %-28s %s\n", strings.ToUpper(string(c.Status)), name, c.Detail)
		if c.Hint != "" && c.Status != StatusPass {
			fmt.Fprintf(&b, "       hint: %s\n", c.Hint)
		}
	}
	return b.String()
}

// RenderStyled formats the report for interactive terminals.
func RenderStyled(r *ReadinessReport) string {
	var b strings.Builder

	title := "hostplane readiness"
	b.WriteString("\n  " + headStyle.Render(title) + "\n")
	b.WriteString("  " + strings.Repeat("─", 40) + "\n")

	for _, c := range r.Checks {
		name := c.Name
		if c.Zone != "" {
			name = fmt.Sprintf("%s [%s]", c.Name, c.Zone)
		}
		fmt.Fprintf(&b, "  %s  %-28s %s\n", statusGlyph(c.Status), name, dimStyle.Render(c.Detail))
		if c.Hint != "" && c.Status != StatusPass {
			b.WriteString("      " + dimStyle.Render("hint: "+c.Hint) + "\n")
		}
	}

	b.WriteString("  " + strings.Repeat("─", 40) + "\n")
	fmt.Fprintf(&b, "  overall: %s\n\n", statusText(r.Overall))
	return b.String()
}

func statusGlyph(s Status) string {
	switch s {
	case StatusPass:
		return passStyle.Render("✔")
	case StatusWarn:
		return warnStyle.Render("!")
	default:
		return failStyle.Render("✘")
	}
}

func statusText(s Status) string {
	switch s {
	case StatusPass:
		return passStyle.Render("pass")
	case StatusWarn:
		return warnStyle.Render("warn")
	default:
		return failStyle.Render("fail")
	}
}

// Package tui implements the live view behind `hostplane verify --watch`.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hostplane/hostplane/internal/verify"
)

const refreshInterval = 5 * time.Second

var (
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// RunVerifyWatch runs the readiness view, re-verifying every few seconds
// until the user quits. run must be safe to call repeatedly.
func RunVerifyWatch(ctx context.Context, run func() *verify.ReadinessReport) error {
	m := newWatchModel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Verification shells out to systemctl and nft, so it runs off the
	// update loop and reports back via messages.
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		p.Send(reportMsg{report: run()})
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Send(reportMsg{report: run()})
			}
		}
	}()

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("watch view error: %w", err)
	}
	return nil
}

type reportMsg struct {
	report *verify.ReadinessReport
}

type tickMsg struct{}

type watchModel struct {
	report       *verify.ReadinessReport
	refreshCount int
	spinnerFrame int
	width        int
}

func newWatchModel() watchModel {
	return watchModel{}
}

func (m watchModel) Init() tea.Cmd {
	return tickCmd()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case reportMsg:
		m.report = msg.report
		m.refreshCount++

	case tickMsg:
		m.spinnerFrame++
		return m, tickCmd()
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.report == nil {
		spin := spinnerChars[m.spinnerFrame%len(spinnerChars)]
		return fmt.Sprintf("\n  %s probing host...\n", spin)
	}

	body := verify.RenderStyled(m.report)
	footer := footerStyle.Render(fmt.Sprintf(
		"  refreshed %s · every %s · q to quit",
		m.report.GeneratedAt.Format("15:04:05"), refreshInterval,
	))
	return body + footer + "\n"
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	domainai "github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
	"github.com/felixgeelhaar/learnroad/pkg/storage"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard of the stored plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("LEARNROAD_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		p := tea.NewProgram(initialModel(storage.NewFilesystemRepository(root)))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

type model struct {
	table   table.Model
	view    learning.PlanView
	steps   []learning.Step
	usage   *domainai.UsageStats
	err     error
	showing bool
}

type dashboardRepo interface {
	LoadPlan() (*learning.Plan, error)
	LoadUsage() (*domainai.UsageStats, error)
}

func initialModel(repo dashboardRepo) model {
	plan, err := repo.LoadPlan()
	if err != nil {
		return model{err: err}
	}
	if plan == nil {
		return model{err: learning.ErrNoPlan}
	}
	usage, _ := repo.LoadUsage()

	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Status", Width: 10},
		{Title: "Step", Width: 40},
		{Title: "When", Width: 14},
	}
	rows := make([]table.Row, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		rows = append(rows, table.Row{fmt.Sprintf("%d", s.Index+1), string(s.Status), s.Title, s.Timeframe})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows), 12)),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	st.Selected = st.Selected.Foreground(lipgloss.Color("229"))
	t.SetStyles(st)
	if plan.CurrentStepIndex >= 0 && plan.CurrentStepIndex < len(rows) {
		t.SetCursor(plan.CurrentStepIndex)
	}

	return model{
		table: t,
		view:  learning.GetCurrentView(plan),
		steps: plan.Steps,
		usage: usage,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.showing = !m.showing
			return m, nil
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	header := titleStyle.Render(m.view.Title)
	progress := fmt.Sprintf("%s %d%%  %d/%d steps  %d min",
		progressBar(m.view.ProgressPercent, 20), m.view.ProgressPercent,
		m.view.CompletedSteps, m.view.TotalSteps, m.view.TimeSpentMinutes)

	usage := mutedStyle.Render("AI calls: 0")
	if m.usage != nil {
		usage = mutedStyle.Render(fmt.Sprintf("AI calls: %d  tokens: %d", m.usage.TotalCalls, m.usage.TotalTokens()))
	}

	parts := []string{header, "Goal: " + m.view.Goal, progress, usage, "", m.table.View()}
	if m.showing {
		parts = append(parts, m.stepDetail())
	}
	parts = append(parts, "\n[q] Quit  [Up/Down] Navigate  [Enter] Details")
	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)) + "\n"
}

func (m model) stepDetail() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.steps) {
		return ""
	}
	s := m.steps[i]
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s\n", sectionStyle.Render(s.Title), styleStatus(s.Status))
	if s.Status == learning.StatusLocked {
		b.WriteString(mutedStyle.Render("Locked until the steps before it are done."))
		return b.String()
	}
	if s.Description != "" {
		b.WriteString(s.Description + "\n")
	}
	if s.DoneWhen != "" {
		fmt.Fprintf(&b, "Done when: %s\n", s.DoneWhen)
	}
	if len(s.Pitfalls) > 0 {
		fmt.Fprintf(&b, "Pitfalls: %s", strings.Join(s.Pitfalls, "; "))
	}
	return b.String()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	statusDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusCurrent = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusLocked  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func styleStatus(s learning.StepStatus) string {
	switch s {
	case learning.StatusCompleted, learning.StatusSkipped:
		return statusDone.Render(string(s))
	case learning.StatusCurrent:
		return statusCurrent.Render(string(s))
	default:
		return statusLocked.Render(string(s))
	}
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return statusDone.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func renderPlanOutput(w io.Writer, out *learning.PlanOutput) {
	fmt.Fprintln(w, titleStyle.Render(out.Title))
	if out.Overview != "" {
		fmt.Fprintln(w, out.Overview)
	}
	fmt.Fprintf(w, "%s %d steps over %d days, %s\n\n",
		mutedStyle.Render(string(out.GoalType)+":"), out.TotalSteps, out.EstimatedDays, out.DailyCommitment)

	cur := out.CurrentStep
	fmt.Fprintln(w, sectionStyle.Render("Now: "+cur.Title)+" "+mutedStyle.Render(cur.Timeframe))
	if cur.Description != "" {
		fmt.Fprintln(w, cur.Description)
	}
	if cur.Method != "" {
		fmt.Fprintf(w, "Method: %s\n", cur.Method)
	}
	for _, t := range cur.MicroTasks {
		fmt.Fprintf(w, "  %d. %s (%d min)\n", t.Order, t.Description, t.Minutes)
	}
	if cur.DoneWhen != "" {
		fmt.Fprintf(w, "Done when: %s\n", cur.DoneWhen)
	}
	if len(cur.CommonMistakes) > 0 {
		fmt.Fprintln(w, "Avoid:")
		for _, m := range cur.CommonMistakes {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}

	if len(out.LockedSteps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Later"))
		for _, l := range out.LockedSteps {
			fmt.Fprintf(w, "  %s %s %s\n", statusLocked.Render("locked"), l.Title, mutedStyle.Render(l.Timeframe))
		}
	}

	if out.CriticalWarning.Warning != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render(out.CriticalWarning.Severity), out.CriticalWarning.Warning)
		if out.CriticalWarning.Consequence != "" {
			fmt.Fprintf(w, "  %s\n", out.CriticalWarning.Consequence)
		}
	}

	if len(out.RecommendedPlatforms) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Where to learn"))
		for _, p := range out.RecommendedPlatforms {
			line := fmt.Sprintf("  %s %s", p.Name, mutedStyle.Render(p.URL))
			if p.Reason != "" {
				line += " " + p.Reason
			}
			fmt.Fprintln(w, line)
		}
	}
}

func renderView(w io.Writer, v learning.PlanView) {
	fmt.Fprintln(w, titleStyle.Render(v.Title))
	fmt.Fprintf(w, "Goal: %s\n", v.Goal)
	fmt.Fprintf(w, "%s %d%% (%d/%d steps, %d min spent)\n",
		progressBar(v.ProgressPercent, 20), v.ProgressPercent, v.CompletedSteps, v.TotalSteps, v.TimeSpentMinutes)
	if v.Finished {
		fmt.Fprintln(w, statusDone.Render("Plan complete."))
		return
	}
	if v.CurrentStep != nil {
		fmt.Fprintf(w, "Current: %s %s\n", v.CurrentStep.Title, mutedStyle.Render(v.CurrentStep.Timeframe))
		if v.CurrentStep.DoneWhen != "" {
			fmt.Fprintf(w, "Done when: %s\n", v.CurrentStep.DoneWhen)
		}
	}
	if v.NextMilestone != "" {
		fmt.Fprintf(w, "Next: %s\n", v.NextMilestone)
	}
}

func renderMission(w io.Writer, m *learning.Mission) {
	fmt.Fprintln(w, sectionStyle.Render("Today's mission"))
	for i, a := range m.Actions {
		fmt.Fprintf(w, "  %d. [%s] %s (%d min)\n", i+1, a.Type, a.Description, a.Minutes)
	}
	if len(m.Avoid) > 0 {
		fmt.Fprintf(w, "Avoid: %s\n", strings.Join(m.Avoid, "; "))
	}
	if m.DoneWhen != "" {
		fmt.Fprintf(w, "Done when: %s\n", m.DoneWhen)
	}
}

func renderHint(w io.Writer, h application.HintResult) {
	fmt.Fprintf(w, "%s %s\n", sectionStyle.Render("Hint:"), h.Hint)
	if h.NextAction != "" {
		fmt.Fprintf(w, "Next: %s\n", h.NextAction)
	}
	fmt.Fprintln(w, mutedStyle.Render("source: "+h.Source))
}

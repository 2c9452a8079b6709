package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	domainai "github.com/felixgeelhaar/learnroad/pkg/domain/ai"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

type fakeDashboardRepo struct {
	plan  *learning.Plan
	usage *domainai.UsageStats
	err   error
}

func (f fakeDashboardRepo) LoadPlan() (*learning.Plan, error) { return f.plan, f.err }

func (f fakeDashboardRepo) LoadUsage() (*domainai.UsageStats, error) { return f.usage, nil }

func dashboardPlan() *learning.Plan {
	return &learning.Plan{
		ID:    "p1",
		Goal:  "Learn Go",
		Title: "Go in three weeks",
		Steps: []learning.Step{
			{ID: "s1", Index: 0, Title: "Syntax", Timeframe: "Days 1-5", Status: learning.StatusCompleted},
			{ID: "s2", Index: 1, Title: "Concurrency", Timeframe: "Days 6-12", Status: learning.StatusCurrent, DoneWhen: "You can explain channels"},
			{ID: "s3", Index: 2, Title: "Services", Timeframe: "Days 13-21", Status: learning.StatusLocked},
		},
		CurrentStepIndex: 1,
	}
}

func TestInitialModel(t *testing.T) {
	m := initialModel(fakeDashboardRepo{plan: dashboardPlan(), usage: &domainai.UsageStats{TotalCalls: 4}})
	if m.err != nil {
		t.Fatal(m.err)
	}
	if m.table.Cursor() != 1 {
		t.Errorf("cursor should start on the current step, got %d", m.table.Cursor())
	}
	view := m.View()
	for _, want := range []string{"Go in three weeks", "Concurrency", "AI calls: 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	detail := next.(model).View()
	if !strings.Contains(detail, "You can explain channels") {
		t.Errorf("details not shown:\n%s", detail)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit message")
	}
}

func TestInitialModel_Errors(t *testing.T) {
	if m := initialModel(fakeDashboardRepo{}); !errors.Is(m.err, learning.ErrNoPlan) {
		t.Errorf("missing plan: %v", m.err)
	}
	boom := errors.New("disk")
	m := initialModel(fakeDashboardRepo{err: boom})
	if !errors.Is(m.err, boom) || !strings.Contains(m.View(), "Error loading dashboard") {
		t.Errorf("load error: %v", m.err)
	}
}

package learning

import "fmt"

// PlanView is the read-only projection handed to presentation layers.
type PlanView struct {
	PlanID           string   `json:"plan_id"`
	Title            string   `json:"title"`
	Goal             string   `json:"goal"`
	ProgressPercent  int      `json:"progress_percent"`
	CompletedSteps   int      `json:"completed_steps"`
	TotalSteps       int      `json:"total_steps"`
	CurrentStep      *Step    `json:"current_step"`
	NextMilestone    string   `json:"next_milestone"`
	TodaysMission    *Mission `json:"todays_mission"`
	TimeSpentMinutes int      `json:"time_spent_minutes"`
	Finished         bool     `json:"finished"`
}

// GetCurrentView projects a plan without exposing it for mutation.
func GetCurrentView(p *Plan) PlanView {
	if p == nil {
		return PlanView{}
	}
	view := PlanView{
		PlanID:           p.ID,
		Title:            p.Title,
		Goal:             p.Goal,
		TotalSteps:       len(p.Steps),
		TimeSpentMinutes: p.TimeSpentMinutes,
		Finished:         p.Finished(),
	}
	for _, s := range p.Steps {
		if s.Status.IsFinal() {
			view.CompletedSteps++
		}
	}
	if view.TotalSteps > 0 {
		view.ProgressPercent = view.CompletedSteps * 100 / view.TotalSteps
	}

	if cur := p.CurrentStep(); cur != nil && cur.Status == StatusCurrent {
		view.CurrentStep = copyStep(cur)
		if p.TodaysMission != nil {
			m := *p.TodaysMission
			m.Actions = append([]MissionAction(nil), p.TodaysMission.Actions...)
			m.Avoid = append([]string(nil), p.TodaysMission.Avoid...)
			view.TodaysMission = &m
		}
	}

	next := p.CurrentStepIndex + 1
	if !view.Finished && next < len(p.Steps) {
		s := p.Steps[next]
		view.NextMilestone = fmt.Sprintf("%s (%s)", s.Title, s.Timeframe)
	} else if !view.Finished {
		view.NextMilestone = "Plan complete after this step"
	}
	return view
}

func copyStep(s *Step) *Step {
	c := *s
	c.Pitfalls = append([]string(nil), s.Pitfalls...)
	if s.Detail != nil {
		d := *s.Detail
		d.TimeBreakdown = append([]TimeBlock(nil), s.Detail.TimeBreakdown...)
		d.CommonMistakes = append([]string(nil), s.Detail.CommonMistakes...)
		d.SelfTest = append([]string(nil), s.Detail.SelfTest...)
		d.Resources = append([]Resource(nil), s.Detail.Resources...)
		d.MicroTasks = append([]MicroTask(nil), s.Detail.MicroTasks...)
		c.Detail = &d
	}
	return &c
}

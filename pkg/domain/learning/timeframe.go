package learning

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Urgency string

const (
	UrgencyShortTerm  Urgency = "short_term"
	UrgencyMediumTerm Urgency = "medium_term"
	UrgencyLongTerm   Urgency = "long_term"
)

type Scope string

const (
	ScopeNarrow   Scope = "narrow"
	ScopeModerate Scope = "moderate"
	ScopeBroad    Scope = "broad"
)

// Timeframe is a deadline found in goal text.
type Timeframe struct {
	Days     int    `json:"days"`
	Label    string `json:"label"`
	Detected bool   `json:"detected"`
}

var (
	timeframePattern = regexp.MustCompile(`(?i)\b(\d+|an?|one|two|three|four|five|six|seven|eight|nine|ten|twelve)\s*(?:-\s*)?(days?|weeks?|months?|years?)\b`)
	numberWords      = map[string]int{
		"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10, "twelve": 12,
	}
	unitDays = map[string]int{"day": 1, "week": 7, "month": 30, "year": 365}
)

// MaxPlanDays caps a detected deadline. Longer deadlines count as this long.
const MaxPlanDays = 3650

// ParseTimeframe extracts the first deadline from goal text.
func ParseTimeframe(goal string) Timeframe {
	lower := strings.ToLower(goal)
	if m := timeframePattern.FindStringSubmatch(goal); m != nil {
		unit := unitDays[strings.TrimSuffix(strings.ToLower(m[2]), "s")]
		n, ok := numberWords[strings.ToLower(m[1])]
		if !ok {
			parsed, err := strconv.Atoi(m[1])
			switch {
			case errors.Is(err, strconv.ErrRange):
				parsed = MaxPlanDays
			case err != nil || parsed <= 0:
				return Timeframe{}
			}
			n = parsed
		}
		days := MaxPlanDays
		if n <= MaxPlanDays/unit {
			days = n * unit
		}
		return Timeframe{Days: days, Label: strings.TrimSpace(m[0]), Detected: true}
	}
	switch {
	case strings.Contains(lower, "tomorrow"):
		return Timeframe{Days: 1, Label: "tomorrow", Detected: true}
	case strings.Contains(lower, "this weekend"):
		return Timeframe{Days: 2, Label: "this weekend", Detected: true}
	case strings.Contains(lower, "next week"):
		return Timeframe{Days: 7, Label: "next week", Detected: true}
	case strings.Contains(lower, "next month"):
		return Timeframe{Days: 30, Label: "next month", Detected: true}
	}
	return Timeframe{}
}

// UrgencyFor derives urgency from a deadline in days. Unknown deadlines are medium term.
func UrgencyFor(days int) Urgency {
	switch {
	case days <= 0:
		return UrgencyMediumTerm
	case days <= 14:
		return UrgencyShortTerm
	case days <= 90:
		return UrgencyMediumTerm
	default:
		return UrgencyLongTerm
	}
}

// DefaultDays is the plan length used when the goal names no deadline.
func DefaultDays(scope Scope) int {
	switch scope {
	case ScopeNarrow:
		return 14
	case ScopeBroad:
		return 60
	default:
		return 30
	}
}

const (
	MinSteps = 2
	MaxSteps = 8
)

// TargetStepCount decides how many steps a plan gets. It is system logic; the
// generator never chooses it.
func TargetStepCount(days int, scope Scope) int {
	n := 5
	switch {
	case days <= 0:
	case days <= 7:
		n = 3
	case days <= 14:
		n = 4
	case days <= 30:
		n = 5
	case days <= 90:
		n = 6
	default:
		n = 7
	}
	switch scope {
	case ScopeBroad:
		n++
	case ScopeNarrow:
		n--
	}
	if days > 0 && n > days {
		n = days
	}
	if n < MinSteps {
		n = MinSteps
	}
	if n > MaxSteps {
		n = MaxSteps
	}
	return n
}

// DayWindow is the slice of the plan's days assigned to one step.
type DayWindow struct {
	Start int
	End   int
}

func (w DayWindow) Label() string {
	if w.Start == w.End {
		return fmt.Sprintf("Day %d", w.Start)
	}
	return fmt.Sprintf("Days %d–%d", w.Start, w.End)
}

// BuildSchedule splits days into steps contiguous windows.
func BuildSchedule(days, steps int) []DayWindow {
	if steps <= 0 {
		return nil
	}
	if days <= 0 {
		days = steps
	}
	out := make([]DayWindow, steps)
	for i := 0; i < steps; i++ {
		start := i*days/steps + 1
		end := (i + 1) * days / steps
		if end < start {
			end = start
		}
		out[i] = DayWindow{Start: start, End: end}
	}
	return out
}

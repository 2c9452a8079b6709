package ai

import "time"

// UsageStats accumulates generation calls and tokens per role.
type UsageStats struct {
	TotalCalls  int            `json:"total_calls"`
	FailedCalls int            `json:"failed_calls"`
	LastCallAt  time.Time      `json:"last_call_at"`
	Tokens      map[string]int `json:"tokens"`
}

// TotalTokens sums every counter in Tokens.
func (s UsageStats) TotalTokens() int {
	total := 0
	for _, n := range s.Tokens {
		total += n
	}
	return total
}

// UsageRepository persists UsageStats. LoadUsage returns nil, nil when
// nothing has been recorded.
type UsageRepository interface {
	LoadUsage() (*UsageStats, error)
	UpdateUsage(stats UsageStats) error
}

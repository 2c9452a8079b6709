package sdk

// SchemaInfo is the learnroad://schema resource.
type SchemaInfo struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

type GeneratePlanRequest struct {
	Goal    string `json:"goal"`
	Subject string `json:"subject,omitempty"`
	Context string `json:"context,omitempty"`
	Memory  string `json:"memory,omitempty"`
	Save    bool   `json:"save,omitempty"`
	Debug   bool   `json:"debug,omitempty"`
}

type ProgressRequest struct {
	TasksCompleted   int     `json:"tasks_completed,omitempty"`
	SelfTestScore    float64 `json:"self_test_score,omitempty"`
	MinutesPracticed int     `json:"minutes_practiced,omitempty"`
	Force            bool    `json:"force,omitempty"`
}

// Hint mirrors the server's hint payload.
type Hint struct {
	Hint       string `json:"hint"`
	NextAction string `json:"next_action"`
	Source     string `json:"source"`
}

// ScoreReport mirrors the server's doctrine score.
type ScoreReport struct {
	Score      int         `json:"score"`
	Verdict    string      `json:"verdict"`
	Violations []Violation `json:"violations"`
}

type Violation struct {
	Rule     string `json:"rule"`
	Match    string `json:"match"`
	Fix      string `json:"fix"`
	Severity string `json:"severity"`
	Offset   int    `json:"offset"`
}

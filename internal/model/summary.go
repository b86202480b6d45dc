package model

// Streak is a maximal run of consecutive records sharing a state.
type Streak struct {
	State State `json:"state"`
	Weeks int   `json:"weeks"`
}

// MonthlySummary rolls up the history records of one calendar month.
type MonthlySummary struct {
	Weeks         int           `json:"weeks"`
	DominantState State         `json:"dominant_state"`
	WeeksByState  map[State]int `json:"weeks_by_state"`
	Transitions   int           `json:"transitions"`
	MaxSeverity   Severity      `json:"max_severity"`
}

// QuarterlySummary rolls up the history records of one calendar quarter.
type QuarterlySummary struct {
	Weeks          int               `json:"weeks"`
	DominantState  State             `json:"dominant_state"`
	WeeksByState   map[State]int     `json:"weeks_by_state"`
	PercentByState map[State]float64 `json:"percent_by_state"`
	Transitions    int               `json:"transitions"`
	LongestStreak  Streak            `json:"longest_streak"`
	MaxSeverity    Severity          `json:"max_severity"`
}

// Summaries is the complete aggregation output, keyed by period label.
type Summaries struct {
	Monthly   map[string]MonthlySummary
	Quarterly map[string]QuarterlySummary
}

package narrative

import (
	"fmt"
	"strings"

	"RegimeWatch/internal/model"
)

// Text is the serialized narrative for one period.
type Text struct {
	Text string `json:"text"`
}

func stability(transitions int) string {
	switch transitions {
	case 0:
		return "no regime transitions"
	case 1:
		return "1 regime transition"
	default:
		return fmt.Sprintf("%d regime transitions", transitions)
	}
}

func severityText(top model.Severity) string {
	if top == 0 {
		return "No elevated severity was observed."
	}
	return fmt.Sprintf("Maximum severity reached level %d.", top)
}

// MonthText describes one monthly summary.
func MonthText(period string, s model.MonthlySummary) string {
	return fmt.Sprintf("%s: Market conditions were predominantly %s over %d weeks, with %s. %s",
		period, s.DominantState, s.Weeks, stability(s.Transitions), severityText(s.MaxSeverity))
}

// QuarterText describes one quarterly summary, including its longest streak.
func QuarterText(period string, s model.QuarterlySummary) string {
	parts := []string{
		fmt.Sprintf("%s: Market conditions were predominantly %s across %d weeks, with %s.",
			period, s.DominantState, s.Weeks, stability(s.Transitions)),
	}
	if s.LongestStreak.State != "" {
		parts = append(parts, fmt.Sprintf("The longest uninterrupted streak was %d weeks in %s.",
			s.LongestStreak.Weeks, s.LongestStreak.State))
	}
	parts = append(parts, severityText(s.MaxSeverity))
	return strings.Join(parts, " ")
}

// Periods renders narratives for every period in summaries.
func Periods(summaries model.Summaries) (monthly, quarterly map[string]Text) {
	monthly = make(map[string]Text, len(summaries.Monthly))
	for k, s := range summaries.Monthly {
		monthly[k] = Text{Text: MonthText(k, s)}
	}
	quarterly = make(map[string]Text, len(summaries.Quarterly))
	for k, s := range summaries.Quarterly {
		quarterly[k] = Text{Text: QuarterText(k, s)}
	}
	return monthly, quarterly
}

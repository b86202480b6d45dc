package regime

import (
	"fmt"

	"RegimeWatch/internal/model"
)

// ShouldNotify decides whether the new classification escalates the most
// recent recorded one. Any state change notifies; within an unchanged state
// only a severity increase does.
func ShouldNotify(history []model.HistoryRecord, state model.State, severity model.Severity) (bool, string) {
	if len(history) == 0 {
		return false, ""
	}
	prev := history[len(history)-1]
	if state != prev.State {
		return true, fmt.Sprintf("state transition %s -> %s", prev.State, state)
	}
	if severity > prev.Severity {
		return true, fmt.Sprintf("severity increase within %s: %d -> %d", state, prev.Severity, severity)
	}
	return false, ""
}

// Escalate wraps ShouldNotify into the value handed to notifiers.
func Escalate(history []model.HistoryRecord, state model.State, severity model.Severity) model.Escalation {
	notify, reason := ShouldNotify(history, state, severity)
	return model.Escalation{Notify: notify, Reason: reason}
}

package model

import (
	"fmt"
	"time"
)

// State is the market regime recorded for one weekly evaluation.
type State string

const (
	StateNominal  State = "NOMINAL"
	StateDownturn State = "DOWNTURN"
	StateRecovery State = "RECOVERY"
)

// States lists every regime in canonical order.
var States = []State{StateNominal, StateDownturn, StateRecovery}

// ParseState converts a persisted value back into a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateNominal, StateDownturn, StateRecovery:
		return State(s), nil
	}
	return "", fmt.Errorf("unknown regime state %q", s)
}

func (s State) String() string { return string(s) }

// Severity is the bounded intensity of a regime, 0..MaxSeverity.
type Severity int

const MaxSeverity Severity = 3

// Valid reports whether the severity lies in the closed range [0, MaxSeverity].
func (s Severity) Valid() bool { return s >= 0 && s <= MaxSeverity }

// DateLayout is the ISO 8601 calendar date used in history and output files.
const DateLayout = "2006-01-02"

// HistoryRecord is one row of the append-only regime history.
type HistoryRecord struct {
	Date     time.Time
	State    State
	Severity Severity
}

// DateString returns the record date in DateLayout.
func (r HistoryRecord) DateString() string { return r.Date.Format(DateLayout) }

// Classification is the output of the state classifier.
type Classification struct {
	State         State
	Severity      Severity
	DownturnCount int
	RecoveryCount int
}

// Escalation is the decision handed to the notification layer.
type Escalation struct {
	Notify bool   `json:"notify"`
	Reason string `json:"reason,omitempty"`
}

// Snapshot is the structured result of one evaluation run.
type Snapshot struct {
	RunID              string     `json:"run_id"`
	Date               string     `json:"date"`
	State              State      `json:"state"`
	Severity           Severity   `json:"severity"`
	WeeksInState       int        `json:"weeks_in_state"`
	DownturnAlertCount int        `json:"downturn_alert_count"`
	RecoveryAlertCount int        `json:"recovery_alert_count"`
	Summary            string     `json:"summary"`
	RulesVersion       string     `json:"rules_version"`
	Escalation         Escalation `json:"escalation"`
	TriggeredAlerts    []string   `json:"triggered_alerts"`
}

package regime

import "RegimeWatch/internal/model"

// RuleSet is a versioned, immutable table of alert groups and thresholds.
// Classify never mutates it, so alternate sets can be substituted freely.
type RuleSet struct {
	Version string

	// DownturnAnchor gates the DOWNTURN branch; RecoveryAnchor gates RECOVERY.
	DownturnAnchor string
	RecoveryAnchor string

	// Ordered priority groups. A name may appear in both.
	Downturn []string
	Recovery []string

	// MinRecoverySignals is the corroborating count RECOVERY requires.
	MinRecoverySignals int
	// SeverityOffset is subtracted from the group count before clamping.
	SeverityOffset int
}

// DefaultRules is the rule set the weekly job runs with.
var DefaultRules = RuleSet{
	Version:        "v1",
	DownturnAnchor: model.AlertSPYBelow200MA,
	RecoveryAnchor: model.AlertSPYAbove200MA,
	Downturn: []string{
		model.AlertSPYBelow200MA,
		model.AlertVIXAbove25,
		model.AlertARKKOffHigh,
		model.AlertQQQBelow100MA,
		model.AlertHYGOffHigh,
		model.AlertIEFOffLow,
	},
	Recovery: []string{
		model.AlertSPYAbove200MA,
		model.AlertVIXBelow20,
		model.AlertQQQOffLow,
		model.AlertQQQBelow100MA, // used directionally
		model.AlertARKKOffLow,
		model.AlertHYGOffLow,
		model.AlertIEFOffHigh,
	},
	MinRecoverySignals: 3,
	SeverityOffset:     2,
}

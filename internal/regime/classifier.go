package regime

import "RegimeWatch/internal/model"

// Classify maps an alert set to a regime and severity.
//
// Downturn is always checked before recovery: a set that fires both anchors
// resolves to DOWNTURN.
func Classify(rules RuleSet, alerts model.AlertSet) model.Classification {
	c := model.Classification{
		DownturnCount: alerts.Count(rules.Downturn),
		RecoveryCount: alerts.Count(rules.Recovery),
	}

	switch {
	case alerts.Triggered(rules.DownturnAnchor):
		c.State = model.StateDownturn
		c.Severity = clampSeverity(c.DownturnCount - rules.SeverityOffset)
	case alerts.Triggered(rules.RecoveryAnchor) && c.RecoveryCount >= rules.MinRecoverySignals:
		c.State = model.StateRecovery
		c.Severity = clampSeverity(c.RecoveryCount - rules.SeverityOffset)
	default:
		c.State = model.StateNominal
		c.Severity = 0
	}
	return c
}

func clampSeverity(n int) model.Severity {
	if n < 0 {
		return 0
	}
	if n > int(model.MaxSeverity) {
		return model.MaxSeverity
	}
	return model.Severity(n)
}

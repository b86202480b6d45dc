package notifier

import (
	"fmt"
	"html"
	"strings"

	"RegimeWatch/internal/model"
)

// FormatTelegram renders a notification as Telegram HTML.
func FormatTelegram(n Notification) string {
	return fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(n.Title), html.EscapeString(n.Body))
}

// EscalationNotification describes a state change or severity increase.
func EscalationNotification(snap *model.Snapshot) Notification {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Reason: %s\n\n", snap.Escalation.Reason))
	writeSnapshot(&b, snap)
	return Notification{
		Kind:  KindEscalation,
		Title: fmt.Sprintf("Regime escalation %s: %s (severity %d)", snap.Date, snap.State, snap.Severity),
		Body:  b.String(),
	}
}

// WeeklyNotification is the routine weekly report.
func WeeklyNotification(snap *model.Snapshot) Notification {
	var b strings.Builder
	writeSnapshot(&b, snap)
	return Notification{
		Kind:  KindWeekly,
		Title: fmt.Sprintf("RegimeWatch weekly | %s", snap.Date),
		Body:  b.String(),
	}
}

// PeriodNotification wraps a monthly or quarterly narrative.
func PeriodNotification(label, period, text string) Notification {
	return Notification{
		Kind:  KindPeriod,
		Title: fmt.Sprintf("RegimeWatch %s summary | %s", label, period),
		Body:  text,
	}
}

// FormatState renders a snapshot for the /state command.
func FormatState(snap *model.Snapshot) string {
	if snap == nil {
		return "No evaluation has run yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Latest evaluation | %s\n\n", snap.Date))
	writeSnapshot(&b, snap)
	return b.String()
}

func writeSnapshot(b *strings.Builder, snap *model.Snapshot) {
	b.WriteString(fmt.Sprintf("State: %s (severity %d)\n", snap.State, snap.Severity))
	b.WriteString(fmt.Sprintf("Weeks in state: %d\n", snap.WeeksInState))
	b.WriteString(fmt.Sprintf("Downturn alerts: %d | Recovery alerts: %d\n", snap.DownturnAlertCount, snap.RecoveryAlertCount))
	if snap.Summary != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", snap.Summary))
	}
	if len(snap.TriggeredAlerts) > 0 {
		b.WriteString("\nTriggered alerts:\n")
		for _, a := range snap.TriggeredAlerts {
			b.WriteString(fmt.Sprintf("  - %s\n", a))
		}
	}
	b.WriteString(fmt.Sprintf("\nRules %s | run %s", snap.RulesVersion, snap.RunID))
}

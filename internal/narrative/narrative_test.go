package narrative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"RegimeWatch/internal/model"
)

func TestBanner(t *testing.T) {
	assert.Equal(t, "Downturn indicators have been active for 4 consecutive weeks.",
		Banner(DefaultBanners, model.StateDownturn, 4, 0))
	assert.Equal(t, "Market stress signals remain elevated for 4 weeks.",
		Banner(DefaultBanners, model.StateDownturn, 4, 1))
	assert.Equal(t, Banner(DefaultBanners, model.StateRecovery, 2, 0),
		Banner(DefaultBanners, model.StateRecovery, 2, 2))
	assert.Equal(t, Banner(DefaultBanners, model.StateRecovery, 2, 1),
		Banner(DefaultBanners, model.StateRecovery, 2, -1))
	assert.Empty(t, Banner(BannerSet{}, model.StateNominal, 1, 0))
}

func TestIndexForDate(t *testing.T) {
	d := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, IndexForDate(d))
	assert.Equal(t, IndexForDate(d), IndexForDate(d))
}

func TestMonthText(t *testing.T) {
	s := model.MonthlySummary{Weeks: 4, DominantState: model.StateDownturn, Transitions: 1, MaxSeverity: 2}
	assert.Equal(t, "2025-03: Market conditions were predominantly DOWNTURN over 4 weeks, "+
		"with 1 regime transition. Maximum severity reached level 2.", MonthText("2025-03", s))

	calm := model.MonthlySummary{Weeks: 5, DominantState: model.StateNominal}
	assert.Equal(t, "2025-04: Market conditions were predominantly NOMINAL over 5 weeks, "+
		"with no regime transitions. No elevated severity was observed.", MonthText("2025-04", calm))
}

func TestQuarterText(t *testing.T) {
	s := model.QuarterlySummary{
		Weeks:         13,
		DominantState: model.StateRecovery,
		Transitions:   3,
		LongestStreak: model.Streak{State: model.StateRecovery, Weeks: 7},
	}
	assert.Equal(t, "2025-Q2: Market conditions were predominantly RECOVERY across 13 weeks, "+
		"with 3 regime transitions. The longest uninterrupted streak was 7 weeks in RECOVERY. "+
		"No elevated severity was observed.", QuarterText("2025-Q2", s))
}

func TestPeriods(t *testing.T) {
	monthly, quarterly := Periods(model.Summaries{
		Monthly:   map[string]model.MonthlySummary{"2025-01": {Weeks: 1, DominantState: model.StateNominal}},
		Quarterly: map[string]model.QuarterlySummary{},
	})
	assert.Len(t, monthly, 1)
	assert.Contains(t, monthly["2025-01"].Text, "2025-01:")
	assert.Empty(t, quarterly)
}

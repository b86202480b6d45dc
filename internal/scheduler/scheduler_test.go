package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeWatch/internal/engine"
	"RegimeWatch/internal/history"
	"RegimeWatch/internal/model"
	"RegimeWatch/internal/notifier"
)

type stubSource struct {
	data model.MarketData
	err  error
}

func (s stubSource) Collect(context.Context) (model.MarketData, error) { return s.data, s.err }

type recordingNotifier struct{ got []notifier.Notification }

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, n notifier.Notification) error {
	r.got = append(r.got, n)
	return nil
}

func vix(closes ...float64) model.MarketData {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: time.Date(2025, 3, 3+i, 0, 0, 0, 0, time.UTC), Close: c}
	}
	return model.MarketData{"VIX": bars}
}

func newTestScheduler(t *testing.T, src MarketSource) (*Scheduler, *recordingNotifier) {
	t.Helper()
	dir := t.TempDir()
	eng := engine.New(history.NewCSVStore(filepath.Join(dir, "state_history.csv")), dir)
	rn := &recordingNotifier{}
	eng.Notifier = rn
	s := NewScheduler(context.Background(), src, eng, rn)
	s.Now = func() time.Time { return time.Date(2025, 3, 7, 22, 0, 0, 0, time.UTC) }
	return s, rn
}

func TestWeeklyTask(t *testing.T) {
	s, rn := newTestScheduler(t, stubSource{data: vix(18, 19, 21, 26, 27)})

	snap, err := s.RunWeeklyNow()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", snap.Date)
	assert.Equal(t, model.StateNominal, snap.State)
	assert.Contains(t, snap.TriggeredAlerts, model.AlertVIXAbove25)
	require.Len(t, rn.got, 1)
	assert.Equal(t, notifier.KindWeekly, rn.got[0].Kind)
}

func TestWeeklyTask_CollectFailure(t *testing.T) {
	s, rn := newTestScheduler(t, stubSource{err: errors.New("stooq down")})

	_, err := s.RunWeeklyNow()
	require.Error(t, err)
	require.Len(t, rn.got, 1)
	assert.Contains(t, rn.got[0].Body, "stooq down")

	hist, err := s.Engine.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, stubSource{})
	require.NoError(t, s.RegisterAll("0 0 22 * * 5", "0 0 9 1 * *", "0 30 9 1 1,4,7,10 *"))
	assert.Len(t, s.Cron.Entries(), 3)

	assert.Error(t, s.RegisterAll("not a cron", "0 0 9 1 * *", "0 30 9 1 1,4,7,10 *"))
}

func TestPreviousPeriodEnd(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, d(2025, 2, 28), previousPeriodEnd(d(2025, 3, 1), 1))
	assert.Equal(t, d(2024, 12, 31), previousPeriodEnd(d(2025, 1, 1), 1))
	assert.Equal(t, d(2025, 3, 31), previousPeriodEnd(d(2025, 4, 1), 3))
	assert.Equal(t, d(2024, 12, 31), previousPeriodEnd(d(2025, 2, 15), 3))
}

func TestMonthlyTaskSendsPreviousMonth(t *testing.T) {
	s, rn := newTestScheduler(t, stubSource{data: vix(15)})
	_, err := s.RunWeeklyNow()
	require.NoError(t, err)
	rn.got = nil

	s.Now = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }
	s.monthlyTask()
	s.quarterlyTask()
	require.Len(t, rn.got, 2)
	assert.Equal(t, notifier.KindPeriod, rn.got[0].Kind)
	assert.Equal(t, "RegimeWatch monthly summary | 2025-03", rn.got[0].Title)
	assert.Equal(t, "RegimeWatch quarterly summary | 2025-Q1", rn.got[1].Title)
	assert.Contains(t, rn.got[1].Body, "The longest uninterrupted streak was 1 weeks in NOMINAL.")
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, stubSource{data: vix(15)})
	ctx := context.Background()

	assert.Equal(t, "No evaluation has run yet.", s.HandleCommand(ctx, "/state"))
	assert.Equal(t, "No history yet.", s.HandleCommand(ctx, "/monthly"))
	assert.Contains(t, s.HandleCommand(ctx, "/help"), "/state")

	assert.Equal(t, "", s.HandleCommand(ctx, "/run"))
	assert.Contains(t, s.HandleCommand(ctx, "/state"), "State: NOMINAL (severity 0)")
	assert.Equal(t,
		"2025-03: Market conditions were predominantly NOMINAL over 1 weeks, with no regime transitions. No elevated severity was observed.",
		s.HandleCommand(ctx, "/monthly"))
	assert.Contains(t, s.HandleCommand(ctx, "/quarterly"), "2025-Q1")
}

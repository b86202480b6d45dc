package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/alerts"
	"RegimeWatch/internal/engine"
	"RegimeWatch/internal/model"
	"RegimeWatch/internal/narrative"
	"RegimeWatch/internal/notifier"
	"RegimeWatch/internal/summary"
)

// MarketSource supplies the daily bars the weekly evaluation runs on.
type MarketSource interface {
	Collect(ctx context.Context) (model.MarketData, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector MarketSource
	Engine    *engine.Engine
	Notifier  notifier.Notifier
	Ctx       context.Context
	Now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col MarketSource, eng *engine.Engine, n notifier.Notifier) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Engine:    eng,
		Notifier:  n,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the weekly evaluation and the monthly and quarterly summaries.
func (s *Scheduler) RegisterAll(weeklyCron, monthlyCron, quarterlyCron string) error {
	if _, err := s.Cron.AddFunc(weeklyCron, func() { s.weeklyTask() }); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	if _, err := s.Cron.AddFunc(monthlyCron, s.monthlyTask); err != nil {
		return fmt.Errorf("register monthly task: %w", err)
	}
	if _, err := s.Cron.AddFunc(quarterlyCron, s.quarterlyTask); err != nil {
		return fmt.Errorf("register quarterly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunWeeklyNow executes the weekly task immediately (for manual trigger / run on start).
func (s *Scheduler) RunWeeklyNow() (*model.Snapshot, error) {
	return s.weeklyTask()
}

func (s *Scheduler) weeklyTask() (*model.Snapshot, error) {
	log.Info().Msg("running weekly evaluation")
	now := s.Now()
	data, err := s.Collector.Collect(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("weekly collect")
		s.trySend(notifier.Notification{
			Kind:  notifier.KindWeekly,
			Title: "RegimeWatch weekly run failed",
			Body:  fmt.Sprintf("Market data collection failed: %v", err),
		})
		return nil, err
	}

	snap, err := s.Engine.Run(s.Ctx, alerts.Evaluate(data, now), now, engine.RunOptions{})
	if err != nil {
		log.Error().Err(err).Msg("weekly evaluation")
		s.trySend(notifier.Notification{
			Kind:  notifier.KindWeekly,
			Title: "RegimeWatch weekly run failed",
			Body:  fmt.Sprintf("Evaluation aborted before writing history: %v", err),
		})
		return nil, err
	}
	return snap, nil
}

func (s *Scheduler) monthlyTask() {
	log.Info().Msg("running monthly summary")
	sums, err := s.Engine.Summarize(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("monthly summary")
		return
	}
	key := summary.MonthKey(model.HistoryRecord{Date: previousPeriodEnd(s.Now(), 1)})
	if m, ok := sums.Monthly[key]; ok {
		s.trySend(notifier.PeriodNotification("monthly", key, narrative.MonthText(key, m)))
	}
}

func (s *Scheduler) quarterlyTask() {
	log.Info().Msg("running quarterly summary")
	sums, err := s.Engine.Summarize(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("quarterly summary")
		return
	}
	key := summary.QuarterKey(model.HistoryRecord{Date: previousPeriodEnd(s.Now(), 3)})
	if q, ok := sums.Quarterly[key]; ok {
		s.trySend(notifier.PeriodNotification("quarterly", key, narrative.QuarterText(key, q)))
	}
}

// previousPeriodEnd returns the last day of the period of months length
// that precedes the one containing now.
func previousPeriodEnd(now time.Time, months int) time.Time {
	y, m, _ := now.Date()
	start := int(m) - (int(m)-1)%months
	return time.Date(y, time.Month(start), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/run":
		if _, err := s.weeklyTask(); err != nil {
			return fmt.Sprintf("Weekly run failed: %v", err)
		}
		return ""
	case "/state":
		snap, err := s.Engine.Latest()
		if err != nil {
			return fmt.Sprintf("Could not read latest state: %v", err)
		}
		return notifier.FormatState(snap)
	case "/monthly":
		return s.latestPeriod(ctx, false)
	case "/quarterly":
		return s.latestPeriod(ctx, true)
	default:
		return "Commands:\n/state - latest regime\n/run - evaluate now\n/monthly - latest month\n/quarterly - latest quarter"
	}
}

func (s *Scheduler) latestPeriod(ctx context.Context, quarterly bool) string {
	hist, err := s.Engine.History(ctx)
	if err != nil {
		return fmt.Sprintf("Could not load history: %v", err)
	}
	if len(hist) == 0 {
		return "No history yet."
	}
	sums := summary.Build(hist)
	if quarterly {
		key := lastKey(sums.Quarterly)
		return narrative.QuarterText(key, sums.Quarterly[key])
	}
	key := lastKey(sums.Monthly)
	return narrative.MonthText(key, sums.Monthly[key])
}

func lastKey[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[len(keys)-1]
}

func (s *Scheduler) trySend(n notifier.Notification) {
	if err := s.Notifier.Notify(s.Ctx, n); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// Package engine runs the weekly regime evaluation and the period rollups
// against the history store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/alerts"
	"RegimeWatch/internal/history"
	"RegimeWatch/internal/metrics"
	"RegimeWatch/internal/model"
	"RegimeWatch/internal/narrative"
	"RegimeWatch/internal/notifier"
	"RegimeWatch/internal/recorder"
	"RegimeWatch/internal/regime"
	"RegimeWatch/internal/report"
	"RegimeWatch/internal/summary"
)

// Engine wires the regime logic to its persistence and delivery channels.
type Engine struct {
	Store     history.Store
	Rules     regime.RuleSet
	Banners   narrative.BannerSet
	OutputDir string

	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	// MetricsTextfile, when set, receives a textfile dump after each run.
	MetricsTextfile string
}

// New creates an Engine with the default rules and banners and no-op
// delivery channels.
func New(store history.Store, outputDir string) *Engine {
	return &Engine{
		Store:     store,
		Rules:     regime.DefaultRules,
		Banners:   narrative.DefaultBanners,
		OutputDir: outputDir,
		Notifier:  notifier.Noop{},
		Recorder:  recorder.NewNoopRecorder(),
	}
}

// RunOptions tunes a single evaluation.
type RunOptions struct {
	// DryRun computes the snapshot without writing or delivering anything.
	DryRun bool
}

// Run evaluates one week. The history record is appended as the last
// persistence step, after every derived value and output file is written;
// any earlier failure leaves the history untouched. Delivery failures after
// the append are logged and do not fail the run.
func (e *Engine) Run(ctx context.Context, set model.AlertSet, date time.Time, opts RunOptions) (*model.Snapshot, error) {
	snap, err := e.run(ctx, set, day(date), opts)
	if err != nil {
		if e.Metrics != nil {
			e.Metrics.RunFailed()
		}
		return nil, err
	}
	if opts.DryRun {
		return snap, nil
	}

	e.deliver(ctx, snap)
	if e.Metrics != nil {
		e.Metrics.ObserveEvaluation(snap)
		e.writeTextfile()
	}
	return snap, nil
}

func (e *Engine) run(ctx context.Context, set model.AlertSet, date time.Time, opts RunOptions) (*model.Snapshot, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn().Err(err).Msg("release history lock")
		}
	}()

	hist, err := e.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(hist) == 0 {
		log.Info().Msg("no history yet, cold start")
	}

	snap := e.evaluate(hist, set, date)
	log.Info().
		Str("date", snap.Date).
		Str("state", string(snap.State)).
		Int("severity", int(snap.Severity)).
		Int("weeks_in_state", snap.WeeksInState).
		Bool("notify", snap.Escalation.Notify).
		Msg("regime evaluated")

	if opts.DryRun {
		return snap, nil
	}

	if err := alerts.WriteCSV(filepath.Join(e.OutputDir, report.AlertsFile), set); err != nil {
		return nil, err
	}
	if err := report.WriteSnapshot(e.OutputDir, snap); err != nil {
		return nil, err
	}
	rec := model.HistoryRecord{Date: date, State: snap.State, Severity: snap.Severity}
	if err := e.Store.Append(ctx, rec); err != nil {
		return nil, err
	}
	return snap, nil
}

// evaluate derives the snapshot for date from the history as it stood
// before this run.
func (e *Engine) evaluate(hist []model.HistoryRecord, set model.AlertSet, date time.Time) *model.Snapshot {
	cls := regime.Classify(e.Rules, set)
	weeks := regime.WeeksInState(hist, cls.State) + 1
	return &model.Snapshot{
		RunID:              uuid.NewString(),
		Date:               date.Format(model.DateLayout),
		State:              cls.State,
		Severity:           cls.Severity,
		WeeksInState:       weeks,
		DownturnAlertCount: cls.DownturnCount,
		RecoveryAlertCount: cls.RecoveryCount,
		Summary:            narrative.Banner(e.Banners, cls.State, weeks, narrative.IndexForDate(date)),
		RulesVersion:       e.Rules.Version,
		Escalation:         regime.Escalate(hist, cls.State, cls.Severity),
		TriggeredAlerts:    set.TriggeredNames(),
	}
}

func (e *Engine) deliver(ctx context.Context, snap *model.Snapshot) {
	n := notifier.WeeklyNotification(snap)
	if snap.Escalation.Notify {
		n = notifier.EscalationNotification(snap)
	}
	if err := e.Notifier.Notify(ctx, n); err != nil {
		log.Error().Err(err).Str("kind", string(n.Kind)).Msg("notification failed, history already updated")
	}
	if err := e.Recorder.RecordEvaluation(snap); err != nil {
		log.Error().Err(err).Str("run_id", snap.RunID).Msg("record evaluation")
	}
}

func (e *Engine) writeTextfile() {
	if e.MetricsTextfile == "" {
		return
	}
	if err := e.Metrics.WriteTextfile(e.MetricsTextfile); err != nil {
		log.Error().Err(err).Str("path", e.MetricsTextfile).Msg("write metrics textfile")
	}
}

// Summarize rebuilds the monthly and quarterly rollups from the full history
// and writes them with their narratives.
func (e *Engine) Summarize(ctx context.Context) (model.Summaries, error) {
	hist, err := e.loadLocked(ctx)
	if err != nil {
		return model.Summaries{}, err
	}
	if len(hist) == 0 {
		log.Info().Msg("no history yet, writing empty summaries")
	}
	s := summary.Build(hist)
	if err := report.WriteAggregates(e.OutputDir, s); err != nil {
		return model.Summaries{}, err
	}
	if err := e.Recorder.RecordSummaries(s); err != nil {
		log.Error().Err(err).Msg("record summaries")
	}
	log.Info().Int("months", len(s.Monthly)).Int("quarters", len(s.Quarterly)).Msg("summaries written")
	return s, nil
}

// Latest returns the most recent snapshot, preferring the run archive and
// falling back to the snapshot file.
func (e *Engine) Latest() (*model.Snapshot, error) {
	snap, err := e.Recorder.LatestEvaluation()
	if err != nil {
		log.Warn().Err(err).Msg("read latest evaluation from archive")
	}
	if snap != nil {
		return snap, nil
	}
	return report.ReadSnapshot(e.OutputDir)
}

// History loads the full history under the store lock.
func (e *Engine) History(ctx context.Context) ([]model.HistoryRecord, error) {
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) ([]model.HistoryRecord, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	hist, err := e.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return hist, nil
}

func (e *Engine) lock() (func() error, error) {
	l, ok := e.Store.(history.Locker)
	if !ok {
		return func() error { return nil }, nil
	}
	unlock, err := l.Lock()
	if err != nil {
		if errors.Is(err, history.ErrLocked) {
			return nil, err
		}
		return nil, fmt.Errorf("lock history: %w", err)
	}
	return unlock, nil
}

// day truncates t to its calendar date in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

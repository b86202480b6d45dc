package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/alerts"
	"RegimeWatch/internal/model"
	"RegimeWatch/internal/regime"
)

// ErrHistoryExists is returned by Backfill when the history already has
// records; written history is never rewritten.
var ErrHistoryExists = errors.New("history already has records")

// FridayOnOrBefore returns the calendar date of the last Friday not after t.
func FridayOnOrBefore(t time.Time) time.Time {
	d := day(t)
	back := (int(d.Weekday()) - int(time.Friday) + 7) % 7
	return d.AddDate(0, 0, -back)
}

// BackfillDates returns the weeks Friday cutoffs that precede the Friday
// on or before end, oldest first. The week ending on that Friday itself is
// left to the regular weekly run.
func BackfillDates(end time.Time, weeks int) []time.Time {
	anchor := FridayOnOrBefore(end)
	dates := make([]time.Time, 0, weeks)
	for i := weeks; i >= 1; i-- {
		dates = append(dates, anchor.AddDate(0, 0, -7*i))
	}
	return dates
}

// Backfill reconstructs history for a cold start by evaluating each weekly
// cutoff against data and appending the records oldest first. It returns
// the number of records written.
func (e *Engine) Backfill(ctx context.Context, data model.MarketData, weeks int, end time.Time) (int, error) {
	if weeks <= 0 {
		return 0, fmt.Errorf("backfill weeks must be positive, got %d", weeks)
	}

	unlock, err := e.lock()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn().Err(err).Msg("release history lock")
		}
	}()

	hist, err := e.Store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load history: %w", err)
	}
	if len(hist) > 0 {
		return 0, fmt.Errorf("%w: %d records", ErrHistoryExists, len(hist))
	}

	written := 0
	for _, cutoff := range BackfillDates(end, weeks) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		cls := regime.Classify(e.Rules, alerts.Evaluate(data, cutoff))
		rec := model.HistoryRecord{Date: cutoff, State: cls.State, Severity: cls.Severity}
		if err := e.Store.Append(ctx, rec); err != nil {
			return written, err
		}
		written++
		log.Info().Str("date", rec.DateString()).Str("state", string(rec.State)).Int("severity", int(rec.Severity)).
			Msg("backfilled week")
	}
	return written, nil
}

// Package summary derives monthly and quarterly rollups from the regime history.
package summary

import (
	"fmt"

	"github.com/shopspring/decimal"

	"RegimeWatch/internal/model"
)

// MonthKey labels the calendar month of rec as YYYY-MM.
func MonthKey(rec model.HistoryRecord) string {
	return rec.Date.Format("2006-01")
}

// QuarterKey labels the calendar quarter of rec as YYYY-Qn.
func QuarterKey(rec model.HistoryRecord) string {
	q := (int(rec.Date.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", rec.Date.Year(), q)
}

// group splits history by key, keeping chronological order inside each
// period and first-seen order across periods.
func group(history []model.HistoryRecord, key func(model.HistoryRecord) string) ([]string, map[string][]model.HistoryRecord) {
	var keys []string
	groups := make(map[string][]model.HistoryRecord)
	for _, rec := range history {
		k := key(rec)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], rec)
	}
	return keys, groups
}

// period holds the statistics shared by both grains.
type period struct {
	weeks       int
	tally       *tally
	transitions int
	maxSeverity model.Severity
}

func summarize(records []model.HistoryRecord) period {
	p := period{weeks: len(records), tally: newTally()}
	for i, rec := range records {
		p.tally.add(rec.State)
		if i > 0 && records[i-1].State != rec.State {
			p.transitions++
		}
		if rec.Severity > p.maxSeverity {
			p.maxSeverity = rec.Severity
		}
	}
	return p
}

// Monthly groups history by calendar month.
func Monthly(history []model.HistoryRecord) map[string]model.MonthlySummary {
	keys, groups := group(history, MonthKey)
	out := make(map[string]model.MonthlySummary, len(keys))
	for _, k := range keys {
		p := summarize(groups[k])
		out[k] = model.MonthlySummary{
			Weeks:         p.weeks,
			DominantState: p.tally.mostCommon(),
			WeeksByState:  p.tally.asMap(),
			Transitions:   p.transitions,
			MaxSeverity:   p.maxSeverity,
		}
	}
	return out
}

// Quarterly groups history by calendar quarter.
func Quarterly(history []model.HistoryRecord) map[string]model.QuarterlySummary {
	keys, groups := group(history, QuarterKey)
	out := make(map[string]model.QuarterlySummary, len(keys))
	for _, k := range keys {
		records := groups[k]
		p := summarize(records)
		out[k] = model.QuarterlySummary{
			Weeks:          p.weeks,
			DominantState:  p.tally.mostCommon(),
			WeeksByState:   p.tally.asMap(),
			PercentByState: percentages(p.tally, p.weeks),
			Transitions:    p.transitions,
			LongestStreak:  LongestStreak(records),
			MaxSeverity:    p.maxSeverity,
		}
	}
	return out
}

// Build computes both grains from one history snapshot.
func Build(history []model.HistoryRecord) model.Summaries {
	return model.Summaries{
		Monthly:   Monthly(history),
		Quarterly: Quarterly(history),
	}
}

// percentages rounds each share to one decimal independently; the values are
// not forced to sum to 100.
func percentages(t *tally, weeks int) map[model.State]float64 {
	out := make(map[model.State]float64, len(t.counts))
	for _, s := range t.order {
		share := float64(t.counts[s]) / float64(weeks) * 100
		pct, _ := decimal.NewFromFloat(share).RoundBank(1).Float64()
		out[s] = pct
	}
	return out
}

// LongestStreak returns the longest run of identical consecutive states in
// records. The earliest run wins a tie.
func LongestStreak(records []model.HistoryRecord) model.Streak {
	var best, cur model.Streak
	for _, rec := range records {
		if cur.Weeks > 0 && rec.State == cur.State {
			cur.Weeks++
			continue
		}
		if cur.Weeks > best.Weeks {
			best = cur
		}
		cur = model.Streak{State: rec.State, Weeks: 1}
	}
	if cur.Weeks > best.Weeks {
		best = cur
	}
	return best
}

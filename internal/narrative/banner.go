// Package narrative renders the human-readable text attached to snapshots
// and period summaries. Every function here is pure.
package narrative

import (
	"strconv"
	"strings"
	"time"

	"RegimeWatch/internal/model"
)

// BannerSet is a versioned table of per-state banner templates. "{weeks}" is
// replaced by the number of consecutive weeks in the state.
type BannerSet struct {
	Version  string
	Variants map[model.State][]string
}

// DefaultBanners is the banner table used by the weekly job.
var DefaultBanners = BannerSet{
	Version: "v1",
	Variants: map[model.State][]string{
		model.StateNominal: {
			"Market conditions remain broadly stable.",
			"No sustained risk signals are currently active.",
		},
		model.StateDownturn: {
			"Downturn indicators have been active for {weeks} consecutive weeks.",
			"Market stress signals remain elevated for {weeks} weeks.",
		},
		model.StateRecovery: {
			"Recovery signals have persisted for {weeks} weeks, supported by trend improvement.",
			"Market conditions continue to normalize over the past {weeks} weeks.",
		},
	},
}

// Banner renders variant index (taken modulo the variant count) for state.
func Banner(set BannerSet, state model.State, weeks, index int) string {
	variants := set.Variants[state]
	if len(variants) == 0 {
		return ""
	}
	i := index % len(variants)
	if i < 0 {
		i += len(variants)
	}
	return strings.ReplaceAll(variants[i], "{weeks}", strconv.Itoa(weeks))
}

// IndexForDate derives a stable selection index from the ISO week of date,
// so reruns for the same week render the same banner.
func IndexForDate(date time.Time) int {
	_, week := date.ISOWeek()
	return week
}

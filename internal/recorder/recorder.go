package recorder

import "RegimeWatch/internal/model"

// Recorder archives evaluations and period rollups for later analysis.
// The CSV history stays the source of truth; the archive is best effort.
type Recorder interface {
	RecordEvaluation(snap *model.Snapshot) error
	RecordSummaries(s model.Summaries) error
	LatestEvaluation() (*model.Snapshot, error)
	Close() error
}

package recorder

import "RegimeWatch/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(_ *model.Snapshot) error   { return nil }
func (n *NoopRecorder) RecordSummaries(_ model.Summaries) error    { return nil }
func (n *NoopRecorder) LatestEvaluation() (*model.Snapshot, error) { return nil, nil }
func (n *NoopRecorder) Close() error                               { return nil }


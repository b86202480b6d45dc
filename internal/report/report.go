// Package report writes the JSON artifacts of evaluation and summary runs.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/model"
	"RegimeWatch/internal/narrative"
)

// Output file names inside the output directory.
const (
	SnapshotFile           = "state_snapshot.json"
	AlertsFile             = "alerts_snapshot.csv"
	MonthlySummaryFile     = "monthly_summary.json"
	QuarterlySummaryFile   = "quarterly_summary.json"
	MonthlyNarrativeFile   = "monthly_narrative.json"
	QuarterlyNarrativeFile = "quarterly_narrative.json"
)

// WriteSnapshot replaces the snapshot file in dir.
func WriteSnapshot(dir string, snap *model.Snapshot) error {
	return writeFiles(dir, map[string]any{SnapshotFile: snap})
}

// ReadSnapshot loads the snapshot written by the latest run, or nil when
// no run has written one yet.
func ReadSnapshot(dir string) (*model.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// WriteAggregates writes the monthly and quarterly summaries with their
// narratives. Either all four files are replaced or none is.
func WriteAggregates(dir string, s model.Summaries) error {
	monthly, quarterly := narrative.Periods(s)
	return writeFiles(dir, map[string]any{
		MonthlySummaryFile:     nonNil(s.Monthly),
		QuarterlySummaryFile:   nonNil(s.Quarterly),
		MonthlyNarrativeFile:   nonNil(monthly),
		QuarterlyNarrativeFile: nonNil(quarterly),
	})
}

// nonNil keeps empty aggregations serialized as {} rather than null.
func nonNil[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

// writeFiles stages every file as a temp file in dir and renames them into
// place only after all were written.
func writeFiles(dir string, files map[string]any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	staged := make(map[string]string, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for name, v := range files {
		tmp, err := stage(dir, name, v)
		if err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", name, err)
		}
		staged[name] = tmp
	}

	for name, tmp := range staged {
		if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
			cleanup()
			return fmt.Errorf("commit %s: %w", name, err)
		}
		delete(staged, name)
		log.Debug().Str("file", filepath.Join(dir, name)).Msg("output written")
	}
	return nil
}

func stage(dir, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/model"
)

var header = []string{"date", "state", "severity"}

// CSVStore keeps the history in a CSV file with a date,state,severity header.
type CSVStore struct {
	path string
}

// NewCSVStore returns a store backed by the file at path. The file is
// created on first Append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Load reads the full history. A missing or empty file is an empty history.
func (s *CSVStore) Load(_ context.Context) ([]model.HistoryRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", s.path).Msg("no history file yet, starting cold")
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]model.HistoryRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedRecord, err)
	}
	cols, err := columnIndex(head)
	if err != nil {
		return nil, err
	}

	var records []model.HistoryRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

type columns struct{ date, state, severity int }

func columnIndex(head []string) (columns, error) {
	idx := map[string]int{}
	for i, h := range head {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var c columns
	for _, want := range []struct {
		name string
		dst  *int
	}{{"date", &c.date}, {"state", &c.state}, {"severity", &c.severity}} {
		i, ok := idx[want.name]
		if !ok {
			return c, fmt.Errorf("%w: header missing %q column", ErrMalformedRecord, want.name)
		}
		*want.dst = i
	}
	return c, nil
}

func parseRow(row []string, c columns) (model.HistoryRecord, error) {
	date, err := time.Parse(model.DateLayout, strings.TrimSpace(row[c.date]))
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("date: %w", err)
	}
	state, err := model.ParseState(strings.TrimSpace(row[c.state]))
	if err != nil {
		return model.HistoryRecord{}, err
	}
	sev, err := strconv.Atoi(strings.TrimSpace(row[c.severity]))
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("severity: %w", err)
	}
	if !model.Severity(sev).Valid() {
		return model.HistoryRecord{}, fmt.Errorf("severity %d out of range", sev)
	}
	return model.HistoryRecord{Date: date, State: state, Severity: model.Severity(sev)}, nil
}

// Append writes rec as the last row, writing the header first when the file
// is new or empty.
func (s *CSVStore) Append(_ context.Context, rec model.HistoryRecord) error {
	if err := Validate(rec); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	w := csv.NewWriter(f)
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat history: %w", err)
	}
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("write history header: %w", err)
		}
	} else if err := terminateLastLine(f, info.Size()); err != nil {
		f.Close()
		return err
	}

	row := []string{rec.DateString(), rec.State.String(), strconv.Itoa(int(rec.Severity))}
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("write history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush history: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync history: %w", err)
	}
	return f.Close()
}

// terminateLastLine adds a newline when a hand-edited file lacks one, so the
// appended row does not fuse with the previous record.
func terminateLastLine(f *os.File, size int64) error {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return fmt.Errorf("read history tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("terminate history line: %w", err)
	}
	return nil
}

package alerts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/model"
)

var snapshotHeader = []string{"alert", "triggered"}

// ReadCSV loads an alert,triggered snapshot. Unparseable flags read as false.
func ReadCSV(path string) (model.AlertSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alerts snapshot: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) (model.AlertSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.AlertSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alerts header: %w", err)
	}
	nameCol, flagCol := -1, -1
	for i, h := range head {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "alert":
			nameCol = i
		case "triggered":
			flagCol = i
		}
	}
	if nameCol < 0 || flagCol < 0 {
		return nil, fmt.Errorf("alerts snapshot header %v: want columns alert,triggered", head)
	}

	set := model.AlertSet{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read alerts snapshot: %w", err)
		}
		if nameCol >= len(row) || flagCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		on, err := strconv.ParseBool(strings.TrimSpace(row[flagCol]))
		if err != nil {
			log.Warn().Str("alert", name).Str("value", row[flagCol]).Msg("unparseable alert flag, treating as false")
		}
		set[name] = on
	}
	return set, nil
}

// WriteCSV persists set in evaluation order; names outside AlertNames follow alphabetically.
func WriteCSV(path string, set model.AlertSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create alerts dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create alerts snapshot: %w", err)
	}
	if err := writeCSV(f, set); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, set model.AlertSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return fmt.Errorf("write alerts snapshot: %w", err)
	}
	for _, name := range orderedNames(set) {
		if err := cw.Write([]string{name, strconv.FormatBool(set[name])}); err != nil {
			return fmt.Errorf("write alerts snapshot: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func orderedNames(set model.AlertSet) []string {
	known := make(map[string]bool, len(model.AlertNames))
	names := make([]string, 0, len(set))
	for _, name := range model.AlertNames {
		known[name] = true
		if _, ok := set[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range set {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

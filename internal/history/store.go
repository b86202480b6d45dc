package history

import (
	"context"
	"errors"

	"RegimeWatch/internal/model"
)

var (
	// ErrMalformedRecord marks a persisted row that cannot be parsed back into a record.
	ErrMalformedRecord = errors.New("malformed history record")
	// ErrLocked is returned when another writer holds the history lock.
	ErrLocked = errors.New("history is locked by another writer")
)

// Store is the append-only, chronologically ordered regime log.
type Store interface {
	// Load returns every record in insertion order. A store that does not
	// exist yet yields an empty history.
	Load(ctx context.Context) ([]model.HistoryRecord, error)
	// Append adds one record to the end, creating the store if needed.
	Append(ctx context.Context, rec model.HistoryRecord) error
}

// Locker is implemented by stores that can exclude concurrent writers for
// the duration of a load-then-append sequence.
type Locker interface {
	Lock() (unlock func() error, err error)
}

// Validate checks that rec can be persisted and read back unchanged.
func Validate(rec model.HistoryRecord) error {
	if rec.Date.IsZero() {
		return errors.New("record date is zero")
	}
	if _, err := model.ParseState(string(rec.State)); err != nil {
		return err
	}
	if !rec.Severity.Valid() {
		return errors.New("record severity out of range")
	}
	return nil
}

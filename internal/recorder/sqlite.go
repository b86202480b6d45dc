package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"RegimeWatch/internal/model"
)

// SQLiteRecorder persists evaluations and rollups to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL UNIQUE,
			timestamp        INTEGER NOT NULL,
			date             TEXT NOT NULL,
			state            TEXT NOT NULL,
			severity         INTEGER NOT NULL,
			weeks_in_state   INTEGER NOT NULL,
			downturn_count   INTEGER NOT NULL,
			recovery_count   INTEGER NOT NULL,
			summary          TEXT,
			rules_version    TEXT,
			notify           INTEGER NOT NULL,
			reason           TEXT,
			triggered_alerts TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_date ON evaluations(date)`,

		`CREATE TABLE IF NOT EXISTS monthly_summaries (
			period         TEXT PRIMARY KEY,
			weeks          INTEGER NOT NULL,
			dominant_state TEXT NOT NULL,
			weeks_by_state TEXT,
			transitions    INTEGER NOT NULL,
			max_severity   INTEGER NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS quarterly_summaries (
			period           TEXT PRIMARY KEY,
			weeks            INTEGER NOT NULL,
			dominant_state   TEXT NOT NULL,
			weeks_by_state   TEXT,
			percent_by_state TEXT,
			transitions      INTEGER NOT NULL,
			longest_state    TEXT,
			longest_weeks    INTEGER NOT NULL,
			max_severity     INTEGER NOT NULL,
			updated_at       INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvaluation(snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts, err := json.Marshal(snap.TriggeredAlerts)
	if err != nil {
		return fmt.Errorf("marshal triggered alerts: %w", err)
	}
	_, err = r.db.Exec(`INSERT INTO evaluations
		(run_id, timestamp, date, state, severity, weeks_in_state,
		 downturn_count, recovery_count, summary, rules_version,
		 notify, reason, triggered_alerts)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.RunID, time.Now().Unix(), snap.Date, string(snap.State), int(snap.Severity), snap.WeeksInState,
		snap.DownturnAlertCount, snap.RecoveryAlertCount, snap.Summary, snap.RulesVersion,
		snap.Escalation.Notify, snap.Escalation.Reason, string(alerts),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// RecordSummaries upserts every period in s inside one transaction.
func (r *SQLiteRecorder) RecordSummaries(s model.Summaries) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for period, m := range s.Monthly {
		byState, err := json.Marshal(m.WeeksByState)
		if err != nil {
			return fmt.Errorf("marshal weeks by state: %w", err)
		}
		_, err = tx.Exec(`INSERT INTO monthly_summaries
			(period, weeks, dominant_state, weeks_by_state, transitions, max_severity, updated_at)
			VALUES (?,?,?,?,?,?,?)
			ON CONFLICT(period) DO UPDATE SET
				weeks = excluded.weeks,
				dominant_state = excluded.dominant_state,
				weeks_by_state = excluded.weeks_by_state,
				transitions = excluded.transitions,
				max_severity = excluded.max_severity,
				updated_at = excluded.updated_at`,
			period, m.Weeks, string(m.DominantState), string(byState), m.Transitions, int(m.MaxSeverity), now,
		)
		if err != nil {
			return fmt.Errorf("upsert monthly %s: %w", period, err)
		}
	}
	for period, q := range s.Quarterly {
		byState, err := json.Marshal(q.WeeksByState)
		if err != nil {
			return fmt.Errorf("marshal weeks by state: %w", err)
		}
		pct, err := json.Marshal(q.PercentByState)
		if err != nil {
			return fmt.Errorf("marshal percent by state: %w", err)
		}
		_, err = tx.Exec(`INSERT INTO quarterly_summaries
			(period, weeks, dominant_state, weeks_by_state, percent_by_state, transitions,
			 longest_state, longest_weeks, max_severity, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(period) DO UPDATE SET
				weeks = excluded.weeks,
				dominant_state = excluded.dominant_state,
				weeks_by_state = excluded.weeks_by_state,
				percent_by_state = excluded.percent_by_state,
				transitions = excluded.transitions,
				longest_state = excluded.longest_state,
				longest_weeks = excluded.longest_weeks,
				max_severity = excluded.max_severity,
				updated_at = excluded.updated_at`,
			period, q.Weeks, string(q.DominantState), string(byState), string(pct), q.Transitions,
			string(q.LongestStreak.State), q.LongestStreak.Weeks, int(q.MaxSeverity), now,
		)
		if err != nil {
			return fmt.Errorf("upsert quarterly %s: %w", period, err)
		}
	}
	return tx.Commit()
}

// LatestEvaluation returns the most recently recorded evaluation, or nil
// when none has been recorded.
func (r *SQLiteRecorder) LatestEvaluation() (*model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		snap   model.Snapshot
		state  string
		sev    int
		reason sql.NullString
		alerts sql.NullString
	)
	err := r.db.QueryRow(`SELECT run_id, date, state, severity, weeks_in_state,
			downturn_count, recovery_count, summary, rules_version, notify, reason, triggered_alerts
		FROM evaluations ORDER BY id DESC LIMIT 1`).Scan(
		&snap.RunID, &snap.Date, &state, &sev, &snap.WeeksInState,
		&snap.DownturnAlertCount, &snap.RecoveryAlertCount, &snap.Summary, &snap.RulesVersion,
		&snap.Escalation.Notify, &reason, &alerts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest evaluation: %w", err)
	}
	snap.State = model.State(state)
	snap.Severity = model.Severity(sev)
	snap.Escalation.Reason = reason.String
	if alerts.Valid && alerts.String != "" {
		if err := json.Unmarshal([]byte(alerts.String), &snap.TriggeredAlerts); err != nil {
			return nil, fmt.Errorf("decode triggered alerts: %w", err)
		}
	}
	return &snap, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

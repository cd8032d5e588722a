// Package ledger provides an append-only transition history backed by
// SQLite, for auditing what the machine did and when. It is never read
// back to make control decisions.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Kind classifies a ledger entry.
type Kind string

const (
	// KindTransition records a landed state change.
	KindTransition Kind = "transition"
	// KindGuard records a guard evaluation and its outcome.
	KindGuard Kind = "guard"
	// KindAction records an executed transition action.
	KindAction Kind = "action"
)

// Guard outcomes.
const (
	OutcomeOK       = "OK"
	OutcomeRejected = "REJECTED"
)

// Entry is a single row of the history. Column usage varies by kind:
// transitions fill From and To; guards fill From (the state the guard
// ran in), Outcome and, when rejected, Detail (the validation error);
// actions fill Detail (the action name).
type Entry struct {
	ID        int64
	Timestamp time.Time
	Kind      Kind
	Event     string
	From      string
	To        string
	Outcome   string
	Detail    string
	Session   string
}

// Ledger is the SQLite-backed history.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path and
// initializes the schema.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transition_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			kind TEXT NOT NULL,
			event TEXT NOT NULL,
			from_state TEXT,
			to_state TEXT,
			outcome TEXT,
			detail TEXT,
			session TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_transition_log_ts ON transition_log(timestamp);
		CREATE INDEX IF NOT EXISTS idx_transition_log_kind_ts ON transition_log(kind, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("create transition_log table: %w", err)
	}
	return nil
}

// RecordTransition appends a landed state change.
func (l *Ledger) RecordTransition(ts time.Time, event, from, to, session string) error {
	return l.append(ts, KindTransition, event, from, to, "", "", session)
}

// RecordGuard appends a guard evaluation. A nil err records OutcomeOK;
// otherwise the entry is OutcomeRejected with the error text as detail.
func (l *Ledger) RecordGuard(ts time.Time, event, state string, err error, session string) error {
	outcome, detail := OutcomeOK, ""
	if err != nil {
		outcome, detail = OutcomeRejected, err.Error()
	}
	return l.append(ts, KindGuard, event, state, "", outcome, detail, session)
}

// RecordAction appends an executed action.
func (l *Ledger) RecordAction(ts time.Time, action, event, session string) error {
	return l.append(ts, KindAction, event, "", "", "", action, session)
}

func (l *Ledger) append(ts time.Time, kind Kind, event, from, to, outcome, detail, session string) error {
	_, err := l.db.Exec(`
		INSERT INTO transition_log (timestamp, kind, event, from_state, to_state, outcome, detail, session)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ts.UTC().Unix(), string(kind), event, from, to, outcome, detail, session)
	return err
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, timestamp, kind, event, from_state, to_state, outcome, detail, session
		FROM transition_log
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// RecentByKind returns up to limit entries of one kind, newest first.
func (l *Ledger) RecentByKind(kind Kind, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, timestamp, kind, event, from_state, to_state, outcome, detail, session
		FROM transition_log
		WHERE kind = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the retention window and
// returns how many were dropped.
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Unix()
	result, err := l.db.Exec(`
		DELETE FROM transition_log WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var timestamp int64
		var from, to, outcome, detail, session sql.NullString

		err := rows.Scan(
			&entry.ID, &timestamp, &entry.Kind, &entry.Event,
			&from, &to, &outcome, &detail, &session,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		entry.From = from.String
		entry.To = to.String
		entry.Outcome = outcome.String
		entry.Detail = detail.String
		entry.Session = session.String

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

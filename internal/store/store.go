// Package store persists the board collections in SQLite.
//
// Three collections are persisted independently: active entries, staged
// entries and deployment history. Each is reloaded verbatim at process
// start. A malformed collection is never fatal: loading degrades to an
// empty set and the caller logs the condition.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"baboard/internal/board"
)

// Store wraps the SQLite database holding board state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and initializes the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS active_entries (
			operator_name TEXT NOT NULL,
			team_number INTEGER NOT NULL DEFAULT 0,
			entry_pressure INTEGER NOT NULL,
			entry_time TEXT NOT NULL,
			minutes_to_empty INTEGER NOT NULL,
			comments TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS staged_entries (
			operator_name TEXT NOT NULL,
			team_number INTEGER NOT NULL DEFAULT 0,
			entry_pressure INTEGER NOT NULL,
			comments TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operator_name TEXT NOT NULL,
			team_number INTEGER NOT NULL DEFAULT 0,
			entry_pressure INTEGER NOT NULL,
			entry_time TEXT NOT NULL,
			minutes_to_empty INTEGER NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			exit_time TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_exit ON history(exit_time DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// LoadActive loads the persisted active entries. An error means the
// collection is unusable and should be treated as empty.
func (s *Store) LoadActive(ctx context.Context) ([]*board.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operator_name, team_number, entry_pressure, entry_time,
		       minutes_to_empty, comments
		FROM active_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active entries: %w", err)
	}
	defer rows.Close()

	var entries []*board.Entry
	for rows.Next() {
		var e board.Entry
		var entryTime string
		if err := rows.Scan(&e.OperatorName, &e.TeamNumber, &e.EntryPressure,
			&entryTime, &e.MinutesToEmpty, &e.Comments); err != nil {
			return nil, fmt.Errorf("failed to scan active entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339, entryTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry_time: %w", err)
		}
		e.EntryTime = t
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active entries: %w", err)
	}
	return entries, nil
}

// LoadStaged loads the persisted staged entries.
func (s *Store) LoadStaged(ctx context.Context) ([]*board.StagedEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operator_name, team_number, entry_pressure, comments
		FROM staged_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staged entries: %w", err)
	}
	defer rows.Close()

	var entries []*board.StagedEntry
	for rows.Next() {
		var e board.StagedEntry
		if err := rows.Scan(&e.OperatorName, &e.TeamNumber, &e.EntryPressure, &e.Comments); err != nil {
			return nil, fmt.Errorf("failed to scan staged entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staged entries: %w", err)
	}
	return entries, nil
}

// LoadHistory loads the full deployment history, most recent exit first.
func (s *Store) LoadHistory(ctx context.Context) ([]*board.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operator_name, team_number, entry_pressure, entry_time,
		       minutes_to_empty, comments, exit_time
		FROM history
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*board.HistoryRecord
	for rows.Next() {
		var r board.HistoryRecord
		var entryTime, exitTime string
		if err := rows.Scan(&r.OperatorName, &r.TeamNumber, &r.EntryPressure,
			&entryTime, &r.MinutesToEmpty, &r.Comments, &exitTime); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		et, err := time.Parse(time.RFC3339, entryTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry_time: %w", err)
		}
		xt, err := time.Parse(time.RFC3339, exitTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse exit_time: %w", err)
		}
		r.EntryTime = et
		r.ExitTime = xt
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return records, nil
}

// ReplaceActive rewrites the persisted active set to match the board.
func (s *Store) ReplaceActive(ctx context.Context, entries []*board.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM active_entries`); err != nil {
		return fmt.Errorf("failed to clear active entries: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO active_entries
			(operator_name, team_number, entry_pressure, entry_time, minutes_to_empty, comments)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.OperatorName, e.TeamNumber, e.EntryPressure,
			e.EntryTime.UTC().Format(time.RFC3339), e.MinutesToEmpty, e.Comments)
		if err != nil {
			return fmt.Errorf("failed to insert active entry: %w", err)
		}
	}
	return tx.Commit()
}

// ReplaceStaged rewrites the persisted staged set to match the board.
func (s *Store) ReplaceStaged(ctx context.Context, entries []*board.StagedEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staged_entries`); err != nil {
		return fmt.Errorf("failed to clear staged entries: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO staged_entries
			(operator_name, team_number, entry_pressure, comments)
			VALUES (?, ?, ?, ?)
		`, e.OperatorName, e.TeamNumber, e.EntryPressure, e.Comments)
		if err != nil {
			return fmt.Errorf("failed to insert staged entry: %w", err)
		}
	}
	return tx.Commit()
}

// AppendHistory records a completed deployment. History is append-only and
// permanently retained.
func (s *Store) AppendHistory(ctx context.Context, rec *board.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history
		(operator_name, team_number, entry_pressure, entry_time, minutes_to_empty, comments, exit_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.OperatorName, rec.TeamNumber, rec.EntryPressure,
		rec.EntryTime.UTC().Format(time.RFC3339), rec.MinutesToEmpty, rec.Comments,
		rec.ExitTime.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"baboard/internal/board"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "board.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ActiveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entryTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	entries := []*board.Entry{
		{
			OperatorName:   "Jones",
			TeamNumber:     1,
			EntryPressure:  300,
			EntryTime:      entryTime,
			MinutesToEmpty: 34,
			Comments:       "nozzle team",
		},
		{
			OperatorName:   "Smith",
			EntryPressure:  250,
			EntryTime:      entryTime.Add(2 * time.Minute),
			MinutesToEmpty: 28,
		},
	}

	if err := s.ReplaceActive(ctx, entries); err != nil {
		t.Fatalf("ReplaceActive failed: %v", err)
	}

	loaded, err := s.LoadActive(ctx)
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(loaded))
	}
	if loaded[0].OperatorName != "Jones" || loaded[0].MinutesToEmpty != 34 {
		t.Errorf("first entry = %+v", loaded[0])
	}
	if !loaded[0].EntryTime.Equal(entryTime) {
		t.Errorf("EntryTime = %v, want %v", loaded[0].EntryTime, entryTime)
	}
	if loaded[1].TeamNumber != 0 {
		t.Errorf("teamless entry loaded with team %d", loaded[1].TeamNumber)
	}

	// Replace rewrites, not appends.
	if err := s.ReplaceActive(ctx, entries[:1]); err != nil {
		t.Fatalf("ReplaceActive failed: %v", err)
	}
	loaded, err = s.LoadActive(ctx)
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("loaded %d entries after replace, want 1", len(loaded))
	}
}

func TestStore_StagedRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	staged := []*board.StagedEntry{
		{OperatorName: "Reyes", TeamNumber: 3, EntryPressure: 300, Comments: "RIT"},
	}
	if err := s.ReplaceStaged(ctx, staged); err != nil {
		t.Fatalf("ReplaceStaged failed: %v", err)
	}

	loaded, err := s.LoadStaged(ctx)
	if err != nil {
		t.Fatalf("LoadStaged failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].OperatorName != "Reyes" || loaded[0].Comments != "RIT" {
		t.Errorf("loaded staged = %+v", loaded)
	}
}

func TestStore_HistoryAppendAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entryTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	first := &board.HistoryRecord{
		Entry: board.Entry{
			OperatorName:   "Jones",
			TeamNumber:     1,
			EntryPressure:  300,
			EntryTime:      entryTime,
			MinutesToEmpty: 34,
		},
		ExitTime: entryTime.Add(20 * time.Minute),
	}
	second := &board.HistoryRecord{
		Entry: board.Entry{
			OperatorName:   "Smith",
			EntryPressure:  200,
			EntryTime:      entryTime,
			MinutesToEmpty: 22,
		},
		ExitTime: entryTime.Add(25 * time.Minute),
	}

	if err := s.AppendHistory(ctx, first); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := s.AppendHistory(ctx, second); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	records, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("loaded %d records, want 2", len(records))
	}
	// Most recent first.
	if records[0].OperatorName != "Smith" {
		t.Errorf("first record = %q, want Smith", records[0].OperatorName)
	}
	if got := records[1].DurationMinutes(); got != 20 {
		t.Errorf("DurationMinutes = %d, want 20", got)
	}
}

func TestStore_MalformedCollectionFailsLoadOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Simulate a corrupted persisted collection.
	if _, err := s.db.Exec(`
		INSERT INTO active_entries
		(operator_name, team_number, entry_pressure, entry_time, minutes_to_empty, comments)
		VALUES ('Jones', 1, 300, 'not-a-timestamp', 34, '')
	`); err != nil {
		t.Fatalf("failed to insert bad row: %v", err)
	}

	if _, err := s.LoadActive(ctx); err == nil {
		t.Error("expected error for malformed entry_time")
	}

	// The other collections stay loadable.
	if _, err := s.LoadStaged(ctx); err != nil {
		t.Errorf("LoadStaged should be unaffected: %v", err)
	}
	if _, err := s.LoadHistory(ctx); err != nil {
		t.Errorf("LoadHistory should be unaffected: %v", err)
	}
}

package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"baboard/internal/board"
)

func sampleRecords() []*board.HistoryRecord {
	entryTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return []*board.HistoryRecord{
		{
			Entry: board.Entry{
				OperatorName:   "Jones",
				TeamNumber:     1,
				EntryPressure:  300,
				EntryTime:      entryTime,
				MinutesToEmpty: 34,
				Comments:       "nozzle team",
			},
			ExitTime: entryTime.Add(21*time.Minute + 45*time.Second),
		},
		{
			Entry: board.Entry{
				OperatorName:   "Smith",
				EntryPressure:  200,
				EntryTime:      entryTime,
				MinutesToEmpty: 22,
			},
			ExitTime: entryTime,
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleRecords())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first[0] != "1" || first[1] != "Jones" || first[2] != "300" {
		t.Errorf("first row = %v", first)
	}
	if first[5] != "21" {
		t.Errorf("duration = %q, want 21 (floored from 21:45)", first[5])
	}
	if first[6] != "nozzle team" {
		t.Errorf("comments = %q", first[6])
	}

	second := rows[1]
	if second[0] != "" {
		t.Errorf("teamless row should have empty team cell, got %q", second[0])
	}
	if second[5] != "0" {
		t.Errorf("zero-length deployment duration = %q, want 0", second[5])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(parsed))
	}
	if parsed[0][0] != "Team" || parsed[0][6] != "Comments" {
		t.Errorf("header = %v", parsed[0])
	}
	if parsed[1][1] != "Jones" {
		t.Errorf("first data row = %v", parsed[1])
	}
}

// Package export flattens deployment history into tabular rows for CSV
// download and command-line dumps.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"baboard/internal/board"
)

// Header is the fixed column order for history exports.
var Header = []string{
	"Team",
	"Name",
	"Entry Pressure (bar)",
	"Entry Time",
	"Exit Time",
	"Duration (minutes)",
	"Comments",
}

// Rows flattens history records into export rows, one per record, in the
// order given. Teamless operators get an empty team cell.
func Rows(records []*board.HistoryRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		team := ""
		if r.TeamNumber > 0 {
			team = strconv.Itoa(r.TeamNumber)
		}
		rows = append(rows, []string{
			team,
			r.OperatorName,
			strconv.Itoa(r.EntryPressure),
			r.EntryTime.UTC().Format(time.RFC3339),
			r.ExitTime.UTC().Format(time.RFC3339),
			strconv.Itoa(r.DurationMinutes()),
			r.Comments,
		})
	}
	return rows
}

// WriteCSV writes the header and all records to w.
func WriteCSV(w io.Writer, records []*board.HistoryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range Rows(records) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

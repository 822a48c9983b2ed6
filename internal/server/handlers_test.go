package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"baboard/internal/alert"
	"baboard/internal/board"
	"baboard/internal/monitor"
	"baboard/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := board.New()
	disp := alert.NewDispatcher(logger)
	mon := monitor.New(b, disp, time.Second, 10*time.Second, logger)

	return NewServer(b, st, mon, disp, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleAddEntry_AndBoardView(t *testing.T) {
	s := newTestServer(t)

	entryTime := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	rec := doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"name":         "Jones",
		"team_number":  1,
		"pressure_bar": 300,
		"entry_time":   entryTime,
		"comments":     "nozzle team",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var entry board.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if entry.MinutesToEmpty != 34 {
		t.Errorf("MinutesToEmpty = %d, want 34", entry.MinutesToEmpty)
	}

	rec = doJSON(t, s, http.MethodGet, "/board", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("board status = %d", rec.Code)
	}
	var view monitor.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("invalid board view: %v", err)
	}
	if len(view.Rows) != 1 || view.Rows[0].Name != "Jones" {
		t.Errorf("board rows = %+v", view.Rows)
	}
	if view.Rows[0].Tier != "working" {
		t.Errorf("fresh 300 bar entry tier = %q, want working", view.Rows[0].Tier)
	}

	rec = doJSON(t, s, http.MethodGet, "/health", nil)
	if !strings.Contains(rec.Body.String(), `"active_count":1`) {
		t.Errorf("health = %s", rec.Body.String())
	}
}

func TestHandleAddEntry_ValidationFailure(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"team_number":  1,
		"pressure_bar": 300,
		"entry_time":   time.Now().UTC().Format(time.RFC3339),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing operator name") {
		t.Errorf("body = %s", rec.Body.String())
	}

	// All-or-nothing: nothing was added.
	if s.Board.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d after rejected add", s.Board.ActiveCount())
	}
}

func TestHandleAddEntry_BadTimestamp(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"name":         "Jones",
		"pressure_bar": 300,
		"entry_time":   "10:30",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRemoveEntry_MovesToHistory(t *testing.T) {
	s := newTestServer(t)

	entryTime := time.Now().Add(-10 * time.Minute).UTC().Truncate(time.Second)
	doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"name":         "Jones",
		"team_number":  1,
		"pressure_bar": 300,
		"entry_time":   entryTime.Format(time.RFC3339),
	})

	rec := doJSON(t, s, http.MethodDelete, "/entries", map[string]any{
		"name":       "Jones",
		"entry_time": entryTime.Format(time.RFC3339),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if s.Board.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d after removal", s.Board.ActiveCount())
	}

	rec = doJSON(t, s, http.MethodGet, "/history", nil)
	if !strings.Contains(rec.Body.String(), "Jones") {
		t.Errorf("history = %s", rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/history.csv", nil)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Jones") {
		t.Errorf("csv = %s", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Body.String(), "Team,Name,Entry Pressure (bar)") {
		t.Errorf("csv header = %s", rec.Body.String())
	}
}

func TestHandleRemoveEntry_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodDelete, "/entries", map[string]any{
		"name":       "Nobody",
		"entry_time": time.Now().UTC().Format(time.RFC3339),
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStagedLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/staged", map[string]any{
		"name":         "Reyes",
		"team_number":  3,
		"pressure_bar": 300,
		"comments":     "RIT",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("stage status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/staged", nil)
	if !strings.Contains(rec.Body.String(), "Reyes") {
		t.Errorf("staged = %s", rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/staged/activate", map[string]any{
		"name":        "Reyes",
		"team_number": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("activate status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if s.Board.StagedCount() != 0 {
		t.Errorf("StagedCount = %d after activation", s.Board.StagedCount())
	}
	if s.Board.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d after activation", s.Board.ActiveCount())
	}

	// Activating again reports not found.
	rec = doJSON(t, s, http.MethodPost, "/staged/activate", map[string]any{
		"name":        "Reyes",
		"team_number": 3,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("second activate status = %d, want 404", rec.Code)
	}
}

func TestHandleClearBoard(t *testing.T) {
	s := newTestServer(t)

	now := time.Now().UTC().Format(time.RFC3339)
	doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"name": "Jones", "pressure_bar": 300, "entry_time": now,
	})
	doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"name": "Smith", "pressure_bar": 250, "entry_time": now,
	})

	rec := doJSON(t, s, http.MethodPost, "/board/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"removed":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if s.Board.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d after clear", s.Board.ActiveCount())
	}

	rec = doJSON(t, s, http.MethodGet, "/history", nil)
	if !strings.Contains(rec.Body.String(), "Jones") || !strings.Contains(rec.Body.String(), "Smith") {
		t.Errorf("history after clear = %s", rec.Body.String())
	}
}

func TestPersistenceSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "board.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	b := board.New()
	disp := alert.NewDispatcher(logger)
	mon := monitor.New(b, disp, time.Second, 10*time.Second, logger)
	s := NewServer(b, st, mon, disp, logger)

	doJSON(t, s, http.MethodPost, "/entries", map[string]any{
		"name":         "Jones",
		"pressure_bar": 300,
		"entry_time":   time.Now().UTC().Format(time.RFC3339),
	})
	doJSON(t, s, http.MethodPost, "/staged", map[string]any{
		"name":         "Reyes",
		"team_number":  3,
		"pressure_bar": 250,
	})
	st.Close()

	// Reopen as a fresh process would.
	st2, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer st2.Close()

	active, err := st2.LoadActive(context.Background())
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	staged, err := st2.LoadStaged(context.Background())
	if err != nil {
		t.Fatalf("LoadStaged failed: %v", err)
	}
	if len(active) != 1 || active[0].OperatorName != "Jones" {
		t.Errorf("active = %+v", active)
	}
	if len(staged) != 1 || staged[0].OperatorName != "Reyes" {
		t.Errorf("staged = %+v", staged)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"baboard/internal/board"
	"baboard/internal/export"
)

const MaxPayloadBytes = 65536

type entryRequest struct {
	Name        string `json:"name"`
	TeamNumber  int    `json:"team_number"`
	PressureBar int    `json:"pressure_bar"`
	EntryTime   string `json:"entry_time"` // RFC3339; empty is rejected
	Comments    string `json:"comments"`
}

type stagedRequest struct {
	Name        string `json:"name"`
	TeamNumber  int    `json:"team_number"`
	PressureBar int    `json:"pressure_bar"`
	Comments    string `json:"comments"`
}

type removeRequest struct {
	Name      string `json:"name"`
	EntryTime string `json:"entry_time"`
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && ct != "application/json" {
		s.respondJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "Invalid content type"})
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes))
	if err != nil {
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read payload"})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return false
	}
	return true
}

// respondError maps board errors onto HTTP statuses. Validation problems
// become a 400 listing every rejected field.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var verr *board.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "validation failed",
			"problems": verr.Problems,
		})
	case errors.Is(err, board.ErrNotFound):
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "Operator not found"})
	default:
		s.Logger.Error("request failed", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
	}
}

// HandleHealth handles health check requests.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_count": s.Board.ActiveCount(),
		"staged_count": s.Board.StagedCount(),
	})
}

// HandleBoard returns the ranked display snapshot.
func (s *Server) HandleBoard(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.Monitor.View())
}

// HandleAddEntry activates a new deployment.
func (s *Server) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var entryTime time.Time
	if req.EntryTime != "" {
		t, err := time.Parse(time.RFC3339, req.EntryTime)
		if err != nil {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "entry_time must be RFC3339"})
			return
		}
		entryTime = t
	}

	entry, err := s.Board.AddEntry(req.Name, req.TeamNumber, req.PressureBar, entryTime, req.Comments)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.persistActive(r)
	s.Logger.Info("entry added",
		"operator", entry.OperatorName,
		"team", entry.TeamNumber,
		"pressure", entry.EntryPressure,
		"minutes_to_empty", entry.MinutesToEmpty)
	s.respondJSON(w, http.StatusCreated, entry)
}

// HandleRemoveEntry takes an operator off the board and records the
// completed deployment.
func (s *Server) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	entryTime, err := time.Parse(time.RFC3339, req.EntryTime)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "entry_time must be RFC3339"})
		return
	}

	record, err := s.Board.RemoveEntry(req.Name, entryTime, time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.Dispatcher.Forget(record.Entry.Identity())
	s.persistActive(r)
	if err := s.Store.AppendHistory(r.Context(), record); err != nil {
		s.Logger.Error("Failed to record history", "error", err, "operator", record.OperatorName)
	}

	s.Logger.Info("entry removed",
		"operator", record.OperatorName,
		"duration_minutes", record.DurationMinutes())
	s.respondJSON(w, http.StatusOK, record)
}

// HandleClearBoard stands the incident down: every active entry moves to
// history at once.
func (s *Server) HandleClearBoard(w http.ResponseWriter, r *http.Request) {
	records := s.Board.Clear(time.Now())
	for _, record := range records {
		s.Dispatcher.Forget(record.Entry.Identity())
		if err := s.Store.AppendHistory(r.Context(), record); err != nil {
			s.Logger.Error("Failed to record history", "error", err, "operator", record.OperatorName)
		}
	}
	s.persistActive(r)

	s.Logger.Info("board cleared", "removed", len(records))
	s.respondJSON(w, http.StatusOK, map[string]int{"removed": len(records)})
}

// HandleListStaged returns the staged crew.
func (s *Server) HandleListStaged(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"staged": s.Board.StagedEntries()})
}

// HandleStageEntry registers a standby crew member.
func (s *Server) HandleStageEntry(w http.ResponseWriter, r *http.Request) {
	var req stagedRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	staged, err := s.Board.StageEntry(req.Name, req.TeamNumber, req.PressureBar, req.Comments)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.persistStaged(r)
	s.respondJSON(w, http.StatusCreated, staged)
}

// HandleActivateStaged promotes a staged crew member onto the board with
// entry time now.
func (s *Server) HandleActivateStaged(w http.ResponseWriter, r *http.Request) {
	var req stagedRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.Board.ActivateStaged(req.Name, req.TeamNumber, time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.persistStaged(r)
	s.persistActive(r)
	s.Logger.Info("staged entry activated",
		"operator", entry.OperatorName,
		"team", entry.TeamNumber)
	s.respondJSON(w, http.StatusCreated, entry)
}

// HandleRemoveStaged drops a staged crew member without deploying them.
func (s *Server) HandleRemoveStaged(w http.ResponseWriter, r *http.Request) {
	var req stagedRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.Board.RemoveStaged(req.Name, req.TeamNumber); err != nil {
		s.respondError(w, err)
		return
	}

	s.persistStaged(r)
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Staged entry removed"})
}

// HandleHistory returns all completed deployments, most recent first.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.LoadHistory(r.Context())
	if err != nil {
		s.Logger.Error("Failed to load history", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch history"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"history": records})
}

// HandleHistoryCSV downloads the deployment history as CSV.
func (s *Server) HandleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.LoadHistory(r.Context())
	if err != nil {
		s.Logger.Error("Failed to load history", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch history"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ba-history.csv"`)
	if err := export.WriteCSV(w, records); err != nil {
		s.Logger.Error("Failed to write CSV", "error", err)
	}
}

// Persistence on mutation paths is best-effort: a failed write is logged
// and the in-memory board stays authoritative.
func (s *Server) persistActive(r *http.Request) {
	if err := s.Store.ReplaceActive(r.Context(), s.Board.ActiveEntries()); err != nil {
		s.Logger.Error("Failed to persist active entries", "error", err)
	}
}

func (s *Server) persistStaged(r *http.Request) {
	if err := s.Store.ReplaceStaged(r.Context(), s.Board.StagedEntries()); err != nil {
		s.Logger.Error("Failed to persist staged entries", "error", err)
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("Failed to encode JSON response", "error", err)
	}
}

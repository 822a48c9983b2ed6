// Package server implements the HTTP console API for the BA control board.
//
// This package provides:
//   - Board view, entry and staging endpoints consumed by the console UI
//   - History listing and CSV download
//   - Health endpoint for monitoring
//   - Per-IP rate limiting and structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/board: the active/staged set owner and ranking logic
//   - internal/monitor: the cached display snapshot refreshed every tick
//   - internal/store: SQLite persistence of the three board collections
//   - internal/alert: the tier-crossing dispatcher (cleared on removals)
package server

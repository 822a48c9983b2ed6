package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"baboard/internal/alert"
	"baboard/internal/board"
	"baboard/internal/monitor"
	"baboard/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware
	RequestTimeout = 30 * time.Second

	// Grace period for draining in-flight requests on shutdown
	ShutdownTimeout = 10 * time.Second

	// Console clients poll the board every second, so the per-IP budget is
	// generous compared to a webhook receiver.
	RateLimitPerMinute = 600
)

// Server is the HTTP console for the board.
type Server struct {
	Board      *board.Board
	Store      *store.Store
	Monitor    *monitor.Monitor
	Dispatcher *alert.Dispatcher
	Logger     *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(b *board.Board, st *store.Store, mon *monitor.Monitor, disp *alert.Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		Board:      b,
		Store:      st,
		Monitor:    mon,
		Dispatcher: disp,
		Logger:     logger,
	}
}

// Router creates and configures the HTTP router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(ww, r)
		})
	})

	r.Use(NewRateLimitMiddleware(RateLimitPerMinute, s.Logger))

	r.Get("/health", s.HandleHealth)
	r.Get("/board", s.HandleBoard)
	r.Post("/entries", s.HandleAddEntry)
	r.Delete("/entries", s.HandleRemoveEntry)
	r.Post("/board/clear", s.HandleClearBoard)
	r.Get("/staged", s.HandleListStaged)
	r.Post("/staged", s.HandleStageEntry)
	r.Post("/staged/activate", s.HandleActivateStaged)
	r.Delete("/staged", s.HandleRemoveStaged)
	r.Get("/history", s.HandleHistory)
	r.Get("/history.csv", s.HandleHistoryCSV)

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. On cancellation in-flight requests are drained before
// returning, so callers can rely on deferred cleanup running afterwards.
func (s *Server) Run(ctx context.Context, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.Logger.Info("Starting server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Draining server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

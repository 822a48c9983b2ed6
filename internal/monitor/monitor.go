// Package monitor drives the periodic recomputation of board state: a fast
// tick refreshes the display view, a slow tick runs the alert sweep.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"baboard/internal/alert"
	"baboard/internal/board"
)

// Row is one display-ready line of the board, most urgent first.
type Row struct {
	TeamNumber  int       `json:"team_number,omitempty"`
	Name        string    `json:"name"`
	PressureBar int       `json:"pressure_bar"`
	EntryTime   time.Time `json:"entry_time"`
	WhistleTime time.Time `json:"whistle_time"`
	Remaining   string    `json:"remaining"`
	Tier        string    `json:"tier"`
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	Background  string    `json:"background"`
	Comments    string    `json:"comments,omitempty"`
}

// View is a fully computed board snapshot. Views are immutable once built;
// the monitor replaces the whole snapshot on every fast tick.
type View struct {
	GeneratedAt time.Time `json:"generated_at"`
	Rows        []Row     `json:"rows"`
}

// BuildView ranks and classifies the active set at the given instant.
func BuildView(entries []*board.Entry, now time.Time) *View {
	ranked := board.Rank(entries, now)
	rows := make([]Row, 0, len(ranked))
	for _, e := range ranked {
		st := board.Classify(e, now)
		rows = append(rows, Row{
			TeamNumber:  e.TeamNumber,
			Name:        e.OperatorName,
			PressureBar: e.EntryPressure,
			EntryTime:   e.EntryTime,
			WhistleTime: st.WhistleTime,
			Remaining:   st.RemainingFormatted,
			Tier:        st.Tier.String(),
			Label:       st.Tier.Label(),
			Color:       st.Tier.Color(),
			Background:  st.Tier.Background(),
			Comments:    e.Comments,
		})
	}
	return &View{GeneratedAt: now, Rows: rows}
}

// Monitor owns the two periodic tasks. Neither tick mutates entry data; the
// alert sweep's dedup set is the only mutable state, owned by the
// dispatcher.
type Monitor struct {
	board       *board.Board
	dispatcher  *alert.Dispatcher
	displayTick time.Duration
	alertTick   time.Duration
	logger      *slog.Logger
	view        atomic.Pointer[View]
}

func New(b *board.Board, d *alert.Dispatcher, displayTick, alertTick time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		board:       b,
		dispatcher:  d,
		displayTick: displayTick,
		alertTick:   alertTick,
		logger:      logger,
	}
}

// Run blocks until the context is cancelled, ticking the display refresh
// and the alert sweep on their own intervals. The two tasks run on separate
// goroutines so a slow alert delivery cannot stall the display refresh;
// each operates on an immutable copy of the active set.
func (m *Monitor) Run(ctx context.Context) {
	m.refresh(time.Now())
	m.logger.Info("monitor started",
		"display_tick", m.displayTick.String(),
		"alert_tick", m.alertTick.String())

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		display := time.NewTicker(m.displayTick)
		defer display.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-display.C:
				m.refresh(now)
			}
		}
	}()

	go func() {
		defer wg.Done()
		alerts := time.NewTicker(m.alertTick)
		defer alerts.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-alerts.C:
				m.dispatcher.Sweep(ctx, m.board.ActiveEntries(), now)
			}
		}
	}()

	wg.Wait()
	m.logger.Info("monitor stopped")
}

func (m *Monitor) refresh(now time.Time) {
	m.view.Store(BuildView(m.board.ActiveEntries(), now))
}

// View returns the latest display snapshot, computing one on demand if the
// monitor has not ticked yet.
func (m *Monitor) View() *View {
	if v := m.view.Load(); v != nil {
		return v
	}
	return BuildView(m.board.ActiveEntries(), time.Now())
}

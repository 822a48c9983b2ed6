// Package alert watches tier transitions and fires at most one notification
// per operator per tier crossing.
package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"baboard/internal/board"
	"baboard/internal/status"
)

type notifiedKey struct {
	identity board.Identity
	tier     status.Tier
}

// Dispatcher tracks which (operator, tier) pairs have already been
// announced. It is the only piece of mutable bookkeeping in the monitoring
// loop; each sweep updates the set atomically under the mutex.
type Dispatcher struct {
	mu        sync.Mutex
	notified  map[notifiedKey]struct{}
	notifiers []Notifier
	logger    *slog.Logger
}

func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notified:  make(map[notifiedKey]struct{}),
		notifiers: notifiers,
		logger:    logger,
	}
}

// Sweep classifies every active entry and fires pending whistle and overdue
// alerts. An operator already announced for a tier is never re-announced
// for it; channel failures are logged and do not block the remaining
// channels or entries. Deliveries happen outside the mutex so a slow
// channel never blocks Forget or the next sweep's bookkeeping.
func (d *Dispatcher) Sweep(ctx context.Context, entries []*board.Entry, now time.Time) {
	for _, n := range d.pending(entries, now) {
		d.logger.Warn("air supply alert",
			"operator", n.OperatorName,
			"team", n.TeamNumber,
			"tier", n.Tier.String(),
			"remaining", n.Remaining)

		for _, notifier := range d.notifiers {
			if err := notifier.Notify(ctx, n); err != nil {
				d.logger.Warn("alert channel failed",
					"channel", notifier.Name(),
					"operator", n.OperatorName,
					"error", err)
			}
		}
	}
}

// pending records the not-yet-announced tier crossings and returns their
// notifications. The dedup set update is atomic with respect to the sweep:
// a crossing is recorded before delivery is attempted, so a failing channel
// still counts as announced.
func (d *Dispatcher) pending(entries []*board.Entry, now time.Time) []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	var pending []Notification
	for _, e := range entries {
		st := board.Classify(e, now)
		if st.Tier != status.Whistle && st.Tier != status.Overdue {
			continue
		}

		key := notifiedKey{identity: e.Identity(), tier: st.Tier}
		if _, seen := d.notified[key]; seen {
			continue
		}
		d.notified[key] = struct{}{}

		pending = append(pending, Notification{
			OperatorName: e.OperatorName,
			TeamNumber:   e.TeamNumber,
			Tier:         st.Tier,
			Remaining:    st.RemainingFormatted,
			WhistleTime:  st.WhistleTime,
		})
	}
	return pending
}

// Forget clears all recorded alerts for an operator removed from the active
// set, so a later re-entry can alert again.
func (d *Dispatcher) Forget(identity board.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.notified {
		if key.identity == identity {
			delete(d.notified, key)
		}
	}
}

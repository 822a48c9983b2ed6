// Package board owns the active and staged operator sets and the ordering
// logic that decides how they are displayed.
package board

import (
	"errors"
	"sync"
	"time"

	"baboard/internal/airtime"
)

// ErrNotFound is returned when a remove or activate request names an
// operator that is not on the board.
var ErrNotFound = errors.New("operator not found on board")

// Board is the single logical owner of the active and staged sets. All
// reads and writes go through its mutex; entries handed out are never
// mutated afterwards, so callers may classify them lock-free.
type Board struct {
	mu     sync.RWMutex
	active []*Entry
	staged []*StagedEntry
}

// New creates an empty board.
func New() *Board {
	return &Board{}
}

// NewFromState creates a board pre-populated with collections loaded from
// the store.
func NewFromState(active []*Entry, staged []*StagedEntry) *Board {
	return &Board{active: active, staged: staged}
}

// AddEntry validates and activates a new deployment. MinutesToEmpty is
// computed from the entry pressure here and frozen for the life of the
// entry, even though that ties the estimate to the creation instant.
func (b *Board) AddEntry(name string, teamNumber, pressureBar int, entryTime time.Time, comments string) (*Entry, error) {
	problems := validateOperator(name, teamNumber, pressureBar)
	if entryTime.IsZero() {
		problems = append(problems, "missing entry time")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	entry := &Entry{
		OperatorName:   name,
		TeamNumber:     teamNumber,
		EntryPressure:  pressureBar,
		EntryTime:      entryTime,
		MinutesToEmpty: airtime.MinutesToEmpty(pressureBar),
		Comments:       comments,
	}

	b.mu.Lock()
	b.active = append(b.active, entry)
	b.mu.Unlock()

	return entry, nil
}

// StageEntry validates and registers a standby crew member.
func (b *Board) StageEntry(name string, teamNumber, pressureBar int, comments string) (*StagedEntry, error) {
	if problems := validateOperator(name, teamNumber, pressureBar); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	staged := &StagedEntry{
		OperatorName:  name,
		TeamNumber:    teamNumber,
		EntryPressure: pressureBar,
		Comments:      comments,
	}

	b.mu.Lock()
	b.staged = append(b.staged, staged)
	b.mu.Unlock()

	return staged, nil
}

// ActivateStaged promotes a staged crew member to an active entry with
// entry time now. Staged identity is (name, teamNumber).
func (b *Board) ActivateStaged(name string, teamNumber int, now time.Time) (*Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.staged {
		if s.OperatorName != name || s.TeamNumber != teamNumber {
			continue
		}
		entry := &Entry{
			OperatorName:   s.OperatorName,
			TeamNumber:     s.TeamNumber,
			EntryPressure:  s.EntryPressure,
			EntryTime:      now,
			MinutesToEmpty: airtime.MinutesToEmpty(s.EntryPressure),
			Comments:       s.Comments,
		}
		b.staged = append(b.staged[:i], b.staged[i+1:]...)
		b.active = append(b.active, entry)
		return entry, nil
	}
	return nil, ErrNotFound
}

// RemoveStaged drops a staged crew member without activating them.
func (b *Board) RemoveStaged(name string, teamNumber int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.staged {
		if s.OperatorName == name && s.TeamNumber == teamNumber {
			b.staged = append(b.staged[:i], b.staged[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// RemoveEntry takes an operator off the board and returns the history
// record for the completed deployment. Matching is by the composite
// (name, entryTime) key; if two operators collide on both, the first match
// is removed.
func (b *Board) RemoveEntry(name string, entryTime time.Time, now time.Time) (*HistoryRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.active {
		if e.OperatorName == name && e.EntryTime.Equal(entryTime) {
			b.active = append(b.active[:i], b.active[i+1:]...)
			return &HistoryRecord{Entry: *e, ExitTime: now}, nil
		}
	}
	return nil, ErrNotFound
}

// Clear removes every active entry at once, closing each deployment with
// exit time now. Used when the incident stands down.
func (b *Board) Clear(now time.Time) []*HistoryRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([]*HistoryRecord, 0, len(b.active))
	for _, e := range b.active {
		records = append(records, &HistoryRecord{Entry: *e, ExitTime: now})
	}
	b.active = nil
	return records
}

// ActiveEntries returns a copy of the active set.
func (b *Board) ActiveEntries() []*Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Entry, len(b.active))
	copy(out, b.active)
	return out
}

// StagedEntries returns a copy of the staged set.
func (b *Board) StagedEntries() []*StagedEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*StagedEntry, len(b.staged))
	copy(out, b.staged)
	return out
}

// ActiveCount reports how many operators are currently deployed.
func (b *Board) ActiveCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.active)
}

// StagedCount reports how many crew members are staged.
func (b *Board) StagedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.staged)
}

package board

import (
	"strings"
	"time"

	"baboard/internal/airtime"
	"baboard/internal/status"
)

// Entry is one active breathing-apparatus deployment.
//
// MinutesToEmpty is derived from EntryPressure when the entry is created and
// frozen afterwards; everything else shown for an entry (countdown, tier) is
// recomputed from wall-clock time on every evaluation. An Entry is never
// mutated after creation.
type Entry struct {
	OperatorName   string    `json:"operator_name"`
	TeamNumber     int       `json:"team_number,omitempty"` // 0 means no team
	EntryPressure  int       `json:"entry_pressure"`
	EntryTime      time.Time `json:"entry_time"`
	MinutesToEmpty int       `json:"minutes_to_empty"`
	Comments       string    `json:"comments,omitempty"`
}

// Identity is the composite key for an active entry. There is no surrogate
// id: two operators sharing a name are distinct only if their entry times
// differ, which is a known collision risk carried over from the board's
// paper procedure.
type Identity struct {
	Name      string
	EntryUnix int64
}

func (e *Entry) Identity() Identity {
	return Identity{Name: e.OperatorName, EntryUnix: e.EntryTime.UnixNano()}
}

// WhistleTime is the mandatory-exit instant for this entry.
func (e *Entry) WhistleTime() time.Time {
	return airtime.WhistleTime(e.EntryTime, e.MinutesToEmpty)
}

// Remaining is the time left until this entry's whistle.
func (e *Entry) Remaining(now time.Time) time.Duration {
	return airtime.Remaining(now, e.WhistleTime())
}

// StagedEntry is a pre-registered crew member (standby/RIT) awaiting
// deployment. It has no entry time yet; activation converts it into an
// Entry with the activation instant as entry time.
type StagedEntry struct {
	OperatorName  string `json:"operator_name"`
	TeamNumber    int    `json:"team_number,omitempty"`
	EntryPressure int    `json:"entry_pressure"`
	Comments      string `json:"comments,omitempty"`
}

// HistoryRecord is an immutable completed deployment: the entry fields plus
// the exit time.
type HistoryRecord struct {
	Entry
	ExitTime time.Time `json:"exit_time"`
}

// DurationMinutes is the deployment length in whole minutes, floored.
// Always >= 0 since exit happens after entry.
func (r *HistoryRecord) DurationMinutes() int {
	return int(r.ExitTime.Sub(r.EntryTime).Minutes())
}

// Status is the classification of an entry at a given instant, returned to
// display callers.
type Status struct {
	Tier               status.Tier   `json:"tier"`
	Remaining          time.Duration `json:"-"`
	RemainingFormatted string        `json:"remaining"`
	WhistleTime        time.Time     `json:"whistle_time"`
}

// Classify evaluates an entry against the current time. Pure function of
// (entry, now); calling it twice at the same instant yields identical
// results.
func Classify(e *Entry, now time.Time) Status {
	whistle := e.WhistleTime()
	remaining := airtime.Remaining(now, whistle)
	return Status{
		Tier:               status.Classify(remaining),
		Remaining:          remaining,
		RemainingFormatted: airtime.FormatRemaining(remaining),
		WhistleTime:        whistle,
	}
}

// ValidationError collects the reasons an add or stage request was rejected.
// Rejected requests never produce a partial entry.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid entry: " + strings.Join(e.Problems, "; ")
}

func validateOperator(name string, teamNumber, pressureBar int) []string {
	var problems []string
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "missing operator name")
	}
	if teamNumber < 0 {
		problems = append(problems, "team number must be positive")
	}
	if pressureBar <= 0 {
		problems = append(problems, "missing entry pressure")
	}
	return problems
}

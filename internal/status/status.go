// Package status classifies an operator's remaining air time into one of
// five urgency tiers. Classification is stateless: a tier is always
// recomputed from the current remaining time, never stored.
package status

import "time"

// Tier is an urgency classification. The underlying values double as the
// priority rank used for sorting: higher means more urgent.
type Tier int

const (
	Working Tier = iota + 1
	Reassess
	Action
	Whistle
	Overdue
)

// Tier boundaries on remaining time. Each window is inclusive on its upper
// edge: remaining of exactly 6:00 classifies as Whistle, 6:01 as Action.
const (
	whistleWindow  = 6 * time.Minute
	actionWindow   = 11 * time.Minute
	reassessWindow = 17 * time.Minute
)

// Classify maps remaining time to a tier. Zero and negative remaining are
// Overdue.
func Classify(remaining time.Duration) Tier {
	switch {
	case remaining <= 0:
		return Overdue
	case remaining <= whistleWindow:
		return Whistle
	case remaining <= actionWindow:
		return Action
	case remaining <= reassessWindow:
		return Reassess
	default:
		return Working
	}
}

// Rank is the numeric priority of the tier: Overdue=5 down to Working=1.
func (t Tier) Rank() int {
	return int(t)
}

func (t Tier) String() string {
	switch t {
	case Overdue:
		return "overdue"
	case Whistle:
		return "whistle"
	case Action:
		return "action"
	case Reassess:
		return "reassess"
	case Working:
		return "working"
	default:
		return "unknown"
	}
}

// Label is the display text shown on the board for this tier.
func (t Tier) Label() string {
	switch t {
	case Overdue:
		return "OVERDUE - EXIT NOW"
	case Whistle:
		return "Whistle - EXIT NOW"
	case Action:
		return "Action Time"
	case Reassess:
		return "Reassess"
	default:
		return "Working Time"
	}
}

// Color is the badge color for this tier.
func (t Tier) Color() string {
	switch t {
	case Overdue:
		return "#dc2626"
	case Whistle:
		return "#ef4444"
	case Action:
		return "#d97706"
	default:
		return "#16a34a"
	}
}

// Background is the row background color for this tier.
func (t Tier) Background() string {
	switch t {
	case Overdue:
		return "#fecaca"
	case Whistle:
		return "#fee2e2"
	case Action:
		return "#fef3c7"
	default:
		return "#dcfce7"
	}
}

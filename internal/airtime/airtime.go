// Package airtime estimates how long a breathing-apparatus cylinder lasts
// and derives the whistle (mandatory exit) time from it.
//
// The calibration table maps starting cylinder pressure to measured minutes
// until empty under working breathing rates. Pressures between calibration
// points are linearly interpolated; pressures above the table clamp to the
// top entry and pressures below the bottom entry count as non-operational.
package airtime

import (
	"fmt"
	"time"
)

// ReserveMinutes is the margin between the whistle and the predicted empty
// cylinder. Operators must be out of the hazard area with this much air
// still available. Fixed by procedure, not configurable.
const ReserveMinutes = 6

// Overdue is the countdown sentinel shown once the whistle time has passed.
const Overdue = "OVERDUE"

type calibrationPoint struct {
	bar     int
	minutes int
}

// Highest pressure first so brackets can be located top-down.
var calibration = []calibrationPoint{
	{bar: 300, minutes: 34},
	{bar: 250, minutes: 28},
	{bar: 150, minutes: 17},
	{bar: 100, minutes: 11},
	{bar: 55, minutes: 5},
}

// MinutesToEmpty estimates minutes of air for a cylinder at the given
// pressure. Interpolated minutes are floored to whole minutes. The result
// is always in [0, 34]; there are no error cases.
func MinutesToEmpty(pressureBar int) int {
	if pressureBar >= calibration[0].bar {
		return calibration[0].minutes
	}
	for i := 0; i < len(calibration)-1; i++ {
		hi, lo := calibration[i], calibration[i+1]
		if pressureBar >= lo.bar {
			ratio := float64(pressureBar-lo.bar) / float64(hi.bar-lo.bar)
			return int(float64(lo.minutes) + ratio*float64(hi.minutes-lo.minutes))
		}
	}
	// Below 55 bar the set is considered non-operational.
	return 0
}

// WhistleTime is the instant the operator must begin exiting: the predicted
// empty time minus the reserve margin.
func WhistleTime(entryTime time.Time, minutesToEmpty int) time.Time {
	return entryTime.Add(time.Duration(minutesToEmpty-ReserveMinutes) * time.Minute)
}

// Remaining reports the time left until the whistle. Negative once the
// whistle time has passed.
func Remaining(now, whistle time.Time) time.Duration {
	return whistle.Sub(now)
}

// FormatRemaining renders a countdown as MM:SS, floored to whole seconds.
// Zero and negative durations always render as the overdue sentinel, never
// as a negative clock.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return Overdue
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

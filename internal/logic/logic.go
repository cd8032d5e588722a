// Package logic contains the pure scheduling rules for the lamp timer.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time or TimeOfDay parameters.
package logic

import (
	"fmt"
	"time"
)

// MinutesPerDay is the length of a civil day in minutes.
const MinutesPerDay = 24 * 60

// TimeOfDay is a clock time expressed as whole minutes since midnight,
// in [0, MinutesPerDay). Seconds and finer units are discarded; the
// schedule has minute resolution.
type TimeOfDay int

// MinuteOfDay converts a wall-clock instant to its minute of day.
func MinuteOfDay(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// String renders the time as zero-padded HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

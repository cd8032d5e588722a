package logic

import "sync/atomic"

// Profile selects which configured duration the schedule runs.
type Profile int32

const (
	// Long is the extended photoperiod. It is the active profile at boot.
	Long Profile = iota
	// Short is the reduced photoperiod.
	Short
)

// String returns the profile name as published and displayed.
func (p Profile) String() string {
	if p == Short {
		return "SHORT"
	}
	return "LONG"
}

// Durations holds the configured window length in minutes for each
// profile. The durations are plain integers; no clock arithmetic is
// attached to them.
type Durations struct {
	Long  int
	Short int
}

// DefaultDurations is an 18 hour / 12 hour light cycle.
var DefaultDurations = Durations{Long: 18 * 60, Short: 12 * 60}

// Minutes returns the configured duration for p.
func (d Durations) Minutes(p Profile) int {
	if p == Short {
		return d.Short
	}
	return d.Long
}

// Selector holds the active profile. The dispatcher toggles it while
// the schedule evaluator reads it concurrently, so the value lives
// behind an atomic. Only one goroutine may call Toggle.
type Selector struct {
	d Durations
	v atomic.Int32
}

// NewSelector returns a Selector starting on the Long profile.
func NewSelector(d Durations) *Selector {
	return &Selector{d: d}
}

// Current returns the active profile.
func (s *Selector) Current() Profile {
	return Profile(s.v.Load())
}

// Toggle flips between Long and Short and returns the new profile.
func (s *Selector) Toggle() Profile {
	next := Long
	if s.Current() == Long {
		next = Short
	}
	s.v.Store(int32(next))
	return next
}

// Minutes returns the configured duration of the active profile.
func (s *Selector) Minutes() int {
	return s.d.Minutes(s.Current())
}

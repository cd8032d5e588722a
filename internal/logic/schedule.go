package logic

// Window is a daily lighting window opening at Start and lasting
// Minutes. Windows may wrap past midnight.
type Window struct {
	Start   TimeOfDay
	Minutes int
}

// Stop returns the minute of day the window closes, wrapped to
// [0, MinutesPerDay).
func (w Window) Stop() TimeOfDay {
	return TimeOfDay((int(w.Start) + w.Minutes) % MinutesPerDay)
}

// Contains reports whether the window covers the given minute of day.
//
// A window of zero (or negative) length is never active; a window of a
// full day or longer is always active. When the stop minute wraps past
// midnight the window covers [Start, midnight) and [midnight, Stop);
// otherwise it covers [Start, Stop).
func (w Window) Contains(now TimeOfDay) bool {
	if w.Minutes <= 0 {
		return false
	}
	if w.Minutes >= MinutesPerDay {
		return true
	}
	stop := w.Stop()
	if stop < w.Start {
		return now >= w.Start || now < stop
	}
	return w.Start <= now && now < stop
}

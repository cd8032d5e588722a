package logic

// EdgeWatcher detects level changes on a polled digital input by
// comparing each sample to the previous one. The zero value assumes
// the input starts low, so an input already high at the first poll
// registers one change.
type EdgeWatcher struct {
	last bool
}

// Observe records a polled level and reports whether it differs from
// the previous poll.
func (w *EdgeWatcher) Observe(level bool) bool {
	changed := level != w.last
	w.last = level
	return changed
}

// Level returns the most recently observed level.
func (w *EdgeWatcher) Level() bool {
	return w.last
}

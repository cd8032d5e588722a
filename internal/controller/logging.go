package controller

import "github.com/rs/zerolog"

// LogObserver writes machine diagnostics to a zerolog logger. Guard
// rejections log at warn with the validation error; transitions log
// at info; the rest is debug.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates a LogObserver writing to logger.
func NewLogObserver(logger zerolog.Logger) LogObserver {
	return LogObserver{log: logger}
}

// EventReceived implements Observer.
func (l LogObserver) EventReceived(state State, event Event) {
	l.log.Debug().
		Stringer("state", state).
		Str("event", event.Name()).
		Msg("Event received")
}

// GuardEvaluated implements Observer.
func (l LogObserver) GuardEvaluated(state State, event Event, err error) {
	if err != nil {
		l.log.Warn().
			Stringer("state", state).
			Str("event", event.Name()).
			Err(err).
			Msg("Event rejected")
		return
	}
	l.log.Debug().
		Stringer("state", state).
		Str("event", event.Name()).
		Msg("Guard passed")
}

// ActionExecuted implements Observer.
func (l LogObserver) ActionExecuted(action Action, event Event) {
	l.log.Debug().
		Str("action", string(action)).
		Str("event", event.Name()).
		Msg("Action executed")
}

// StateChanged implements Observer.
func (l LogObserver) StateChanged(from, to State) {
	l.log.Info().
		Stringer("from", from).
		Stringer("to", to).
		Msg("State changed")
}

// Compile-time interface satisfaction check.
var _ Observer = LogObserver{}

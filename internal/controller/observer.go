package controller

// Observer receives the machine's diagnostics: every event fed to
// Dispatch, every guard evaluation with its outcome, every action,
// and every state change. Hooks run inline on the dispatching
// goroutine, so implementations must return promptly.
type Observer interface {
	// EventReceived fires for every dispatched event, matched or not.
	EventReceived(state State, event Event)

	// GuardEvaluated fires after a guarded transition's guard runs.
	// err is nil when the guard passed.
	GuardEvaluated(state State, event Event, err error)

	// ActionExecuted fires once a transition's action has completed.
	ActionExecuted(action Action, event Event)

	// StateChanged fires when a transition lands, self-loops included.
	StateChanged(from, to State)
}

// NopObserver discards all diagnostics. Embed it to implement a
// partial Observer.
type NopObserver struct{}

func (NopObserver) EventReceived(State, Event)         {}
func (NopObserver) GuardEvaluated(State, Event, error) {}
func (NopObserver) ActionExecuted(Action, Event)       {}
func (NopObserver) StateChanged(State, State)          {}

// MultiObserver fans diagnostics out to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver notifying all provided
// observers in order.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// Add appends an observer to the chain.
func (m *MultiObserver) Add(o Observer) {
	m.observers = append(m.observers, o)
}

// EventReceived implements Observer.
func (m *MultiObserver) EventReceived(state State, event Event) {
	for _, o := range m.observers {
		o.EventReceived(state, event)
	}
}

// GuardEvaluated implements Observer.
func (m *MultiObserver) GuardEvaluated(state State, event Event, err error) {
	for _, o := range m.observers {
		o.GuardEvaluated(state, event, err)
	}
}

// ActionExecuted implements Observer.
func (m *MultiObserver) ActionExecuted(action Action, event Event) {
	for _, o := range m.observers {
		o.ActionExecuted(action, event)
	}
}

// StateChanged implements Observer.
func (m *MultiObserver) StateChanged(from, to State) {
	for _, o := range m.observers {
		o.StateChanged(from, to)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Observer = NopObserver{}
	_ Observer = (*MultiObserver)(nil)
)

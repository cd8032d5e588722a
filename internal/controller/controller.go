// Package controller implements the state machine that owns the lamp
// schedule. A guarded TurnOn anchors a session start time and starts
// the evaluator, TurnOff stops it and darkens the lamp, ChangeProfile
// flips the photoperiod. Transitions are described by a pure table
// (Decide) and executed by Dispatch.
package controller

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/lamp-timer/internal/logic"
)

// DefaultInterval is the background evaluator cadence when none is
// configured.
const DefaultInterval = 100 * time.Millisecond

// State identifies the machine's current mode.
type State uint32

const (
	// Off is the initial state: no session, lamp dark.
	Off State = iota
	// On means a session start time is recorded and the schedule is
	// being evaluated.
	On
)

// String returns the state name as published and displayed.
func (s State) String() string {
	switch s {
	case Off:
		return "OFF"
	case On:
		return "ON"
	default:
		return "UNKNOWN"
	}
}

// Event is a request for the machine to act.
type Event interface {
	// Name returns the event name used by diagnostics.
	Name() string
}

// TurnOn asks the machine to begin a session anchored at the
// operator-supplied start time text. The text passes through the
// start time guard before the transition fires.
type TurnOn struct {
	Text string
}

// Name implements Event.
func (TurnOn) Name() string { return "turn_on" }

// TurnOff ends the session and darkens the lamp.
type TurnOff struct{}

// Name implements Event.
func (TurnOff) Name() string { return "turn_off" }

// ChangeProfile flips the duration profile between long and short.
type ChangeProfile struct{}

// Name implements Event.
func (ChangeProfile) Name() string { return "change_profile" }

// Action identifies a transition's side effect for diagnostics.
type Action string

const (
	ActionStartSession  Action = "start_session"
	ActionStopSession   Action = "stop_session"
	ActionToggleProfile Action = "toggle_profile"
)

// Transition describes what an event does in a given state.
type Transition struct {
	Next    State
	Action  Action
	Guarded bool
}

// Decide is the transition table. It maps the current state and an
// event to the transition that would fire, or reports that the event
// is unmatched and ignored. It is pure; the guard and the action run
// in Dispatch.
//
//	STATE  EVENT           GUARD         ACTION           STATE
//	Off  + TurnOn         [start time] / start_session  = On
//	On   + TurnOff                     / stop_session   = Off
//	On   + ChangeProfile               / toggle_profile = On
func Decide(state State, event Event) (Transition, bool) {
	switch state {
	case Off:
		if _, ok := event.(TurnOn); ok {
			return Transition{Next: On, Action: ActionStartSession, Guarded: true}, true
		}
	case On:
		switch event.(type) {
		case TurnOff:
			return Transition{Next: Off, Action: ActionStopSession}, true
		case ChangeProfile:
			return Transition{Next: On, Action: ActionToggleProfile}, true
		}
	}
	return Transition{}, false
}

// Lamp is the output the schedule drives.
type Lamp interface {
	Set(on bool) error
	On() bool
}

// Config wires a Controller's collaborators. Lamp is required; the
// rest default sensibly.
type Config struct {
	// Lamp is the output the schedule drives.
	Lamp Lamp

	// Durations supplies the window length for each profile. The zero
	// value falls back to logic.DefaultDurations.
	Durations logic.Durations

	// Interval is the background evaluator cadence. Defaults to
	// DefaultInterval.
	Interval time.Duration

	// Manual suppresses the background evaluator; the caller drives
	// Evaluate from its own loop instead.
	Manual bool

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Observer receives diagnostics. Defaults to NopObserver.
	Observer Observer
}

// Controller is the two-state machine that owns the lamp schedule.
//
// Dispatch is not safe for concurrent use: the daemon loop is the
// single event source. The background evaluator shares the start time
// and profile with the dispatcher through atomics, per-field; no
// multi-field update needs to be atomic as a group.
type Controller struct {
	lamp     Lamp
	profile  *logic.Selector
	interval time.Duration
	manual   bool
	clock    func() time.Time
	obs      *MultiObserver

	state   atomic.Uint32
	start   atomic.Int32
	session string

	running  atomic.Bool
	evalStop chan struct{}
	evalDone chan struct{}
}

// New builds a Controller in the Off state on the Long profile.
func New(cfg Config) *Controller {
	if cfg.Durations == (logic.Durations{}) {
		cfg.Durations = logic.DefaultDurations
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	obs := NewMultiObserver()
	if cfg.Observer != nil {
		obs.Add(cfg.Observer)
	}
	return &Controller{
		lamp:     cfg.Lamp,
		profile:  logic.NewSelector(cfg.Durations),
		interval: cfg.Interval,
		manual:   cfg.Manual,
		clock:    cfg.Clock,
		obs:      obs,
	}
}

// Observe appends an observer to the controller's diagnostics chain.
// Register observers before the first Dispatch; registration is not
// synchronized with dispatching.
func (c *Controller) Observe(o Observer) {
	c.obs.Add(o)
}

// Dispatch feeds one event through the transition table. It returns
// true when a transition fired and false when the event was ignored
// or rejected by the guard. Actions complete before Dispatch returns:
// in particular, TurnOff does not return until the evaluator
// goroutine has exited.
func (c *Controller) Dispatch(event Event) bool {
	state := c.State()
	c.obs.EventReceived(state, event)

	t, ok := Decide(state, event)
	if !ok {
		return false
	}

	var start logic.TimeOfDay
	if t.Guarded {
		on := event.(TurnOn)
		var err error
		start, err = logic.ParseStartTime(on.Text)
		c.obs.GuardEvaluated(state, event, err)
		if err != nil {
			return false
		}
	}

	switch t.Action {
	case ActionStartSession:
		// Record the anchor before the evaluator can read it.
		c.start.Store(int32(start))
		c.session = uuid.NewString()
		c.startEvaluator()
	case ActionStopSession:
		c.stopEvaluator()
		if err := c.lamp.Set(false); err != nil {
			log.Error().Err(err).Msg("Lamp write failed")
		}
	case ActionToggleProfile:
		c.profile.Toggle()
	}
	c.obs.ActionExecuted(t.Action, event)

	c.state.Store(uint32(t.Next))
	c.obs.StateChanged(state, t.Next)
	return true
}

// Evaluate runs one schedule evaluation and drives the lamp. The
// cooperative loop calls this once per iteration in manual mode.
// While Off it does nothing.
func (c *Controller) Evaluate() {
	if c.State() != On {
		return
	}
	c.evaluate(c.clock())
}

func (c *Controller) evaluate(now time.Time) {
	window := logic.Window{
		Start:   logic.TimeOfDay(c.start.Load()),
		Minutes: c.profile.Minutes(),
	}
	if err := c.lamp.Set(window.Contains(logic.MinuteOfDay(now))); err != nil {
		log.Error().Err(err).Msg("Lamp write failed")
	}
}

// startEvaluator launches the background schedule task. Starting an
// already running task is a no-op, as is starting in manual mode.
func (c *Controller) startEvaluator() {
	if c.manual || c.running.Load() {
		return
	}
	c.running.Store(true)
	c.evalStop = make(chan struct{})
	c.evalDone = make(chan struct{})
	go c.evaluateLoop(c.evalStop, c.evalDone)
}

// stopEvaluator signals the background task and blocks until it has
// exited. Stopping when nothing runs is a no-op.
func (c *Controller) stopEvaluator() {
	if !c.running.Load() {
		return
	}
	close(c.evalStop)
	<-c.evalDone
	c.running.Store(false)
}

// evaluateLoop drives the lamp until stop closes. It evaluates first
// and waits after, so the lamp reacts within one interval of TurnOn.
// The stop signal is only honored between iterations.
func (c *Controller) evaluateLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		c.evaluate(c.clock())
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// State returns the current machine state. Safe from any goroutine.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// StartTime returns the session's anchor minute. It is meaningful
// only while On; after TurnOff it retains the ended session's value
// until the next TurnOn overwrites it.
func (c *Controller) StartTime() logic.TimeOfDay {
	return logic.TimeOfDay(c.start.Load())
}

// Profile returns the active duration profile.
func (c *Controller) Profile() logic.Profile {
	return c.profile.Current()
}

// Session returns the current session identifier. Like StartTime it
// retains the last session's value between sessions, and is empty
// before the first TurnOn.
func (c *Controller) Session() string {
	return c.session
}

// EvaluatorRunning reports whether the background task is alive.
func (c *Controller) EvaluatorRunning() bool {
	return c.running.Load()
}

// Package status provides a thread-safe status tracker for the
// lamp-timer daemon. It is read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/lamp-timer/internal/controller"
	"github.com/sweeney/lamp-timer/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	EvaluateMs   int64
	LongMinutes  int
	ShortMinutes int
	Broker       string
	HTTPAddr     string
}

// Counts tallies what the machine has done since the daemon started.
type Counts struct {
	TurnOn         int
	TurnOff        int
	ProfileChanges int
	Rejected       int
}

// Snapshot is a point-in-time view of daemon state. It is a value
// type, safe to use after the lock is released.
type Snapshot struct {
	State         controller.State
	Profile       logic.Profile
	ScheduleStart logic.TimeOfDay
	Session       string
	LampOn        bool
	Counts        Counts
	Started       time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.Started)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(started time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Started: started,
			Config:  cfg,
		},
	}
}

// Update sets the machine state, active profile, schedule anchor,
// session and lamp level. Called from the poll loop on every tick.
func (t *Tracker) Update(state controller.State, profile logic.Profile, start logic.TimeOfDay, session string, lampOn bool) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Profile = profile
	t.snap.ScheduleStart = start
	t.snap.Session = session
	t.snap.LampOn = lampOn
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

func (t *Tracker) addRejected() {
	t.mu.Lock()
	t.snap.Counts.Rejected++
	t.mu.Unlock()
}

func (t *Tracker) recordTransition(from, to controller.State) {
	t.mu.Lock()
	switch {
	case from == controller.Off && to == controller.On:
		t.snap.Counts.TurnOn++
	case from == controller.On && to == controller.Off:
		t.snap.Counts.TurnOff++
	case from == controller.On && to == controller.On:
		t.snap.Counts.ProfileChanges++
	}
	t.mu.Unlock()
}

// Counter feeds machine activity into a Tracker's counts.
type Counter struct {
	controller.NopObserver
	tracker *Tracker
}

// NewCounter returns a Counter updating t.
func NewCounter(t *Tracker) *Counter {
	return &Counter{tracker: t}
}

func (c *Counter) GuardEvaluated(state controller.State, event controller.Event, err error) {
	if err != nil {
		c.tracker.addRejected()
	}
}

func (c *Counter) StateChanged(from, to controller.State) {
	c.tracker.recordTransition(from, to)
}

// Compile-time interface satisfaction check.
var _ controller.Observer = (*Counter)(nil)

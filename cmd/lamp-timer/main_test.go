package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/lamp-timer/internal/controller"
	"github.com/sweeney/lamp-timer/internal/gpio"
	"github.com/sweeney/lamp-timer/internal/logic"
	"github.com/sweeney/lamp-timer/internal/mqtt"
	"github.com/sweeney/lamp-timer/internal/status"
)

func fixedClock(hour, min int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 2, 3, hour, min, 0, 0, time.UTC)
	}
}

// faultInput wraps a FakeInput and returns errors for a range of Read calls.
// The fault range is fixed at construction.
type faultInput struct {
	inner      *gpio.FakeInput
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (f *faultInput) Read() (bool, error) {
	i := f.call
	f.call++
	if i >= f.faultStart && i < f.faultEnd {
		return false, errors.New("gpio fault")
	}
	return f.inner.Read()
}

func (f *faultInput) Close() error { return f.inner.Close() }

// newTestDaemon wires a daemon around fakes in manual mode and brings
// the machine up with a 07:30 start, mirroring the daemon's own startup.
func newTestDaemon(t *testing.T, onOff, mode gpio.Input, clock func() time.Time) (*daemon, *mqtt.FakePublisher, *gpio.FakeOutput) {
	t.Helper()

	out := gpio.NewFakeOutput()
	lamp := gpio.NewLamp("test", out)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(clock(), status.Config{PollMs: 1, EvaluateMs: 100})

	ctl := controller.New(controller.Config{
		Lamp:      lamp,
		Durations: logic.Durations{Long: 1080, Short: 720},
		Manual:    true,
		Clock:     clock,
	})
	ctl.Observe(status.NewCounter(tracker))
	ctl.Observe(mqtt.NewEventObserver(pub, ctl, clock))

	if !ctl.Dispatch(controller.TurnOn{Text: "07:30"}) {
		t.Fatal("initial turn_on rejected")
	}

	d := &daemon{
		ctl:     ctl,
		onOff:   onOff,
		mode:    mode,
		lamp:    lamp,
		pub:     pub,
		conn:    pub,
		tracker: tracker,
		text:    "07:30",
		manual:  true,
		now:     clock,
	}
	return d, pub, out
}

// driveLoop runs the daemon loop through nTicks ticks and then delivers
// the signal, returning the loop's error.
func driveLoop(t *testing.T, d *daemon, nTicks int, s os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.run(tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- s

	return <-errCh
}

func TestLoopIdleTicksDriveLampFromSchedule(t *testing.T) {
	// 08:00 is inside the 07:30 + 18h window, so the first evaluate
	// lights the lamp; later ticks are suppressed duplicates.
	onOff := gpio.NewFakeInput(false)
	mode := gpio.NewFakeInput(false)
	d, pub, out := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	// One write to light it, one from the shutdown turn_off.
	writes := out.Writes()
	if len(writes) != 2 || writes[0] != true || writes[1] != false {
		t.Errorf("writes: got %v, want [true false]", writes)
	}
	if d.ctl.State() != controller.Off {
		t.Errorf("state after shutdown: got %v, want OFF", d.ctl.State())
	}

	names := eventNames(pub)
	want := []string{"turn_on", "turn_off"}
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestLoopOnOffEdgeTogglesMachine(t *testing.T) {
	// Tick 1: low, no edge. Tick 2: high, edge while On → turn_off.
	// Tick 3: still high, no edge. Tick 4: low, edge while Off →
	// turn_on reusing the original start text.
	onOff := gpio.NewFakeInput(false, true, true, false)
	mode := gpio.NewFakeInput(false)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	names := eventNames(pub)
	want := []string{"turn_on", "turn_off", "turn_on", "turn_off"}
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, names[i], want[i])
		}
	}

	// The re-issued turn_on carries the original text's anchor and a
	// fresh session.
	if pub.Events[2].StartTime != "07:30" {
		t.Errorf("StartTime: got %q, want 07:30", pub.Events[2].StartTime)
	}
	if pub.Events[2].Session == pub.Events[0].Session {
		t.Error("expected a new session for the second turn_on")
	}
}

func TestLoopModeEdgeTogglesProfile(t *testing.T) {
	// At 20:00 the long window (07:30+18h) is active but the short one
	// (07:30+12h, ends 19:30) is not, so toggling darkens the lamp.
	onOff := gpio.NewFakeInput(false)
	mode := gpio.NewFakeInput(false, true)
	d, pub, out := newTestDaemon(t, onOff, mode, fixedClock(20, 0))

	if err := driveLoop(t, d, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	if d.ctl.Profile() != logic.Short {
		t.Errorf("profile: got %v, want SHORT", d.ctl.Profile())
	}

	writes := out.Writes()
	if len(writes) != 2 || writes[0] != true || writes[1] != false {
		t.Errorf("writes: got %v, want [true false]", writes)
	}

	var change *mqtt.TransitionEvent
	for i := range pub.Events {
		if pub.Events[i].Event == "change_profile" {
			change = &pub.Events[i]
		}
	}
	if change == nil {
		t.Fatal("expected a change_profile transition")
	}
	if change.From != "ON" || change.To != "ON" {
		t.Errorf("change_profile transition: got %s→%s, want ON→ON", change.From, change.To)
	}
	if change.Profile != "SHORT" {
		t.Errorf("Profile: got %q, want SHORT", change.Profile)
	}
}

func TestLoopModeEdgeWhileOffIsDropped(t *testing.T) {
	// Tick 2 turns the machine off; tick 3's mode edge must not toggle
	// the profile or produce a transition.
	onOff := gpio.NewFakeInput(false, true, true)
	mode := gpio.NewFakeInput(false, false, true)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	if d.ctl.Profile() != logic.Long {
		t.Errorf("profile: got %v, want LONG unchanged", d.ctl.Profile())
	}

	names := eventNames(pub)
	want := []string{"turn_on", "turn_off"}
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}
}

func TestLoopReadErrorSkipsPinUntilRecovery(t *testing.T) {
	// The on/off pin faults for two ticks; its high level only lands as
	// an edge on the third, once reads recover.
	onOff := &faultInput{
		inner:      gpio.NewFakeInput(true),
		faultStart: 0,
		faultEnd:   2,
	}
	mode := gpio.NewFakeInput(false)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 3, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	if d.ctl.State() != controller.Off {
		t.Errorf("state: got %v, want OFF after recovered edge", d.ctl.State())
	}

	names := eventNames(pub)
	want := []string{"turn_on", "turn_off"}
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}

	// SHUTDOWN still goes out despite the earlier faults.
	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("system events: got %+v, want one SHUTDOWN", pub.SystemEvents)
	}
}

func TestLoopShutdownSIGINT(t *testing.T) {
	onOff := gpio.NewFakeInput(false)
	mode := gpio.NewFakeInput(false)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 1, syscall.SIGINT); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if se.Retained != true {
		t.Error("expected Retained=true for SHUTDOWN")
	}
	if d.ctl.State() != controller.Off {
		t.Errorf("state: got %v, want OFF after shutdown", d.ctl.State())
	}
	if d.lamp.On() {
		t.Error("expected lamp dark after shutdown")
	}
}

func TestLoopShutdownSIGTERM(t *testing.T) {
	onOff := gpio.NewFakeInput(false)
	mode := gpio.NewFakeInput(false)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	if pub.SystemEvents[0].Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", pub.SystemEvents[0].Reason)
	}
}

func TestLoopShutdownWhileAlreadyOff(t *testing.T) {
	// An edge turns the machine off before the signal arrives; the
	// shutdown turn_off is then ignored and publishes nothing extra.
	onOff := gpio.NewFakeInput(false, true)
	mode := gpio.NewFakeInput(false)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))

	if err := driveLoop(t, d, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	names := eventNames(pub)
	want := []string{"turn_on", "turn_off"}
	if len(names) != len(want) {
		t.Fatalf("events: got %v, want %v", names, want)
	}
	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("system events: got %+v, want one SHUTDOWN", pub.SystemEvents)
	}
}

func TestLoopRefreshesTracker(t *testing.T) {
	onOff := gpio.NewFakeInput(false)
	mode := gpio.NewFakeInput(false)
	d, pub, _ := newTestDaemon(t, onOff, mode, fixedClock(8, 0))
	pub.Connected = true

	if err := driveLoop(t, d, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}

	snap := d.tracker.Snapshot()
	if snap.Profile != logic.Long {
		t.Errorf("Profile: got %v, want LONG", snap.Profile)
	}
	if snap.ScheduleStart.String() != "07:30" {
		t.Errorf("ScheduleStart: got %q, want 07:30", snap.ScheduleStart)
	}
	if snap.Session == "" {
		t.Error("expected a session in the tracker")
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	if snap.Counts.TurnOn != 1 {
		t.Errorf("Counts.TurnOn: got %d, want 1", snap.Counts.TurnOn)
	}
}

func eventNames(pub *mqtt.FakePublisher) []string {
	names := make([]string, len(pub.Events))
	for i, e := range pub.Events {
		names[i] = e.Event
	}
	return names
}

func TestLevelString(t *testing.T) {
	if levelString(true) != "HIGH" {
		t.Errorf("levelString(true): got %q, want HIGH", levelString(true))
	}
	if levelString(false) != "LOW" {
		t.Errorf("levelString(false): got %q, want LOW", levelString(false))
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT: got %q", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("SIGTERM: got %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP: got %q, want UNKNOWN", got)
	}
}

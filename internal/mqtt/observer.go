package mqtt

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/lamp-timer/internal/controller"
)

// EventObserver publishes a transition event for every landed state
// change. Guard rejections and unmatched events stay off the wire;
// they are visible through the log and the ledger instead.
type EventObserver struct {
	controller.NopObserver

	pub   Publisher
	ctl   *controller.Controller
	clock func() time.Time

	// lastEvent carries the triggering event name from EventReceived
	// to StateChanged. Hooks run in order on the dispatch goroutine.
	lastEvent string
}

// NewEventObserver creates an observer publishing through pub. A nil
// clock means time.Now.
func NewEventObserver(pub Publisher, ctl *controller.Controller, clock func() time.Time) *EventObserver {
	if clock == nil {
		clock = time.Now
	}
	return &EventObserver{pub: pub, ctl: ctl, clock: clock}
}

// EventReceived implements controller.Observer.
func (o *EventObserver) EventReceived(state controller.State, event controller.Event) {
	o.lastEvent = event.Name()
}

// StateChanged implements controller.Observer.
func (o *EventObserver) StateChanged(from, to controller.State) {
	event := TransitionEvent{
		Timestamp: o.clock(),
		Event:     o.lastEvent,
		From:      from.String(),
		To:        to.String(),
		Session:   o.ctl.Session(),
		Profile:   o.ctl.Profile().String(),
		StartTime: o.ctl.StartTime().String(),
	}
	if err := o.pub.Publish(event); err != nil {
		log.Error().Err(err).Msg("Failed to publish transition")
	}
}

// Compile-time interface satisfaction check.
var _ controller.Observer = (*EventObserver)(nil)

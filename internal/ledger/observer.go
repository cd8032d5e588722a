package ledger

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/lamp-timer/internal/controller"
)

// Observer appends guard evaluations, executed actions and landed
// transitions to the ledger. Write failures are logged and swallowed
// so a broken disk never stalls the machine.
type Observer struct {
	ledger *Ledger
	ctl    *controller.Controller
	clock  func() time.Time

	// lastEvent carries the triggering event name from EventReceived
	// to StateChanged. Hooks run in order on the dispatch goroutine.
	lastEvent string
}

// NewObserver returns an Observer writing to l. A nil clock defaults
// to time.Now.
func NewObserver(l *Ledger, ctl *controller.Controller, clock func() time.Time) *Observer {
	if clock == nil {
		clock = time.Now
	}
	return &Observer{ledger: l, ctl: ctl, clock: clock}
}

func (o *Observer) EventReceived(state controller.State, event controller.Event) {
	o.lastEvent = event.Name()
}

// GuardEvaluated records the outcome of a guard. Guard rows carry the
// session current when the guard ran, so a passing turn_on guard still
// belongs to the previous session (or none on first start).
func (o *Observer) GuardEvaluated(state controller.State, event controller.Event, err error) {
	if werr := o.ledger.RecordGuard(o.clock(), event.Name(), state.String(), err, o.ctl.Session()); werr != nil {
		log.Error().Err(werr).Msg("Ledger write failed")
	}
}

func (o *Observer) ActionExecuted(action controller.Action, event controller.Event) {
	if err := o.ledger.RecordAction(o.clock(), string(action), event.Name(), o.ctl.Session()); err != nil {
		log.Error().Err(err).Msg("Ledger write failed")
	}
}

func (o *Observer) StateChanged(from, to controller.State) {
	if err := o.ledger.RecordTransition(o.clock(), o.lastEvent, from.String(), to.String(), o.ctl.Session()); err != nil {
		log.Error().Err(err).Msg("Ledger write failed")
	}
}

// Compile-time interface satisfaction check.
var _ controller.Observer = (*Observer)(nil)

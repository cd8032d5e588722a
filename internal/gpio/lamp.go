package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Lamp drives the light output and owns the last commanded level.
// Writes that would not change the pin are suppressed; genuine toggles
// are written through and logged. The baseline is off, matching the
// output pin's initial low level.
//
// Only one goroutine commands the lamp at a time (the schedule
// evaluator while it runs, the dispatcher otherwise), but the last
// level is also read by the status loop, so it is atomic.
type Lamp struct {
	out  Output
	name string
	last atomic.Bool
}

// NewLamp wraps the output pin as the named lamp.
func NewLamp(name string, out Output) *Lamp {
	return &Lamp{out: out, name: name}
}

// Set commands the lamp on or off. Setting the level it already has is
// a no-op.
func (l *Lamp) Set(on bool) error {
	if l.last.Load() == on {
		return nil
	}
	if err := l.out.Write(on); err != nil {
		return fmt.Errorf("set lamp %s: %w", l.name, err)
	}
	l.last.Store(on)
	log.Info().Str("lamp", l.name).Bool("on", on).Msg("Lamp toggled")
	return nil
}

// On reports the last successfully commanded level.
func (l *Lamp) On() bool {
	return l.last.Load()
}

// Close releases the underlying pin.
func (l *Lamp) Close() error {
	return l.out.Close()
}

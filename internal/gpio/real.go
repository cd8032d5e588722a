//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Chip is an open GPIO character device from which pins are requested.
// All lines of the daemon share one chip handle.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO character device (e.g. "gpiochip0").
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{chip: chip}, nil
}

// Input requests the pin as an input with the given pull bias.
func (c *Chip) Input(pin int, bias Bias) (*RealInput, error) {
	opt := gpiocdev.WithPullDown
	if bias == PullUp {
		opt = gpiocdev.WithPullUp
	}
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, opt)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &RealInput{line: line, pin: pin}, nil
}

// Output requests the pin as an output, initially driven low.
func (c *Chip) Output(pin int) (*RealOutput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealOutput{line: line, pin: pin}, nil
}

// Close releases the chip handle. Pins requested from the chip must be
// closed first.
func (c *Chip) Close() error {
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

// RealInput reads a single pin via the GPIO character device.
type RealInput struct {
	line *gpiocdev.Line
	pin  int
}

// Read returns the current logical level.
func (i *RealInput) Read() (bool, error) {
	v, err := i.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", i.pin, err)
	}
	return v != 0, nil
}

// Close releases the pin.
func (i *RealInput) Close() error {
	if err := i.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", i.pin, err)
	}
	return nil
}

// RealOutput drives a single pin via the GPIO character device.
type RealOutput struct {
	line *gpiocdev.Line
	pin  int
}

// Write drives the pin to the given level.
func (o *RealOutput) Write(level bool) error {
	v := 0
	if level {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", o.pin, err)
	}
	return nil
}

// Close releases the pin. The pin is reconfigured to input with
// pull-down (matching Pi boot defaults) before closing, which also
// drops the relay so a dying daemon cannot leave the lamp on.
func (o *RealOutput) Close() error {
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		o.line.Close()
		return fmt.Errorf("reconfigure pin %d: %w", o.pin, err)
	}
	if err := o.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", o.pin, err)
	}
	return nil
}

//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Input is not implemented on non-Linux platforms.
func (c *Chip) Input(pin int, bias Bias) (*RealInput, error) {
	return nil, errUnsupported
}

// Output is not implemented on non-Linux platforms.
func (c *Chip) Output(pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error { return nil }

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

func (i *RealInput) Read() (bool, error) { return false, errUnsupported }
func (i *RealInput) Close() error        { return nil }

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

func (o *RealOutput) Write(level bool) error { return errUnsupported }
func (o *RealOutput) Close() error           { return nil }

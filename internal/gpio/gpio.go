// Package gpio provides digital pin access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Bias selects the pull resistor applied to an input pin.
type Bias int

const (
	// PullDown matches Raspberry Pi boot defaults and the button
	// wiring (a pressed button pulls the line high).
	PullDown Bias = iota
	PullUp
)

// Input is a single digital input pin.
type Input interface {
	// Read returns the current logical level (true = high).
	Read() (bool, error)

	// Close releases the pin.
	Close() error
}

// Output is a single digital output pin.
type Output interface {
	// Write drives the pin to the given level (true = high).
	Write(level bool) error

	// Close releases the pin.
	Close() error
}

// Default chip and pin assignments (BCM numbering).
const (
	DefaultChip = "gpiochip0"

	DefaultPinOnOff = 8  // momentary on/off button
	DefaultPinMode  = 9  // momentary profile button
	DefaultPinLamp  = 10 // lamp relay
)

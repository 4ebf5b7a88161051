// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device; the
// relay and switch expanders appear as extra gpiochips through the
// kernel pcf857x driver. The fake implementation allows testing without
// hardware.
package gpio

// Levels are raw electrical values. Active-low inversion is the caller's
// concern.
const (
	Low  = 0
	High = 1
)

// Input is a requested input line.
type Input interface {
	// Value returns the raw level of the line.
	Value() (int, error)
}

// Output is a requested output line.
type Output interface {
	// SetValue drives the line to the raw level v.
	SetValue(v int) error
}

// Bank hands out lines by chip name and offset and owns them until Close.
type Bank interface {
	Input(chip string, offset int) (Input, error)
	Output(chip string, offset int, initial int) (Output, error)

	// Close releases every line. Outputs are released back to inputs,
	// which lets the expander float its pins high.
	Close() error
}

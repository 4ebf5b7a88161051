//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealBank requests lines from actual hardware.
type RealBank struct {
	chips   map[string]*gpiocdev.Chip
	inputs  []*gpiocdev.Line
	outputs []*gpiocdev.Line
}

// NewRealBank creates an empty bank. Chips are opened on first use.
func NewRealBank() (*RealBank, error) {
	return &RealBank{chips: make(map[string]*gpiocdev.Chip)}, nil
}

func (b *RealBank) chip(name string) (*gpiocdev.Chip, error) {
	if c, ok := b.chips[name]; ok {
		return c, nil
	}
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	b.chips[name] = c
	return c, nil
}

// Input requests offset as an input with pull-up. Switches and buttons
// short to ground when active.
func (b *RealBank) Input(chip string, offset int) (Input, error) {
	c, err := b.chip(chip)
	if err != nil {
		return nil, err
	}
	l, err := c.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request input %s/%d: %w", chip, offset, err)
	}
	b.inputs = append(b.inputs, l)
	return l, nil
}

// Output requests offset as an output driven to initial.
func (b *RealBank) Output(chip string, offset int, initial int) (Output, error) {
	c, err := b.chip(chip)
	if err != nil {
		return nil, err
	}
	l, err := c.RequestLine(offset, gpiocdev.AsOutput(initial))
	if err != nil {
		return nil, fmt.Errorf("request output %s/%d: %w", chip, offset, err)
	}
	b.outputs = append(b.outputs, l)
	return l, nil
}

// Close releases all lines and chips. Outputs are reconfigured as inputs
// first so that active-low relays drop out.
func (b *RealBank) Close() error {
	var errs []error

	for _, l := range b.outputs {
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	for _, l := range b.inputs {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	for name, c := range b.chips {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip %s: %w", name, err))
		}
	}
	b.inputs, b.outputs = nil, nil
	b.chips = make(map[string]*gpiocdev.Chip)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

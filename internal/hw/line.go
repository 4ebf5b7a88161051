// Package hw drives the machine's actuators and reads its switches on top
// of gpio lines. Every expander line is active low. A line that failed to
// initialize is unavailable: writes become no-ops and reads return false.
package hw

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/gpio"
)

// ErrUnavailable is returned by composite actuators whose lines did not
// initialize.
var ErrUnavailable = errors.New("hw: actuator unavailable")

// Line is an active-low output.
type Line struct {
	name string
	out  gpio.Output
	on   bool
}

// NewLine wraps out. A nil out makes the line unavailable.
func NewLine(name string, out gpio.Output) *Line {
	return &Line{name: name, out: out}
}

// Name returns the line's function name.
func (l *Line) Name() string { return l.name }

// Available reports whether the line initialized.
func (l *Line) Available() bool { return l.out != nil }

// IsOn reports the last commanded state.
func (l *Line) IsOn() bool { return l.on }

// On drives the line low.
func (l *Line) On() error { return l.Set(true) }

// Off drives the line high.
func (l *Line) Off() error { return l.Set(false) }

// Set switches the line.
func (l *Line) Set(on bool) error {
	if l.out == nil {
		log.Printf("hw: %s unavailable, ignoring set %v", l.name, on)
		return nil
	}
	level := gpio.High
	if on {
		level = gpio.Low
	}
	if err := l.out.SetValue(level); err != nil {
		return fmt.Errorf("set %s: %w", l.name, err)
	}
	l.on = on
	return nil
}

// Relay is an active-low relay channel.
type Relay struct {
	*Line
	clock clock.Clock
}

// Run switches the relay on for d, off, then waits rest. The relay is
// switched off even when ctx ends the wait. An unavailable relay returns
// ErrUnavailable without waiting.
func (r *Relay) Run(ctx context.Context, d, rest time.Duration) error {
	if !r.Available() {
		return fmt.Errorf("%s: %w", r.name, ErrUnavailable)
	}
	if err := r.On(); err != nil {
		return err
	}
	log.Printf("hw: %s on for %v", r.name, d)
	waitErr := r.clock.Sleep(ctx, d)
	if err := r.Off(); err != nil {
		return err
	}
	if waitErr != nil {
		return waitErr
	}
	return r.clock.Sleep(ctx, rest)
}

// Switch is an active-low input: a limit switch or a push button.
type Switch struct {
	name string
	in   gpio.Input
}

// NewSwitch wraps in. A nil in makes the switch read as never active.
func NewSwitch(name string, in gpio.Input) *Switch {
	return &Switch{name: name, in: in}
}

// Active reports whether the switch is closed. Read errors read as open.
func (s *Switch) Active() bool {
	if s.in == nil {
		return false
	}
	v, err := s.in.Value()
	if err != nil {
		log.Printf("hw: read %s: %v", s.name, err)
		return false
	}
	return v == gpio.Low
}

package hw

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/fpj-maker/internal/clock"
)

// Stepper is a step/direction driver on two expander lines, powered by a
// shared supply relay. Forward drives the direction line on, which moves
// the slider toward home and the sealer cover up.
type Stepper struct {
	name     string
	pulse    *Line
	dir      *Line
	power    *Power
	interval time.Duration
	clock    clock.Clock
}

// NewStepper creates a stepper axis.
func NewStepper(name string, pulse, dir *Line, power *Power, interval time.Duration, clk clock.Clock) *Stepper {
	return &Stepper{name: name, pulse: pulse, dir: dir, power: power, interval: interval, clock: clk}
}

// Name returns the axis name.
func (s *Stepper) Name() string { return s.name }

// Begin powers the driver and sets direction.
func (s *Stepper) Begin(ctx context.Context, forward bool) error {
	if !s.pulse.Available() || !s.dir.Available() {
		return fmt.Errorf("%s: %w", s.name, ErrUnavailable)
	}
	if err := s.power.Enable(ctx); err != nil {
		return fmt.Errorf("%s power: %w", s.name, err)
	}
	return s.dir.Set(forward)
}

// Step emits one pulse: off for one interval, on for one interval.
func (s *Stepper) Step(ctx context.Context) error {
	if err := s.pulse.Off(); err != nil {
		return err
	}
	if err := s.clock.Sleep(ctx, s.interval); err != nil {
		return err
	}
	if err := s.pulse.On(); err != nil {
		return err
	}
	return s.clock.Sleep(ctx, s.interval)
}

// End leaves the pulse line idle. The supply stays on until the
// sequence releases it.
func (s *Stepper) End(context.Context) error {
	return s.pulse.Off()
}

// Lift moves the mixer head on a pair of relays. Each Step is one poll
// interval with the relay held.
type Lift struct {
	up, down *Relay
	poll     time.Duration
	rest     time.Duration
	clock    clock.Clock
}

// NewLift creates the mixer lift axis.
func NewLift(up, down *Relay, poll, rest time.Duration, clk clock.Clock) *Lift {
	return &Lift{up: up, down: down, poll: poll, rest: rest, clock: clk}
}

// Name returns the axis name.
func (l *Lift) Name() string { return "mixer" }

// Begin energizes the up relay when forward, the down relay otherwise.
func (l *Lift) Begin(_ context.Context, forward bool) error {
	r := l.down
	if forward {
		r = l.up
	}
	if !r.Available() {
		return fmt.Errorf("mixer %s: %w", r.Name(), ErrUnavailable)
	}
	return r.On()
}

// Step waits one poll interval.
func (l *Lift) Step(ctx context.Context) error {
	return l.clock.Sleep(ctx, l.poll)
}

// End releases both relays and rests.
func (l *Lift) End(ctx context.Context) error {
	errUp := l.up.Off()
	errDown := l.down.Off()
	if errUp != nil {
		return errUp
	}
	if errDown != nil {
		return errDown
	}
	return l.clock.Sleep(ctx, l.rest)
}

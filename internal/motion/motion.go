// Package motion sequences the slider, the sealer cover and the mixer
// head. Axes are stepped until a limit switch closes or for a calibrated
// number of steps.
package motion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
)

// ErrSafetyCap is returned when an axis reaches its step cap before its
// limit switch.
var ErrSafetyCap = errors.New("safety step cap reached")

// Axis is one movable axis.
type Axis interface {
	Name() string
	// Begin prepares the axis to move forward or backward.
	Begin(ctx context.Context, forward bool) error
	// Step advances the axis by one step or poll interval.
	Step(ctx context.Context) error
	// End stops the axis.
	End(ctx context.Context) error
}

// MoveUntil steps a until reached returns true, checking before every
// step. It returns the steps taken. Hitting maxSteps is a Fatal fault and an
// unavailable axis a Degraded one.
func MoveUntil(ctx context.Context, a Axis, forward bool, maxSteps int, reached func() bool) (steps int, err error) {
	if err := a.Begin(ctx, forward); err != nil {
		return 0, beginFault(a, err)
	}
	defer func() {
		if endErr := a.End(context.WithoutCancel(ctx)); endErr != nil && err == nil {
			err = logic.NewFault(logic.Transient, a.Name()+" stop", endErr)
		}
	}()

	for steps < maxSteps {
		if reached() {
			return steps, nil
		}
		if err := a.Step(ctx); err != nil {
			return steps, logic.NewFault(logic.Transient, a.Name()+" step", err)
		}
		steps++
	}
	if reached() {
		return steps, nil
	}
	log.Printf("motion: %s stopped at safety cap of %d steps", a.Name(), maxSteps)
	return steps, logic.NewFault(logic.Fatal, a.Name()+" move",
		fmt.Errorf("%w (%d steps)", ErrSafetyCap, maxSteps))
}

// MoveSteps steps a exactly n times.
func MoveSteps(ctx context.Context, a Axis, forward bool, n int) (err error) {
	if n <= 0 {
		return nil
	}
	if err := a.Begin(ctx, forward); err != nil {
		return beginFault(a, err)
	}
	defer func() {
		if endErr := a.End(context.WithoutCancel(ctx)); endErr != nil && err == nil {
			err = logic.NewFault(logic.Transient, a.Name()+" stop", endErr)
		}
	}()

	for i := 0; i < n; i++ {
		if err := a.Step(ctx); err != nil {
			return logic.NewFault(logic.Transient, a.Name()+" step", err)
		}
	}
	return nil
}

func beginFault(a Axis, err error) error {
	if errors.Is(err, hw.ErrUnavailable) {
		return logic.NewFault(logic.Degraded, a.Name()+" start", err)
	}
	return logic.NewFault(logic.Transient, a.Name()+" start", err)
}

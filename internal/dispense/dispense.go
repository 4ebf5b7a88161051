// Package dispense doses one ingredient by weight feedback: tare the
// scale, then pulse the actuator until the running total reaches the
// target.
package dispense

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
	"github.com/sweeney/fpj-maker/internal/scale"
)

// ErrDispenseBudget is returned when the loop runs out of iterations or
// time before reaching the target.
var ErrDispenseBudget = errors.New("dispense budget exhausted")

// Weights is the durable per-ingredient running total.
type Weights interface {
	Weight(ing logic.Ingredient) int
	SetWeight(ing logic.Ingredient, grams int) error
}

// Actuator delivers one pulse of an ingredient.
type Actuator interface {
	Actuate(ctx context.Context, step time.Duration) error
}

// ActuatorFunc adapts a function to Actuator.
type ActuatorFunc func(ctx context.Context, step time.Duration) error

func (f ActuatorFunc) Actuate(ctx context.Context, step time.Duration) error { return f(ctx, step) }

// Ingredient describes how to dispense one material.
type Ingredient struct {
	Name     logic.Ingredient
	Target   int
	Step     time.Duration
	Actuator Actuator
}

// Recorder observes the loop. Used for metrics.
type Recorder interface {
	Pulse(ing logic.Ingredient)
	Ignored(ing logic.Ingredient)
	Dispensed(ing logic.Ingredient, grams int)
}

type nopRecorder struct{}

func (nopRecorder) Pulse(logic.Ingredient)          {}
func (nopRecorder) Ignored(logic.Ingredient)        {}
func (nopRecorder) Dispensed(logic.Ingredient, int) {}

// Config tunes the loop.
type Config struct {
	SettleAfterTare  time.Duration
	SettleAfterPulse time.Duration
	Budget           clock.Budget
}

// Loop runs dispenses against one scale.
type Loop struct {
	sensor   scale.Sensor
	weights  Weights
	disp     display.Display
	clock    clock.Clock
	cfg      Config
	recorder Recorder
}

// NewLoop creates a dispense loop. rec may be nil.
func NewLoop(sensor scale.Sensor, weights Weights, disp display.Display, clk clock.Clock, cfg Config, rec Recorder) *Loop {
	if rec == nil {
		rec = nopRecorder{}
	}
	if disp == nil {
		disp = display.Nop{}
	}
	return &Loop{sensor: sensor, weights: weights, disp: disp, clock: clk, cfg: cfg, recorder: rec}
}

// Dispense brings ing up to its target and returns the stored total.
// An ingredient already at target is left alone: no tare, no pulses.
//
// Each sample is grams added since the tare, so the running total is the
// stored amount at entry plus the sample. It never decreases and never
// exceeds the target. Negative samples and read errors leave it unchanged.
func (l *Loop) Dispense(ctx context.Context, ing Ingredient) (int, error) {
	op := "dispense " + string(ing.Name)
	stored0 := l.weights.Weight(ing.Name)
	if logic.Deficit(ing.Target, stored0) <= 0 {
		l.disp.ShowIngredientWeight(string(ing.Name), stored0)
		return stored0, nil
	}

	if err := l.sensor.Tare(ctx); err != nil {
		return stored0, logic.NewFault(logic.Transient, op, err)
	}
	if err := l.clock.Sleep(ctx, l.cfg.SettleAfterTare); err != nil {
		return stored0, err
	}
	log.Printf("dispense: %s start stored=%d target=%d", ing.Name, stored0, ing.Target)

	meter := l.cfg.Budget.Start(l.clock)
	total := stored0
	pulses := 0
	for {
		if meter.Exhausted() {
			log.Printf("dispense: %s budget exhausted after %d samples, %v, total=%d",
				ing.Name, meter.Steps(), meter.Elapsed(), total)
			return total, logic.NewFault(logic.Fatal, op,
				fmt.Errorf("%w: %d of %d g after %d samples", ErrDispenseBudget, total, ing.Target, meter.Steps()))
		}
		meter.Step()

		sample, err := l.sensor.ReadWeight(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return total, ctxErr
		}
		switch {
		case err != nil:
			log.Printf("dispense: %s read failed: %v", ing.Name, err)
			l.recorder.Ignored(ing.Name)
		case sample < 0:
			log.Printf("dispense: %s ignoring negative sample %d", ing.Name, sample)
			l.recorder.Ignored(ing.Name)
		default:
			if candidate := stored0 + sample; candidate > total {
				total = candidate
			}
			if total > ing.Target {
				total = ing.Target
			}
		}

		if err := l.weights.SetWeight(ing.Name, total); err != nil {
			return total, logic.NewFault(logic.Transient, op, err)
		}
		l.disp.ShowIngredientWeight(string(ing.Name), total)

		if logic.Deficit(ing.Target, l.weights.Weight(ing.Name)) <= 0 {
			log.Printf("dispense: %s done total=%d pulses=%d", ing.Name, total, pulses)
			l.recorder.Dispensed(ing.Name, total-stored0)
			return total, nil
		}

		if err := ing.Actuator.Actuate(ctx, ing.Step); err != nil {
			if errors.Is(err, hw.ErrUnavailable) {
				return total, logic.NewFault(logic.Degraded, op, err)
			}
			return total, logic.NewFault(logic.Transient, op, err)
		}
		pulses++
		l.recorder.Pulse(ing.Name)

		if err := l.clock.Sleep(ctx, l.cfg.SettleAfterPulse); err != nil {
			return total, err
		}
	}
}

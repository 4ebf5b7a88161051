package dispense

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
	"github.com/sweeney/fpj-maker/internal/scale"
)

type memWeights struct {
	grams    map[logic.Ingredient]int
	writes   int
	writeErr error
}

func newMemWeights() *memWeights {
	return &memWeights{grams: make(map[logic.Ingredient]int)}
}

func (w *memWeights) Weight(ing logic.Ingredient) int { return w.grams[ing] }

func (w *memWeights) SetWeight(ing logic.Ingredient, g int) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.writes++
	w.grams[ing] = g
	return nil
}

type countingActuator struct {
	pulses int
	err    error
}

func (a *countingActuator) Actuate(ctx context.Context, _ time.Duration) error {
	if a.err != nil {
		return a.err
	}
	a.pulses++
	return ctx.Err()
}

type countingRecorder struct {
	pulses, ignored, dispensed int
}

func (r *countingRecorder) Pulse(logic.Ingredient)              { r.pulses++ }
func (r *countingRecorder) Ignored(logic.Ingredient)            { r.ignored++ }
func (r *countingRecorder) Dispensed(_ logic.Ingredient, g int) { r.dispensed += g }

type fixture struct {
	sensor  *scale.FakeSensor
	weights *memWeights
	disp    *display.Fake
	clock   *clock.Fake
	act     *countingActuator
	rec     *countingRecorder
	loop    *Loop
}

func newFixture(budget clock.Budget, readings ...scale.Reading) *fixture {
	f := &fixture{
		sensor:  &scale.FakeSensor{Readings: readings},
		weights: newMemWeights(),
		disp:    display.NewFake(),
		clock:   clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)),
		act:     &countingActuator{},
		rec:     &countingRecorder{},
	}
	f.loop = NewLoop(f.sensor, f.weights, f.disp, f.clock, Config{
		SettleAfterTare:  500 * time.Millisecond,
		SettleAfterPulse: 300 * time.Millisecond,
		Budget:           budget,
	}, f.rec)
	return f
}

func grams(g ...int) []scale.Reading {
	out := make([]scale.Reading, len(g))
	for i, v := range g {
		out[i] = scale.Reading{Grams: v}
	}
	return out
}

func (f *fixture) kakawate(target int) Ingredient {
	return Ingredient{Name: logic.Kakawate, Target: target, Step: 5 * time.Second, Actuator: f.act}
}

var roomy = clock.Budget{MaxSteps: 100, MaxElapsed: time.Hour}

func TestScenario(t *testing.T) {
	f := newFixture(roomy, grams(300, 700, 1000)...)

	got, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	require.NoError(t, err)

	assert.Equal(t, 1000, got)
	assert.Equal(t, 1000, f.weights.Weight(logic.Kakawate))
	assert.Equal(t, 3, f.sensor.Reads)
	assert.Equal(t, 2, f.act.pulses)
	assert.Equal(t, 1, f.sensor.Tares)
	assert.Equal(t, 3, f.weights.writes, "persisted every iteration")
	assert.Equal(t, 1000, f.disp.Weights["kakawate"])
	assert.Equal(t, 500*time.Millisecond+2*300*time.Millisecond, f.clock.Slept)
	assert.Equal(t, 2, f.rec.pulses)
	assert.Equal(t, 1000, f.rec.dispensed)
}

func TestIdempotentAtTarget(t *testing.T) {
	for _, stored := range []int{1000, 1400} {
		t.Run(fmt.Sprint(stored), func(t *testing.T) {
			f := newFixture(roomy, grams(50)...)
			f.weights.grams[logic.Kakawate] = stored

			got, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
			require.NoError(t, err)

			assert.Equal(t, stored, got)
			assert.Zero(t, f.sensor.Tares)
			assert.Zero(t, f.sensor.Reads)
			assert.Zero(t, f.act.pulses)
			assert.Zero(t, f.weights.writes)
			assert.Equal(t, stored, f.disp.Weights["kakawate"])
		})
	}
}

func TestConvergenceClampsAtTarget(t *testing.T) {
	f := newFixture(roomy, grams(400, 1350)...)

	got, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	require.NoError(t, err)
	assert.Equal(t, 1000, got)
	assert.Equal(t, 1000, f.weights.Weight(logic.Kakawate))
}

func TestResumesFromStoredTotal(t *testing.T) {
	f := newFixture(roomy, grams(200, 600)...)
	f.weights.grams[logic.Kakawate] = 400

	got, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	require.NoError(t, err)
	assert.Equal(t, 1000, got)
	assert.Equal(t, 1, f.act.pulses)
}

func TestNoiseImmunity(t *testing.T) {
	f := newFixture(roomy,
		scale.Reading{Grams: 300},
		scale.Reading{Grams: -40},
		scale.Reading{Err: errors.New("timeout")},
		scale.Reading{Grams: 250},
		scale.Reading{Grams: 1000},
	)

	var seen []int
	ing := f.kakawate(1000)
	ing.Actuator = ActuatorFunc(func(context.Context, time.Duration) error {
		seen = append(seen, f.weights.Weight(logic.Kakawate))
		return nil
	})

	got, err := f.loop.Dispense(context.Background(), ing)
	require.NoError(t, err)
	assert.Equal(t, 1000, got)
	assert.Equal(t, []int{300, 300, 300, 300}, seen, "negative, failed and lower samples leave the total alone")
	assert.Equal(t, 2, f.rec.ignored)
}

func TestBudgetStepsExhausted(t *testing.T) {
	f := newFixture(clock.Budget{MaxSteps: 4}, grams(0)...)

	got, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	assert.ErrorIs(t, err, ErrDispenseBudget)
	assert.True(t, logic.IsFatal(err))
	assert.Zero(t, got)
	assert.Equal(t, 4, f.sensor.Reads)
	assert.Equal(t, 4, f.act.pulses)
}

func TestBudgetElapsedExhausted(t *testing.T) {
	// each iteration sleeps 300ms of simulated time
	f := newFixture(clock.Budget{MaxElapsed: time.Second}, grams(100)...)

	_, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	assert.ErrorIs(t, err, ErrDispenseBudget)
	assert.Equal(t, 4, f.sensor.Reads)
	assert.Equal(t, 100, f.weights.Weight(logic.Kakawate), "partial progress is kept")
}

func TestTareFailureIsTransient(t *testing.T) {
	f := newFixture(roomy, grams(0)...)
	f.sensor.TareError = errors.New("no reply")

	_, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	assert.Equal(t, logic.Transient, logic.CategoryOf(err))
	assert.Zero(t, f.act.pulses)
}

func TestWriteFailureIsTransient(t *testing.T) {
	f := newFixture(roomy, grams(100)...)
	f.weights.writeErr = errors.New("read-only file system")

	_, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	assert.Equal(t, logic.Transient, logic.CategoryOf(err))
	assert.Zero(t, f.act.pulses)
}

func TestActuatorUnavailableIsDegraded(t *testing.T) {
	f := newFixture(roomy, grams(100)...)
	f.act.err = fmt.Errorf("servo: %w", hw.ErrUnavailable)

	_, err := f.loop.Dispense(context.Background(), f.kakawate(1000))
	assert.Equal(t, logic.Degraded, logic.CategoryOf(err))
}

func TestCancelledStopsLoop(t *testing.T) {
	f := newFixture(roomy, grams(100)...)
	ctx, cancel := context.WithCancel(context.Background())
	ing := f.kakawate(1000)
	ing.Actuator = ActuatorFunc(func(context.Context, time.Duration) error {
		cancel()
		return nil
	})

	_, err := f.loop.Dispense(ctx, ing)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.sensor.Reads)
}

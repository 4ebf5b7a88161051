package motion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
)

// fakeAxis counts steps; pos moves +1 per forward step.
type fakeAxis struct {
	name     string
	forward  bool
	pos      int
	steps    int
	begins   int
	ends     int
	beginErr error
	stepErr  error
	log      *[]string
}

func (a *fakeAxis) Name() string { return a.name }

func (a *fakeAxis) Begin(_ context.Context, forward bool) error {
	if a.beginErr != nil {
		return a.beginErr
	}
	a.begins++
	a.forward = forward
	if a.log != nil {
		*a.log = append(*a.log, fmt.Sprintf("%s:%v", a.name, forward))
	}
	return nil
}

func (a *fakeAxis) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.stepErr != nil {
		return a.stepErr
	}
	a.steps++
	if a.forward {
		a.pos++
	} else {
		a.pos--
	}
	return nil
}

func (a *fakeAxis) End(context.Context) error {
	a.ends++
	return nil
}

type fakeMotor struct {
	runs []time.Duration
	err  error
}

func (m *fakeMotor) Run(_ context.Context, d, _ time.Duration) error {
	m.runs = append(m.runs, d)
	return m.err
}

type fakePower struct{ disables int }

func (p *fakePower) Disable(context.Context) error {
	p.disables++
	return nil
}

// rig models the machine: the slider is home at pos >= 0 seen from the
// far side, the cover is up at pos >= 3 and down at pos <= 0, the mixer
// is up at pos >= 2 and down at pos <= -2.
type rig struct {
	slider, sealer, mixer *fakeAxis
	motor                 *fakeMotor
	power                 *fakePower
	disp                  *display.Fake
	seq                   *Sequencer
	moves                 []string
	sliderHomeAt          int
}

func (r *rig) MixerUp() bool    { return r.mixer.pos >= 2 }
func (r *rig) MixerDown() bool  { return r.mixer.pos <= -2 }
func (r *rig) CoverUp() bool    { return r.sealer.pos >= 3 }
func (r *rig) CoverDown() bool  { return r.sealer.pos <= 0 }
func (r *rig) SliderHome() bool { return r.slider.pos >= r.sliderHomeAt }

func newRig() *rig {
	r := &rig{
		motor: &fakeMotor{},
		power: &fakePower{},
		disp:  display.NewFake(),
	}
	r.slider = &fakeAxis{name: "slider", pos: -50, log: &r.moves}
	r.sealer = &fakeAxis{name: "sealer", log: &r.moves}
	r.mixer = &fakeAxis{name: "mixer", log: &r.moves}
	r.seq = NewSequencer(r.slider, r.sealer, r.mixer, r, r.motor, r.power, r.disp, Config{
		SliderCap:    1000,
		CoverCap:     10,
		MixerPollCap: 10,
		MixerSteps:   210,
		SealerSteps:  580,
		MixDuration:  20 * time.Second,
		RelayRest:    3 * time.Second,
	})
	return r
}

func TestMoveUntilStopsAtSwitch(t *testing.T) {
	a := &fakeAxis{name: "cover"}
	steps, err := MoveUntil(context.Background(), a, true, 10, func() bool { return a.pos >= 4 })
	require.NoError(t, err)
	assert.Equal(t, 4, steps)
	assert.Equal(t, 1, a.ends)
}

func TestMoveUntilAlreadyThere(t *testing.T) {
	a := &fakeAxis{name: "cover"}
	steps, err := MoveUntil(context.Background(), a, true, 10, func() bool { return true })
	require.NoError(t, err)
	assert.Zero(t, steps)
}

func TestMoveUntilSafetyCapIsFatal(t *testing.T) {
	a := &fakeAxis{name: "slider"}
	steps, err := MoveUntil(context.Background(), a, true, 25, func() bool { return false })

	assert.Equal(t, 25, steps)
	assert.ErrorIs(t, err, ErrSafetyCap)
	assert.True(t, logic.IsFatal(err))
	assert.Equal(t, 1, a.ends, "axis stopped after cap")
}

func TestMoveUntilReachedOnLastStep(t *testing.T) {
	a := &fakeAxis{name: "cover"}
	_, err := MoveUntil(context.Background(), a, true, 5, func() bool { return a.pos >= 5 })
	assert.NoError(t, err)
}

func TestMoveUntilUnavailableIsDegraded(t *testing.T) {
	a := &fakeAxis{name: "sealer", beginErr: fmt.Errorf("sealer: %w", hw.ErrUnavailable)}
	_, err := MoveUntil(context.Background(), a, true, 5, func() bool { return false })
	assert.Equal(t, logic.Degraded, logic.CategoryOf(err))
	assert.Zero(t, a.ends)
}

func TestMoveUntilStepErrorIsTransient(t *testing.T) {
	a := &fakeAxis{name: "slider", stepErr: errors.New("i2c nak")}
	_, err := MoveUntil(context.Background(), a, true, 5, func() bool { return false })
	assert.Equal(t, logic.Transient, logic.CategoryOf(err))
	assert.False(t, errors.Is(err, ErrSafetyCap))
}

func TestMoveUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &fakeAxis{name: "slider"}
	_, err := MoveUntil(ctx, a, true, 5, func() bool { return false })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, a.ends)
}

func TestMoveSteps(t *testing.T) {
	a := &fakeAxis{name: "slider"}
	require.NoError(t, MoveSteps(context.Background(), a, false, 37))
	assert.Equal(t, -37, a.pos)

	require.NoError(t, MoveSteps(context.Background(), a, true, 0))
	assert.Equal(t, 1, a.begins, "zero steps does not touch the axis")
}

func TestHomeSequence(t *testing.T) {
	r := newRig()
	require.NoError(t, r.seq.Home(context.Background()))

	assert.True(t, r.MixerUp())
	assert.True(t, r.CoverUp())
	assert.True(t, r.SliderHome())
	pos, known := r.seq.SliderPosition()
	assert.True(t, known)
	assert.Zero(t, pos)
	assert.Equal(t, []string{"mixer:true", "sealer:true", "slider:true"}, r.moves)
	assert.Equal(t, 1, r.power.disables)
	assert.Equal(t, display.HomingSlider, r.disp.Last())
}

func TestEnsureHomeSkipsWhenHome(t *testing.T) {
	r := newRig()
	r.slider.pos = 0
	require.NoError(t, r.seq.EnsureHome(context.Background()))
	assert.Empty(t, r.moves)
	_, known := r.seq.SliderPosition()
	assert.True(t, known)
}

func TestToMixerHomesFirstWhenUnknown(t *testing.T) {
	r := newRig()
	require.NoError(t, r.seq.ToMixer(context.Background()))

	pos, known := r.seq.SliderPosition()
	assert.True(t, known)
	assert.Equal(t, 210, pos)
	// homed at -50 -> 0, then 210 steps away from home
	assert.Equal(t, -210, r.slider.pos)
	assert.Contains(t, r.disp.Activities, display.MovingToMixer)
	assert.Contains(t, r.disp.Activities, display.HomingSlider)
}

func TestSealFromMixer(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	require.NoError(t, r.seq.ToMixer(ctx))
	r.moves = nil
	stepsBefore := r.slider.steps

	require.NoError(t, r.seq.Seal(ctx))

	assert.Equal(t, 370, r.slider.steps-stepsBefore, "relative move from mixer to sealer")
	assert.Equal(t, -580, r.slider.pos)
	assert.True(t, r.CoverDown())
	assert.Equal(t, []string{"sealer:true", "slider:false", "sealer:false"}, r.moves)
	assert.Equal(t, display.Sealing, r.disp.Last())
}

func TestMixSequence(t *testing.T) {
	r := newRig()
	require.NoError(t, r.seq.Mix(context.Background()))

	assert.Equal(t, []time.Duration{20 * time.Second}, r.motor.runs)
	assert.True(t, r.MixerUp())
	assert.Equal(t, MixerPositionUp, r.seq.MixerPosition())
	assert.Equal(t, []display.Activity{display.MovingMixerDown, display.Mixing, display.MovingMixerUp}, r.disp.Activities)
}

func TestMixMotorUnavailableStillLifts(t *testing.T) {
	r := newRig()
	r.motor.err = fmt.Errorf("mixer: %w", hw.ErrUnavailable)

	require.NoError(t, r.seq.Mix(context.Background()))
	assert.True(t, r.MixerUp())
	assert.Equal(t, MixerPositionUp, r.seq.MixerPosition())
}

func TestMixMotorErrorIsTransient(t *testing.T) {
	r := newRig()
	r.motor.err = errors.New("i2c nak")

	err := r.seq.Mix(context.Background())
	require.Error(t, err)
	assert.Equal(t, logic.Transient, logic.CategoryOf(err))
}

func TestMixerStuckIsFatal(t *testing.T) {
	r := newRig()
	// the lower switch never closes
	r.mixer.pos = 100
	err := r.seq.Mix(context.Background())

	assert.ErrorIs(t, err, ErrSafetyCap)
	assert.True(t, logic.IsFatal(err))
	assert.Empty(t, r.motor.runs, "motor never started")
}

func TestSealerUnavailableContinues(t *testing.T) {
	r := newRig()
	r.sealer.beginErr = fmt.Errorf("sealer: %w", hw.ErrUnavailable)

	require.NoError(t, r.seq.Home(context.Background()))
	assert.True(t, r.SliderHome())
}

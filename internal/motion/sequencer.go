package motion

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
)

// Limits are the switches the sequences stop on.
type Limits interface {
	MixerUp() bool
	MixerDown() bool
	CoverUp() bool
	CoverDown() bool
	SliderHome() bool
}

// Motor runs a relay-driven motor for a duration followed by a rest.
type Motor interface {
	Run(ctx context.Context, d, rest time.Duration) error
}

// Power is the stepper supply.
type Power interface {
	Disable(ctx context.Context) error
}

// Config is the calibration of the sequences.
type Config struct {
	SliderCap    int
	CoverCap     int
	MixerPollCap int

	// Slider positions in steps away from home.
	MixerSteps  int
	SealerSteps int

	MixDuration time.Duration
	RelayRest   time.Duration
}

// Mixer head positions, as recorded in the batch record.
const (
	MixerPositionUp   = 0
	MixerPositionDown = 1
)

// Sequencer runs the multi-axis sequences. The slider position is
// tracked in memory from the last homing; it is unknown after start.
type Sequencer struct {
	slider Axis
	sealer Axis
	mixer  Axis
	limits Limits
	motor  Motor
	power  Power
	disp   display.Display
	cfg    Config

	pos       int
	known     bool
	mixerDown bool
}

// NewSequencer creates a sequencer. Forward is toward home on the
// slider, up on the sealer cover and up on the mixer head.
func NewSequencer(slider, sealer, mixer Axis, limits Limits, motor Motor, power Power, disp display.Display, cfg Config) *Sequencer {
	if disp == nil {
		disp = display.Nop{}
	}
	return &Sequencer{
		slider: slider, sealer: sealer, mixer: mixer,
		limits: limits, motor: motor, power: power,
		disp: disp, cfg: cfg,
	}
}

// SliderPosition returns the tracked slider position and whether it is known.
func (s *Sequencer) SliderPosition() (int, bool) { return s.pos, s.known }

// MixerPosition returns MixerPositionDown after a mixer descent that has
// not been followed by a lift.
func (s *Sequencer) MixerPosition() int {
	if s.mixerDown {
		return MixerPositionDown
	}
	return MixerPositionUp
}

// Forget marks the slider position unknown.
func (s *Sequencer) Forget() { s.known = false }

// LiftCover raises the sealer cover to its upper switch.
func (s *Sequencer) LiftCover(ctx context.Context) error {
	_, err := MoveUntil(ctx, s.sealer, true, s.cfg.CoverCap, s.limits.CoverUp)
	return s.tolerate(err)
}

// LowerCover presses the sealer cover down onto the container.
func (s *Sequencer) LowerCover(ctx context.Context) error {
	_, err := MoveUntil(ctx, s.sealer, false, s.cfg.CoverCap, s.limits.CoverDown)
	return s.tolerate(err)
}

// MixerUp raises the mixer head to its upper switch.
func (s *Sequencer) MixerUp(ctx context.Context) error {
	if _, err := MoveUntil(ctx, s.mixer, true, s.cfg.MixerPollCap, s.limits.MixerUp); err != nil {
		return s.tolerate(err)
	}
	s.mixerDown = false
	return nil
}

// MixerDown lowers the mixer head to its lower switch.
func (s *Sequencer) MixerDown(ctx context.Context) error {
	if _, err := MoveUntil(ctx, s.mixer, false, s.cfg.MixerPollCap, s.limits.MixerDown); err != nil {
		return s.tolerate(err)
	}
	s.mixerDown = true
	return nil
}

// HomeSlider lifts the cover and drives the slider to its home switch.
func (s *Sequencer) HomeSlider(ctx context.Context) error {
	s.disp.ShowActivity(display.HomingSlider)
	if err := s.LiftCover(ctx); err != nil {
		return err
	}
	s.known = false
	if _, err := MoveUntil(ctx, s.slider, true, s.cfg.SliderCap, s.limits.SliderHome); err != nil {
		return s.tolerate(err)
	}
	s.pos, s.known = 0, true
	return nil
}

// EnsureHome homes the slider unless its home switch is already closed.
func (s *Sequencer) EnsureHome(ctx context.Context) (err error) {
	if s.limits.SliderHome() {
		s.pos, s.known = 0, true
		return nil
	}
	defer s.release(ctx, &err)
	return s.HomeSlider(ctx)
}

// Home parks everything: mixer up, cover up, slider home.
func (s *Sequencer) Home(ctx context.Context) (err error) {
	defer s.release(ctx, &err)
	if err := s.MixerUp(ctx); err != nil {
		return err
	}
	return s.HomeSlider(ctx)
}

// ToMixer moves the slider under the mixer.
func (s *Sequencer) ToMixer(ctx context.Context) (err error) {
	defer s.release(ctx, &err)
	s.disp.ShowActivity(display.MovingToMixer)
	return s.moveSlider(ctx, s.cfg.MixerSteps)
}

// Mix lowers the mixer, runs it for the mix duration and raises it.
func (s *Sequencer) Mix(ctx context.Context) error {
	s.disp.ShowActivity(display.MovingMixerDown)
	if err := s.MixerDown(ctx); err != nil {
		return err
	}
	s.disp.ShowActivity(display.Mixing)
	if err := s.motor.Run(ctx, s.cfg.MixDuration, s.cfg.RelayRest); err != nil {
		if !errors.Is(err, hw.ErrUnavailable) {
			return logic.NewFault(logic.Transient, "mix", err)
		}
		s.tolerate(logic.NewFault(logic.Degraded, "mix", err))
	}
	s.disp.ShowActivity(display.MovingMixerUp)
	return s.MixerUp(ctx)
}

// Seal moves the slider to the sealer and presses the cover down.
func (s *Sequencer) Seal(ctx context.Context) (err error) {
	defer s.release(ctx, &err)
	s.disp.ShowActivity(display.MovingToSealer)
	if err := s.moveSlider(ctx, s.cfg.SealerSteps); err != nil {
		return err
	}
	s.disp.ShowActivity(display.Sealing)
	return s.LowerCover(ctx)
}

// moveSlider lifts the cover and moves the slider to target steps from
// home, homing first when the position is unknown.
func (s *Sequencer) moveSlider(ctx context.Context, target int) error {
	if !s.known {
		if err := s.HomeSlider(ctx); err != nil {
			return err
		}
	} else if err := s.LiftCover(ctx); err != nil {
		return err
	}

	delta := target - s.pos
	forward := delta < 0
	if forward {
		delta = -delta
	}
	if err := MoveSteps(ctx, s.slider, forward, delta); err != nil {
		s.known = false
		return s.tolerate(err)
	}
	s.pos = target
	return nil
}

// tolerate logs and drops Degraded faults.
func (s *Sequencer) tolerate(err error) error {
	if err != nil && logic.CategoryOf(err) == logic.Degraded {
		log.Printf("motion: continuing without %v", err)
		return nil
	}
	return err
}

func (s *Sequencer) release(ctx context.Context, err *error) {
	if perr := s.power.Disable(ctx); perr != nil && *err == nil && ctx.Err() == nil {
		*err = logic.NewFault(logic.Transient, "stepper power off", perr)
	}
}

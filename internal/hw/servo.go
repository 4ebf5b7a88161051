package hw

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/gpio"
)

// Servo pulse train: 50Hz, 0.5ms at -90 degrees to 2.5ms at +90.
const (
	servoPeriod   = 20 * time.Millisecond
	servoMinPulse = 500 * time.Microsecond
	servoMaxPulse = 2500 * time.Microsecond
)

// Gate angles of the molasses valve.
const (
	GateOpen   = 0.0
	GateClosed = -90.0
)

// Servo drives a hobby servo with a software pulse train on a SoC line.
// The line is active high. The pulse train runs in the calling goroutine.
type Servo struct {
	out    gpio.Output
	power  *Power
	settle time.Duration
	clock  clock.Clock
}

// NewServo creates the molasses gate servo. A nil out makes it unavailable.
func NewServo(out gpio.Output, power *Power, settle time.Duration, clk clock.Clock) *Servo {
	return &Servo{out: out, power: power, settle: settle, clock: clk}
}

// PulseWidth maps an angle in degrees to a pulse width.
func PulseWidth(angle float64) time.Duration {
	if angle < -90 {
		angle = -90
	}
	if angle > 90 {
		angle = 90
	}
	span := float64(servoMaxPulse - servoMinPulse)
	return servoMinPulse + time.Duration((angle+90)/180*span)
}

// Hold emits pulses for angle until d has elapsed.
func (s *Servo) Hold(ctx context.Context, angle float64, d time.Duration) error {
	if s.out == nil {
		return fmt.Errorf("servo: %w", ErrUnavailable)
	}
	w := PulseWidth(angle)
	start := s.clock.Now()
	for s.clock.Now().Sub(start) < d {
		if err := s.out.SetValue(gpio.High); err != nil {
			return fmt.Errorf("servo pulse: %w", err)
		}
		if err := s.clock.Sleep(ctx, w); err != nil {
			s.out.SetValue(gpio.Low)
			return err
		}
		if err := s.out.SetValue(gpio.Low); err != nil {
			return fmt.Errorf("servo pulse: %w", err)
		}
		if err := s.clock.Sleep(ctx, servoPeriod-w); err != nil {
			return err
		}
	}
	return nil
}

// Dispense opens the gate for d and closes it again, with the servo
// supply switched on around the movement. The supply is switched off
// even if the pulse train fails.
func (s *Servo) Dispense(ctx context.Context, d time.Duration) (err error) {
	if s.out == nil {
		return fmt.Errorf("servo: %w", ErrUnavailable)
	}
	if err := s.power.Enable(ctx); err != nil {
		return err
	}
	defer func() {
		if perr := s.power.Disable(ctx); perr != nil && err == nil {
			err = perr
		}
	}()

	log.Printf("hw: molasses gate open for %v", d)
	if err := s.Hold(ctx, GateOpen, d); err != nil {
		// close the gate even when interrupted
		s.Hold(context.WithoutCancel(ctx), GateClosed, s.settle)
		return err
	}
	return s.Hold(ctx, GateClosed, s.settle)
}

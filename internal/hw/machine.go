package hw

import (
	"context"
	"errors"
	"log"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/gpio"
)

// Machine is every actuator and sensor of the batch machine.
type Machine struct {
	Relays       *Relays
	Chopper      *Chopper
	StepperPower *Power
	ServoPower   *Power

	Slider *Stepper
	Sealer *Stepper
	Mixer  *Lift
	Gate   *Servo

	Limits *Limits
	LED    *Line
}

// New requests every line in pins from bank. Lines that fail are logged
// and left unavailable; New itself does not fail.
func New(bank gpio.Bank, pins config.Pins, m config.Motion, clk clock.Clock) *Machine {
	relays := NewRelays(bank, pins.RelayChip, pins.Relays, clk)

	output := func(name string) *Line {
		out, err := bank.Output(pins.IOChip, pins.Outputs[name], gpio.High)
		if err != nil {
			log.Printf("hw: output %s unavailable: %v", name, err)
			out = nil
		}
		return NewLine(name, out)
	}

	stepperPower := NewPower(relays.Get(config.RelayStepperPower), m.PowerSettle)
	servoPower := NewPower(relays.Get(config.RelayServoPower), m.PowerSettle)

	servoOut, err := bank.Output(pins.ServoChip, pins.ServoLine, gpio.Low)
	if err != nil {
		log.Printf("hw: servo line unavailable: %v", err)
		servoOut = nil
	}

	return &Machine{
		Relays:       relays,
		Chopper:      NewChopper(relays.Get(config.RelayChopper)),
		StepperPower: stepperPower,
		ServoPower:   servoPower,
		Slider: NewStepper("slider",
			output(config.OutputSliderPulse), output(config.OutputSliderDir),
			stepperPower, m.Slider.PulseInterval, clk),
		Sealer: NewStepper("sealer",
			output(config.OutputSealerPulse), output(config.OutputSealerDir),
			stepperPower, m.Sealer.PulseInterval, clk),
		Mixer: NewLift(relays.Get(config.RelayMixerUp), relays.Get(config.RelayMixerDown),
			m.MixerPollInterval, m.RelayRest, clk),
		Gate:   NewServo(servoOut, servoPower, m.ServoSettle, clk),
		Limits: NewLimits(bank, pins),
		LED:    output(config.OutputLED),
	}
}

// PowerUp switches the main supply on.
func (m *Machine) PowerUp() error {
	return m.Relays.Get(config.RelaySMPS).On()
}

// Relay returns the named relay.
func (m *Machine) Relay(name string) *Relay {
	return m.Relays.Get(name)
}

// ShutdownAll de-energizes every actuator. All are attempted; errors are
// joined.
func (m *Machine) ShutdownAll() error {
	errs := []error{m.Relays.ShutdownAll()}
	m.Chopper.running = false
	m.StepperPower.enabled = false
	m.ServoPower.enabled = false
	for _, l := range []*Line{m.Slider.pulse, m.Sealer.pulse, m.LED} {
		errs = append(errs, l.Off())
	}
	if m.Gate.out != nil {
		errs = append(errs, m.Gate.out.SetValue(gpio.Low))
	}
	return errors.Join(errs...)
}

// ReleaseMotion switches the stepper supply off.
func (m *Machine) ReleaseMotion(ctx context.Context) error {
	return m.StepperPower.Disable(ctx)
}

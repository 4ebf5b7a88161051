package config

import (
	"fmt"
	"sort"
)

// ExpanderLines is the number of lines on a PCF8575 I/O expander.
const ExpanderLines = 16

// Relay names, keys of Pins.Relays.
const (
	RelayWaterPump    = "water_pump"
	RelayKakawate     = "kakawate"
	RelayNeem         = "neem"
	RelayMixer        = "mixer"
	RelayStepperPower = "stepper_power"
	RelayServoPower   = "servo_power"
	RelaySMPS         = "smps"
	RelayChopper      = "chopper"
	RelayCharger      = "charger"
	RelayMixerDown    = "mixer_down"
	RelayMixerUp      = "mixer_up"
)

// Input names, keys of Pins.Inputs.
const (
	InputCoverDown  = "cover_down"
	InputCoverUp    = "cover_up"
	InputMixerUp    = "mixer_up"
	InputMixerDown  = "mixer_down"
	InputReset      = "reset"
	InputStart      = "start"
	InputSliderHome = "slider_home"
)

// Output names, keys of Pins.Outputs.
const (
	OutputLED         = "led"
	OutputSliderPulse = "slider_pulse"
	OutputSliderDir   = "slider_dir"
	OutputSealerPulse = "sealer_pulse"
	OutputSealerDir   = "sealer_dir"
)

// RequiredRelays lists every relay the controller drives.
var RequiredRelays = []string{
	RelayWaterPump, RelayKakawate, RelayNeem, RelayMixer, RelayStepperPower,
	RelayServoPower, RelaySMPS, RelayChopper, RelayCharger, RelayMixerDown, RelayMixerUp,
}

// RequiredInputs lists every switch and button the controller reads.
var RequiredInputs = []string{
	InputCoverDown, InputCoverUp, InputMixerUp, InputMixerDown,
	InputReset, InputStart, InputSliderHome,
}

// RequiredOutputs lists every non-relay output line.
var RequiredOutputs = []string{
	OutputLED, OutputSliderPulse, OutputSliderDir, OutputSealerPulse, OutputSealerDir,
}

// Pins is the pin allocation table. Relays sit on RelayChip; switches,
// buttons, the LED and the stepper lines share IOChip. The molasses
// servo is driven from a SoC line.
type Pins struct {
	RelayChip string         `yaml:"relay_chip"`
	IOChip    string         `yaml:"io_chip"`
	ServoChip string         `yaml:"servo_chip"`
	ServoLine int            `yaml:"servo_line"`
	Relays    map[string]int `yaml:"relays"`
	Inputs    map[string]int `yaml:"inputs"`
	Outputs   map[string]int `yaml:"outputs"`
}

// DefaultPins returns the wiring of the reference machine.
func DefaultPins() Pins {
	return Pins{
		RelayChip: "gpiochip2",
		IOChip:    "gpiochip3",
		ServoChip: "gpiochip0",
		ServoLine: 18,
		Relays: map[string]int{
			RelaySMPS:         0,
			RelayChopper:      1,
			RelayServoPower:   2,
			RelayMixerDown:    3,
			RelayStepperPower: 5,
			RelayWaterPump:    6,
			RelayKakawate:     7,
			RelayNeem:         9,
			RelayMixer:        10,
			RelayCharger:      11,
			RelayMixerUp:      12,
		},
		Inputs: map[string]int{
			InputCoverDown:  4,
			InputCoverUp:    5,
			InputMixerUp:    6,
			InputMixerDown:  7,
			InputReset:      9,
			InputStart:      10,
			InputSliderHome: 11,
		},
		Outputs: map[string]int{
			OutputLED:         8,
			OutputSealerDir:   12,
			OutputSealerPulse: 13,
			OutputSliderDir:   14,
			OutputSliderPulse: 15,
		},
	}
}

// PinCollisionError reports two functions allocated to the same line.
type PinCollisionError struct {
	Chip   string
	Offset int
	First  string
	Second string
}

func (e *PinCollisionError) Error() string {
	return fmt.Sprintf("pin collision on %s line %d: %s and %s", e.Chip, e.Offset, e.First, e.Second)
}

// Validate checks that every required function has a line, that
// expander offsets are in range, and that no line is allocated twice.
func (p Pins) Validate() error {
	if p.RelayChip == "" || p.IOChip == "" || p.ServoChip == "" {
		return fmt.Errorf("pins: chip names must be set")
	}
	if err := requireAll("relays", p.Relays, RequiredRelays); err != nil {
		return err
	}
	if err := requireAll("inputs", p.Inputs, RequiredInputs); err != nil {
		return err
	}
	if err := requireAll("outputs", p.Outputs, RequiredOutputs); err != nil {
		return err
	}

	type key struct {
		chip   string
		offset int
	}
	used := make(map[key]string)
	claim := func(chip, name string, offset, limit int) error {
		if offset < 0 || (limit > 0 && offset >= limit) {
			return fmt.Errorf("pins: %s offset %d out of range on %s", name, offset, chip)
		}
		k := key{chip, offset}
		if prev, ok := used[k]; ok {
			return &PinCollisionError{Chip: chip, Offset: offset, First: prev, Second: name}
		}
		used[k] = name
		return nil
	}

	for _, group := range []struct {
		prefix string
		chip   string
		lines  map[string]int
	}{
		{"relay", p.RelayChip, p.Relays},
		{"input", p.IOChip, p.Inputs},
		{"output", p.IOChip, p.Outputs},
	} {
		for _, name := range sortedKeys(group.lines) {
			if err := claim(group.chip, group.prefix+"."+name, group.lines[name], ExpanderLines); err != nil {
				return err
			}
		}
	}
	return claim(p.ServoChip, "servo", p.ServoLine, 0)
}

func requireAll(group string, lines map[string]int, names []string) error {
	for _, n := range names {
		if _, ok := lines[n]; !ok {
			return fmt.Errorf("pins: %s.%s not allocated", group, n)
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

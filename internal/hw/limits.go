package hw

import (
	"log"

	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/gpio"
)

// Limits reads the limit switches and the operator buttons. Buttons are
// polled without debounce.
type Limits struct {
	switches map[string]*Switch
}

// NewLimits requests every input in pins. Inputs that fail read as open.
func NewLimits(bank gpio.Bank, pins config.Pins) *Limits {
	l := &Limits{switches: make(map[string]*Switch)}
	for _, name := range config.RequiredInputs {
		in, err := bank.Input(pins.IOChip, pins.Inputs[name])
		if err != nil {
			log.Printf("hw: input %s unavailable: %v", name, err)
			in = nil
		}
		l.switches[name] = NewSwitch(name, in)
	}
	return l
}

func (l *Limits) active(name string) bool {
	s, ok := l.switches[name]
	return ok && s.Active()
}

func (l *Limits) MixerUp() bool    { return l.active(config.InputMixerUp) }
func (l *Limits) MixerDown() bool  { return l.active(config.InputMixerDown) }
func (l *Limits) CoverUp() bool    { return l.active(config.InputCoverUp) }
func (l *Limits) CoverDown() bool  { return l.active(config.InputCoverDown) }
func (l *Limits) SliderHome() bool { return l.active(config.InputSliderHome) }

// ResetPressed reports the reset button.
func (l *Limits) ResetPressed() bool { return l.active(config.InputReset) }

// StartPressed reports the start (loaded) button.
func (l *Limits) StartPressed() bool { return l.active(config.InputStart) }

// Snapshot reads every input once, for diagnostics.
func (l *Limits) Snapshot() map[string]bool {
	out := make(map[string]bool, len(l.switches))
	for name, s := range l.switches {
		out[name] = s.Active()
	}
	return out
}

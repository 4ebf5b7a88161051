package batch

import (
	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/dispense"
	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/metrics"
	"github.com/sweeney/fpj-maker/internal/motion"
	"github.com/sweeney/fpj-maker/internal/scale"
	"github.com/sweeney/fpj-maker/internal/store"
)

// Wire builds a controller for machine m from cfg. rec may be nil.
func Wire(cfg *config.Config, m *hw.Machine, state *store.BatchState, sensor scale.Sensor, disp display.Display, rec *metrics.Collector, clk clock.Clock) *Controller {
	var dispenseRec dispense.Recorder
	var batchRec Recorder
	if rec != nil {
		dispenseRec, batchRec = rec, rec
	}

	loop := dispense.NewLoop(sensor, state, disp, clk, dispense.Config{
		SettleAfterTare:  cfg.Dispense.SettleAfterTare,
		SettleAfterPulse: cfg.Dispense.SettleAfterPulse,
		Budget: clock.Budget{
			MaxSteps:   cfg.Dispense.MaxIterations,
			MaxElapsed: cfg.Dispense.MaxDuration,
		},
	}, dispenseRec)

	seq := motion.NewSequencer(m.Slider, m.Sealer, m.Mixer, m.Limits,
		m.Relay(config.RelayMixer), m.StepperPower, disp, motion.Config{
			SliderCap:    cfg.Motion.Slider.SafetyCap,
			CoverCap:     cfg.Motion.Sealer.SafetyCap,
			MixerPollCap: cfg.Motion.MixerPollCap,
			MixerSteps:   cfg.Motion.MixerSteps,
			SealerSteps:  cfg.Motion.SealerSteps,
			MixDuration:  cfg.Recipe.MixDuration,
			RelayRest:    cfg.Motion.RelayRest,
		})

	return New(Deps{
		State:       state,
		Sequencer:   seq,
		Dispenser:   loop,
		Ingredients: Ingredients(cfg.Recipe, m, cfg.Motion.RelayRest),
		Chopper:     m.Chopper,
		Buttons:     m.Limits,
		LED:         m.LED,
		Actuators:   m,
		Display:     disp,
		Clock:       clk,
		Recipe:      RecipeFrom(cfg.Recipe),
		Recorder:    batchRec,
	})
}

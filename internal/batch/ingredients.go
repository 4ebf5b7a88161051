package batch

import (
	"context"
	"time"

	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/dispense"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
)

// RecipeFrom converts the configured recipe.
func RecipeFrom(r config.Recipe) logic.Recipe {
	return logic.Recipe{
		Targets: map[logic.Ingredient]int{
			logic.Kakawate: r.Kakawate.TargetGrams,
			logic.Neem:     r.Neem.TargetGrams,
			logic.Molasses: r.Molasses.TargetGrams,
			logic.Water:    r.Water.TargetGrams,
		},
		FermentationDays: r.FermentationDays,
	}
}

// Ingredients binds each ingredient to its actuator on m, in dispense
// order. The dry feeds and the water pump are relay pulses followed by
// the relay rest; molasses goes through the servo gate.
func Ingredients(r config.Recipe, m *hw.Machine, rest time.Duration) []dispense.Ingredient {
	relay := func(name string) dispense.Actuator {
		rl := m.Relay(name)
		return dispense.ActuatorFunc(func(ctx context.Context, step time.Duration) error {
			return rl.Run(ctx, step, rest)
		})
	}
	return []dispense.Ingredient{
		{Name: logic.Kakawate, Target: r.Kakawate.TargetGrams, Step: r.Kakawate.Step, Actuator: relay(config.RelayKakawate)},
		{Name: logic.Neem, Target: r.Neem.TargetGrams, Step: r.Neem.Step, Actuator: relay(config.RelayNeem)},
		{Name: logic.Molasses, Target: r.Molasses.TargetGrams, Step: r.Molasses.Step, Actuator: dispense.ActuatorFunc(m.Gate.Dispense)},
		{Name: logic.Water, Target: r.Water.TargetGrams, Step: r.Water.Step, Actuator: relay(config.RelayWaterPump)},
	}
}

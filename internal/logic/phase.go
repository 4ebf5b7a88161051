package logic

import "time"

// DerivePhase computes the phase from the durable record. The order of
// the checks matters: a fermenting batch is never re-dispensed, and
// weights are only consulted once the batch is loaded.
func DerivePhase(b Batch, r Recipe, now time.Time) Phase {
	if b.Fermenting {
		if ready, _ := ReadyForHarvest(b.FermentationStart, now, r.FermentationDays); ready {
			return PhaseReadyForHarvest
		}
		return PhaseFermenting
	}
	if !b.Loaded {
		return PhaseAwaitingLoad
	}
	if len(Deficient(b, r)) > 0 {
		return PhasePreparing
	}
	if !b.MixingDone {
		return PhaseReadyToMix
	}
	return PhaseSealing
}

// Deficient lists, in dispense order, the ingredients below target.
func Deficient(b Batch, r Recipe) []Ingredient {
	var out []Ingredient
	for _, ing := range Ingredients {
		if b.Weights[ing] < r.Targets[ing] {
			out = append(out, ing)
		}
	}
	return out
}

// Deficit returns grams still missing, never negative.
func Deficit(target, stored int) int {
	if stored >= target {
		return 0
	}
	return target - stored
}

// Package logic contains the pure batch logic: phase derivation, the
// fermentation timer and fault classification.
// This package has NO external dependencies (no GPIO, storage, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Ingredient names one batch material.
type Ingredient string

const (
	Kakawate Ingredient = "kakawate"
	Neem     Ingredient = "neem"
	Molasses Ingredient = "molasses"
	Water    Ingredient = "water"
)

// Ingredients is the dispense order.
var Ingredients = []Ingredient{Kakawate, Neem, Molasses, Water}

// Dry reports whether the ingredient is chopped on its way in.
func (i Ingredient) Dry() bool {
	return i == Kakawate || i == Neem
}

// Phase is the batch phase, derived from durable state on every tick.
type Phase string

const (
	PhaseAwaitingLoad    Phase = "AWAITING_LOAD"
	PhasePreparing       Phase = "PREPARING"
	PhaseReadyToMix      Phase = "READY_TO_MIX"
	PhaseMixing          Phase = "MIXING"
	PhaseSealing         Phase = "SEALING"
	PhaseFermenting      Phase = "FERMENTING"
	PhaseReadyForHarvest Phase = "READY_FOR_HARVEST"
)

// Batch is the durable batch record.
type Batch struct {
	ID         string
	Loaded     bool
	Fermenting bool
	MixingDone bool

	// FermentationStart is zero when absent.
	FermentationStart time.Time

	Weights map[Ingredient]int
}

// Recipe is the per-batch target for each ingredient and the
// fermentation duration in whole days.
type Recipe struct {
	Targets          map[Ingredient]int
	FermentationDays int
}

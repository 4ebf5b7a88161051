// Package batch runs the batch state machine. Each Tick re-derives the
// phase from the durable record, so a restarted controller resumes where
// the record says it is.
package batch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/dispense"
	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/logic"
)

// State is the durable batch record.
type State interface {
	Snapshot() logic.Batch
	SetLoaded(v bool) error
	SetFermenting(v bool) error
	SetMixingDone(v bool) error
	SetFermentationStart(t time.Time) error
	SetBatchID(id string) error
	SetSliderPosition(steps int) error
	SetMixerPosition(pos int) error
	Reset() error
}

// Sequencer runs the motion sequences.
type Sequencer interface {
	Home(ctx context.Context) error
	EnsureHome(ctx context.Context) error
	ToMixer(ctx context.Context) error
	Mix(ctx context.Context) error
	Seal(ctx context.Context) error
	SliderPosition() (int, bool)
	MixerPosition() int
	Forget()
}

// Dispenser doses one ingredient.
type Dispenser interface {
	Dispense(ctx context.Context, ing dispense.Ingredient) (int, error)
}

// Chopper is the latched chopper motor.
type Chopper interface {
	Enable() error
	Disable() error
}

// Buttons are the operator push buttons.
type Buttons interface {
	ResetPressed() bool
	StartPressed() bool
}

// Indicator is the harvest-ready LED.
type Indicator interface {
	Set(on bool) error
}

// Actuators switches the machine's supplies.
type Actuators interface {
	PowerUp() error
	ShutdownAll() error
}

// Recorder receives controller metrics.
type Recorder interface {
	Tick()
	SetPhase(p logic.Phase)
	SetWeight(ing logic.Ingredient, grams int)
	Fault(c logic.Category)
	SetFaultLatched(latched bool)
	SetDaysRemaining(days int)
	BatchStarted()
}

// Deps are the controller's collaborators. Display and Recorder may be nil.
type Deps struct {
	State       State
	Sequencer   Sequencer
	Dispenser   Dispenser
	Ingredients []dispense.Ingredient
	Chopper     Chopper
	Buttons     Buttons
	LED         Indicator
	Actuators   Actuators
	Display     display.Display
	Clock       clock.Clock
	Recipe      logic.Recipe
	Recorder    Recorder
}

// Controller is the batch state machine.
type Controller struct {
	Deps

	newID     func() string
	fault     error
	lastPhase logic.Phase
	batchID   string
}

// New creates a controller.
func New(d Deps) *Controller {
	if d.Display == nil {
		d.Display = display.Nop{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	return &Controller{Deps: d, newID: uuid.NewString}
}

// Fault returns the latched fatal fault, if any.
func (c *Controller) Fault() error { return c.fault }

// Phase returns the phase derived on the last tick.
func (c *Controller) Phase() logic.Phase { return c.lastPhase }

// Startup powers the machine and shows the welcome screen.
func (c *Controller) Startup() {
	c.Display.Welcome()
	if err := c.Actuators.PowerUp(); err != nil {
		log.Printf("batch: power up: %v", err)
	}
	if err := c.LED.Set(false); err != nil {
		log.Printf("batch: led: %v", err)
	}
}

// Tick runs one control step. The reset button is checked first, then the
// start button, then the phase. While a fatal fault is latched only the
// reset button is served.
func (c *Controller) Tick(ctx context.Context) error {
	c.Recorder.Tick()

	if c.Buttons.ResetPressed() {
		return c.Reset(ctx)
	}
	if c.fault != nil {
		c.Display.ShowActivity(display.Fault)
		return nil
	}
	if c.Buttons.StartPressed() {
		if err := c.start(); err != nil {
			return c.handle(ctx, err)
		}
	}

	b := c.State.Snapshot()
	c.batchID = b.ID
	phase := logic.DerivePhase(b, c.Recipe, c.Clock.Now())
	c.observe(phase, b)

	return c.handle(ctx, c.run(ctx, phase, b))
}

func (c *Controller) run(ctx context.Context, phase logic.Phase, b logic.Batch) error {
	switch phase {
	case logic.PhaseAwaitingLoad:
		c.Display.ShowActivity(display.NotLoaded)
		return c.LED.Set(false)

	case logic.PhasePreparing:
		return c.prepare(ctx, b)

	case logic.PhaseReadyToMix:
		// Mixing is entered from ReadyToMix within the same tick.
		c.showWeights(b)
		c.logf("phase %s -> %s", logic.PhaseReadyToMix, logic.PhaseMixing)
		c.Recorder.SetPhase(logic.PhaseMixing)
		c.lastPhase = logic.PhaseMixing
		return c.mix(ctx)

	case logic.PhaseSealing:
		return c.seal(ctx)

	case logic.PhaseFermenting:
		c.Display.ShowActivity(display.WaitingToFerment)
		return c.LED.Set(false)

	case logic.PhaseReadyForHarvest:
		c.Display.ShowActivity(display.ReadyForHarvest)
		return c.LED.Set(true)
	}
	return nil
}

// start marks the batch loaded and assigns its ID. Holding the button
// over several ticks starts one batch.
func (c *Controller) start() error {
	b := c.State.Snapshot()
	if b.Loaded || b.Fermenting {
		return nil
	}
	id := c.newID()
	if err := c.State.SetBatchID(id); err != nil {
		return logic.NewFault(logic.Transient, "start batch", err)
	}
	if err := c.State.SetLoaded(true); err != nil {
		return logic.NewFault(logic.Transient, "start batch", err)
	}
	c.batchID = id
	c.Recorder.BatchStarted()
	c.logf("start button: batch loaded")
	return nil
}

// prepare dispenses every ingredient still below target. The dry ones
// share one chopper run, which is stopped however the dispensing ends.
func (c *Controller) prepare(ctx context.Context, b logic.Batch) error {
	if err := c.Sequencer.EnsureHome(ctx); err != nil {
		return err
	}

	var dry, wet []dispense.Ingredient
	for _, ing := range c.Ingredients {
		if b.Weights[ing.Name] >= ing.Target {
			c.Display.ShowIngredientWeight(string(ing.Name), b.Weights[ing.Name])
			continue
		}
		if ing.Name.Dry() {
			dry = append(dry, ing)
		} else {
			wet = append(wet, ing)
		}
	}

	if len(dry) > 0 {
		if err := c.chopped(ctx, dry); err != nil {
			return err
		}
	}
	return c.dispenseAll(ctx, wet)
}

func (c *Controller) chopped(ctx context.Context, ings []dispense.Ingredient) (err error) {
	if err := c.Chopper.Enable(); err != nil {
		return logic.NewFault(logic.Transient, "chopper", err)
	}
	defer func() {
		if derr := c.Chopper.Disable(); derr != nil {
			c.logf("chopper off: %v", derr)
			if err == nil {
				err = logic.NewFault(logic.Transient, "chopper", derr)
			}
		}
	}()
	return c.dispenseAll(ctx, ings)
}

func (c *Controller) dispenseAll(ctx context.Context, ings []dispense.Ingredient) error {
	for _, ing := range ings {
		c.Display.ShowActivity(activityFor(ing.Name))
		grams, err := c.Dispenser.Dispense(ctx, ing)
		c.Recorder.SetWeight(ing.Name, grams)
		if err == nil {
			continue
		}
		if logic.CategoryOf(err) == logic.Degraded {
			c.logf("skipping %s: %v", ing.Name, err)
			c.Recorder.Fault(logic.Degraded)
			continue
		}
		return err
	}
	return nil
}

func (c *Controller) mix(ctx context.Context) error {
	if err := c.Sequencer.ToMixer(ctx); err != nil {
		return err
	}
	err := c.Sequencer.Mix(ctx)
	c.savePositions()
	if err != nil {
		return err
	}
	if err := c.State.SetMixingDone(true); err != nil {
		return logic.NewFault(logic.Transient, "mix", err)
	}
	c.logf("mixing done")
	return nil
}

func (c *Controller) seal(ctx context.Context) error {
	err := c.Sequencer.Seal(ctx)
	c.savePositions()
	if err != nil {
		return err
	}
	// The start time goes first: until fermenting is set the phase stays
	// Sealing and a failed write is retried on the next tick.
	if err := c.State.SetFermentationStart(c.Clock.Now()); err != nil {
		return logic.NewFault(logic.Transient, "seal", err)
	}
	if err := c.State.SetFermenting(true); err != nil {
		return logic.NewFault(logic.Transient, "seal", err)
	}
	c.logf("sealed, fermentation started")
	c.Display.ShowActivity(display.WaitingToFerment)
	return c.LED.Set(false)
}

// Reset returns the machine to an unloaded batch: the record is cleared,
// any latched fault released and the axes parked.
func (c *Controller) Reset(ctx context.Context) error {
	c.logf("reset button: clearing batch")
	c.fault = nil
	c.Recorder.SetFaultLatched(false)

	if err := c.Actuators.PowerUp(); err != nil {
		log.Printf("batch: power up: %v", err)
	}
	if err := c.Chopper.Disable(); err != nil {
		log.Printf("batch: chopper off: %v", err)
	}
	if err := c.LED.Set(false); err != nil {
		log.Printf("batch: led: %v", err)
	}
	if err := c.State.Reset(); err != nil {
		return c.handle(ctx, logic.NewFault(logic.Transient, "reset", err))
	}
	c.batchID = ""
	for _, ing := range c.Ingredients {
		c.Display.ShowIngredientWeight(string(ing.Name), 0)
		c.Recorder.SetWeight(ing.Name, 0)
	}

	c.Sequencer.Forget()
	err := c.Sequencer.Home(ctx)
	c.savePositions()
	if err != nil {
		return c.handle(ctx, err)
	}
	c.lastPhase = logic.PhaseAwaitingLoad
	c.Recorder.SetPhase(c.lastPhase)
	c.Display.ShowActivity(display.WaitingToLoad)
	return nil
}

// Shutdown de-energizes every actuator.
func (c *Controller) Shutdown() error {
	log.Printf("batch: shutdown, de-energizing actuators")
	return c.Actuators.ShutdownAll()
}

// handle classifies err. Fatal faults latch the controller.
func (c *Controller) handle(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	cat := logic.CategoryOf(err)
	c.Recorder.Fault(cat)
	switch cat {
	case logic.Fatal:
		c.latch(err)
	case logic.Degraded:
		c.logf("degraded: %v", err)
	default:
		c.logf("will retry: %v", err)
	}
	return err
}

func (c *Controller) latch(err error) {
	c.logf("FATAL, waiting for reset: %v", err)
	c.fault = err
	c.Sequencer.Forget()
	if serr := c.Actuators.ShutdownAll(); serr != nil {
		c.logf("shutdown after fault: %v", serr)
	}
	c.Recorder.SetFaultLatched(true)
	c.Display.ShowActivity(display.Fault)
}

func (c *Controller) observe(phase logic.Phase, b logic.Batch) {
	if phase != c.lastPhase {
		c.logf("phase %s -> %s", c.lastPhase, phase)
		c.lastPhase = phase
	}
	c.Recorder.SetPhase(phase)
	for _, ing := range logic.Ingredients {
		c.Recorder.SetWeight(ing, b.Weights[ing])
	}
	if b.Fermenting {
		days, err := logic.DaysRemaining(b.FermentationStart, c.Clock.Now(), c.Recipe.FermentationDays)
		if err != nil {
			c.logf("fermenting: %v", err)
		}
		c.Recorder.SetDaysRemaining(days)
	}
}

func (c *Controller) showWeights(b logic.Batch) {
	for _, ing := range c.Ingredients {
		c.Display.ShowIngredientWeight(string(ing.Name), b.Weights[ing.Name])
	}
}

func (c *Controller) savePositions() {
	if pos, ok := c.Sequencer.SliderPosition(); ok {
		if err := c.State.SetSliderPosition(pos); err != nil {
			c.logf("save slider position: %v", err)
		}
	}
	if err := c.State.SetMixerPosition(c.Sequencer.MixerPosition()); err != nil {
		c.logf("save mixer position: %v", err)
	}
}

func (c *Controller) logf(format string, args ...any) {
	id := c.batchID
	if id == "" {
		id = "-"
	}
	log.Printf("batch: "+format+" batch=%s", append(args, id)...)
}

func activityFor(ing logic.Ingredient) display.Activity {
	switch ing {
	case logic.Kakawate:
		return display.ChoppingKakawate
	case logic.Neem:
		return display.ChoppingNeem
	case logic.Molasses:
		return display.AddingMolasses
	default:
		return display.AddingWater
	}
}

type nopRecorder struct{}

func (nopRecorder) Tick()                           {}
func (nopRecorder) SetPhase(logic.Phase)            {}
func (nopRecorder) SetWeight(logic.Ingredient, int) {}
func (nopRecorder) Fault(logic.Category)            {}
func (nopRecorder) SetFaultLatched(bool)            {}
func (nopRecorder) SetDaysRemaining(int)            {}
func (nopRecorder) BatchStarted()                   {}

// Package clock abstracts time so that blocking hardware sequences can be
// driven by a simulated clock in tests.
package clock

import (
	"context"
	"time"
)

// Clock tells the time and sleeps.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, whichever comes first.
	// Returns ctx.Err() if the context ended the wait.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// Sleep waits on a timer, returning early if ctx is cancelled.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Budget bounds a blocking operation by iteration count and elapsed time.
// A zero field means that bound is disabled.
type Budget struct {
	MaxSteps   int
	MaxElapsed time.Duration
}

// Meter tracks consumption of a Budget against a Clock.
type Meter struct {
	budget Budget
	clock  Clock
	start  time.Time
	steps  int
}

// Start begins metering b from the current clock time.
func (b Budget) Start(c Clock) *Meter {
	return &Meter{budget: b, clock: c, start: c.Now()}
}

// Step records one iteration and reports whether the budget still allows work.
func (m *Meter) Step() bool {
	m.steps++
	return !m.Exhausted()
}

// Exhausted reports whether either bound has been reached.
func (m *Meter) Exhausted() bool {
	if m.budget.MaxSteps > 0 && m.steps >= m.budget.MaxSteps {
		return true
	}
	if m.budget.MaxElapsed > 0 && m.clock.Now().Sub(m.start) >= m.budget.MaxElapsed {
		return true
	}
	return false
}

// Steps returns the number of recorded iterations.
func (m *Meter) Steps() int { return m.steps }

// Elapsed returns clock time since Start.
func (m *Meter) Elapsed() time.Duration { return m.clock.Now().Sub(m.start) }

package clock

import (
	"context"
	"time"
)

// Fake is a simulated clock. Sleep advances the clock instantly.
// Not safe for concurrent use.
type Fake struct {
	now time.Time

	// Slept is the total simulated time spent in Sleep.
	Slept time.Duration

	// Sleeps counts calls to Sleep.
	Sleeps int
}

// NewFake creates a Fake starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the simulated time.
func (f *Fake) Now() time.Time { return f.now }

// Sleep advances the simulated time by d. It still honours cancellation.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Sleeps++
	if d > 0 {
		f.now = f.now.Add(d)
		f.Slept += d
	}
	return nil
}

// Advance moves the simulated time forward without counting a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set jumps the simulated time to t.
func (f *Fake) Set(t time.Time) {
	f.now = t
}

// Package status provides a thread-safe view of the controller for the
// state command and the heartbeat log.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/fpj-maker/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	StoreDriver string
	StorePath   string
	ScalePort   string
	DisplayMode string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Phase         logic.Phase
	Batch         logic.Batch
	Recipe        logic.Recipe
	Fault         string
	DaysRemaining int
	Ticks         int64
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, recipe and config.
func NewTracker(startTime time.Time, recipe logic.Recipe, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Recipe:    recipe,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the phase, record and fault seen on a tick.
// Called from runLoop on every tick.
func (t *Tracker) Update(phase logic.Phase, b logic.Batch, fault error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Phase = phase
	t.snap.Batch = b
	t.snap.Ticks++
	t.snap.Fault = ""
	if fault != nil {
		t.snap.Fault = fault.Error()
	}
	t.snap.DaysRemaining = 0
	if b.Fermenting {
		t.snap.DaysRemaining, _ = logic.DaysRemaining(b.FermentationStart, t.now(), t.snap.Recipe.FermentationDays)
	}
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

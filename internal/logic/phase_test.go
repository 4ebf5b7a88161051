package logic

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func recipe() Recipe {
	return Recipe{
		Targets: map[Ingredient]int{
			Kakawate: 1000,
			Neem:     1000,
			Molasses: 2000,
			Water:    2000,
		},
		FermentationDays: 7,
	}
}

func full() map[Ingredient]int {
	return map[Ingredient]int{Kakawate: 1000, Neem: 1000, Molasses: 2000, Water: 2000}
}

func TestDerivePhase(t *testing.T) {
	tests := []struct {
		name  string
		batch Batch
		want  Phase
	}{
		{
			name:  "fresh state awaits load",
			batch: Batch{},
			want:  PhaseAwaitingLoad,
		},
		{
			name:  "weights ignored until loaded",
			batch: Batch{Weights: full()},
			want:  PhaseAwaitingLoad,
		},
		{
			name:  "loaded and empty prepares",
			batch: Batch{Loaded: true},
			want:  PhasePreparing,
		},
		{
			name: "one short ingredient prepares",
			batch: Batch{Loaded: true, Weights: map[Ingredient]int{
				Kakawate: 1000, Neem: 1000, Molasses: 2000, Water: 1999,
			}},
			want: PhasePreparing,
		},
		{
			name:  "full and unmixed is ready to mix",
			batch: Batch{Loaded: true, Weights: full()},
			want:  PhaseReadyToMix,
		},
		{
			name:  "full and mixed seals",
			batch: Batch{Loaded: true, MixingDone: true, Weights: full()},
			want:  PhaseSealing,
		},
		{
			name:  "fermenting wins over everything",
			batch: Batch{Fermenting: true, FermentationStart: now.Add(-time.Hour)},
			want:  PhaseFermenting,
		},
		{
			name:  "fermenting without start stays fermenting",
			batch: Batch{Fermenting: true, Loaded: true, Weights: full()},
			want:  PhaseFermenting,
		},
		{
			name:  "seven days ferments to harvest",
			batch: Batch{Fermenting: true, FermentationStart: now.Add(-7 * 24 * time.Hour)},
			want:  PhaseReadyForHarvest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePhase(tt.batch, recipe(), now)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// Phase recomputation: whatever the previous in-memory phase was, a record
// with full weights, mixing done and not fermenting derives Sealing.
func TestDerivePhaseRestartSafe(t *testing.T) {
	b := Batch{Loaded: true, MixingDone: true, Weights: map[Ingredient]int{
		Kakawate: 1200, Neem: 1000, Molasses: 2010, Water: 2000,
	}}
	for i := 0; i < 3; i++ {
		if got := DerivePhase(b, recipe(), now.Add(time.Duration(i)*time.Hour)); got != PhaseSealing {
			t.Fatalf("tick %d: expected SEALING, got %s", i, got)
		}
	}
}

func TestDeficient(t *testing.T) {
	b := Batch{Weights: map[Ingredient]int{Kakawate: 1000, Molasses: 1500}}
	got := Deficient(b, recipe())
	want := []Ingredient{Neem, Molasses, Water}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if d := Deficient(Batch{Weights: full()}, recipe()); len(d) != 0 {
		t.Errorf("expected no deficit, got %v", d)
	}
}

func TestDeficit(t *testing.T) {
	if d := Deficit(1000, 300); d != 700 {
		t.Errorf("expected 700, got %d", d)
	}
	if d := Deficit(1000, 1200); d != 0 {
		t.Errorf("expected 0, got %d", d)
	}
}

func TestDry(t *testing.T) {
	if !Kakawate.Dry() || !Neem.Dry() {
		t.Error("kakawate and neem should be dry")
	}
	if Molasses.Dry() || Water.Dry() {
		t.Error("molasses and water should be wet")
	}
}

func TestReadyForHarvestGating(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ready, err := ReadyForHarvest(start, start.Add(6*24*time.Hour+23*time.Hour), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ready {
		t.Error("6d23h should not be ready")
	}

	ready, _ = ReadyForHarvest(start, start.Add(7*24*time.Hour), 7)
	if !ready {
		t.Error("7d0h should be ready")
	}

	ready, _ = ReadyForHarvest(start, start.Add(-time.Hour), 0)
	if !ready {
		t.Error("zero-day fermentation is ready immediately")
	}
}

func TestReadyForHarvestNoStart(t *testing.T) {
	ready, err := ReadyForHarvest(time.Time{}, now, 7)
	if ready {
		t.Error("absent start should not be ready")
	}
	if !errors.Is(err, ErrNoFermentationStart) {
		t.Errorf("expected ErrNoFermentationStart, got %v", err)
	}
}

func TestDaysRemaining(t *testing.T) {
	start := now.Add(-(2*24*time.Hour + 5*time.Hour))
	left, err := DaysRemaining(start, now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left != 5 {
		t.Errorf("expected 5 days left, got %d", left)
	}

	left, _ = DaysRemaining(now.Add(-30*24*time.Hour), now, 7)
	if left != 0 {
		t.Errorf("expected 0 days left, got %d", left)
	}

	if _, err := DaysRemaining(time.Time{}, now, 7); !errors.Is(err, ErrNoFermentationStart) {
		t.Errorf("expected ErrNoFermentationStart, got %v", err)
	}
}

func TestElapsedDaysClockSkew(t *testing.T) {
	if d := ElapsedDays(now, now.Add(-48*time.Hour)); d != 0 {
		t.Errorf("expected 0 for start in the future, got %d", d)
	}
}

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fpj-maker/internal/logic"
)

func TestSetPhaseIsOneHot(t *testing.T) {
	c := NewCollector()
	c.SetPhase(logic.PhasePreparing)
	c.SetPhase(logic.PhaseSealing)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.phase.WithLabelValues(string(logic.PhasePreparing))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phase.WithLabelValues(string(logic.PhaseSealing))))
	assert.Equal(t, len(phases), testutil.CollectAndCount(c.phase))
}

func TestDispenseCounters(t *testing.T) {
	c := NewCollector()
	c.Pulse(logic.Water)
	c.Pulse(logic.Water)
	c.Ignored(logic.Neem)
	c.Dispensed(logic.Water, 2000)
	c.Dispensed(logic.Water, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.pulses.WithLabelValues("water")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ignored.WithLabelValues("neem")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(c.dispensed.WithLabelValues("water")))
}

func TestFaultsAndLatch(t *testing.T) {
	c := NewCollector()
	c.Fault(logic.Fatal)
	c.SetFaultLatched(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.faults.WithLabelValues("FATAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.faultLatched))

	c.SetFaultLatched(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.faultLatched))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.Tick()
	c.SetWeight(logic.Kakawate, 640)
	c.SetDaysRemaining(3)
	c.BatchStarted()

	path := filepath.Join(t.TempDir(), "fpj.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "fpj_controller_ticks_total 1")
	assert.Contains(t, out, `fpj_ingredient_weight_grams{ingredient="kakawate"} 640`)
	assert.Contains(t, out, "fpj_fermentation_days_remaining 3")
	assert.Contains(t, out, "fpj_batches_started_total 1")
}

func TestWriteTextfileBadPath(t *testing.T) {
	c := NewCollector()
	assert.Error(t, c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "fpj.prom")))
}

// Package metrics collects controller metrics in a Prometheus registry
// and writes them to a node_exporter textfile. There is no HTTP endpoint.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/fpj-maker/internal/logic"
)

var phases = []logic.Phase{
	logic.PhaseAwaitingLoad,
	logic.PhasePreparing,
	logic.PhaseReadyToMix,
	logic.PhaseMixing,
	logic.PhaseSealing,
	logic.PhaseFermenting,
	logic.PhaseReadyForHarvest,
}

// Collector holds the controller metrics.
type Collector struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	phase         *prometheus.GaugeVec
	weight        *prometheus.GaugeVec
	pulses        *prometheus.CounterVec
	ignored       *prometheus.CounterVec
	dispensed     *prometheus.CounterVec
	faults        *prometheus.CounterVec
	faultLatched  prometheus.Gauge
	daysRemaining prometheus.Gauge
	batches       prometheus.Counter
}

// NewCollector creates and registers the metrics on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpj_controller_ticks_total",
			Help: "Control loop ticks",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fpj_batch_phase",
			Help: "1 for the current batch phase, 0 otherwise",
		}, []string{"phase"}),
		weight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fpj_ingredient_weight_grams",
			Help: "Stored weight of each ingredient in the current batch",
		}, []string{"ingredient"}),
		pulses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fpj_dispense_pulses_total",
			Help: "Actuator pulses issued while dispensing",
		}, []string{"ingredient"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fpj_dispense_ignored_samples_total",
			Help: "Scale samples ignored as negative or unreadable",
		}, []string{"ingredient"}),
		dispensed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fpj_dispensed_grams_total",
			Help: "Grams dispensed by completed dispense loops",
		}, []string{"ingredient"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fpj_faults_total",
			Help: "Failed operations by fault category",
		}, []string{"category"}),
		faultLatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fpj_fault_latched",
			Help: "1 while a fatal fault waits for the reset button",
		}),
		daysRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fpj_fermentation_days_remaining",
			Help: "Whole days until the fermenting batch is ready",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpj_batches_started_total",
			Help: "Batches started with the start button",
		}),
	}

	c.registry.MustRegister(c.ticks, c.phase, c.weight, c.pulses, c.ignored,
		c.dispensed, c.faults, c.faultLatched, c.daysRemaining, c.batches)
	return c
}

// Registry exposes the registry, for tests and the textfile writer.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Tick() { c.ticks.Inc() }

// SetPhase marks p as the current phase.
func (c *Collector) SetPhase(p logic.Phase) {
	for _, ph := range phases {
		v := 0.0
		if ph == p {
			v = 1
		}
		c.phase.WithLabelValues(string(ph)).Set(v)
	}
}

func (c *Collector) SetWeight(ing logic.Ingredient, grams int) {
	c.weight.WithLabelValues(string(ing)).Set(float64(grams))
}

func (c *Collector) Pulse(ing logic.Ingredient) { c.pulses.WithLabelValues(string(ing)).Inc() }

func (c *Collector) Ignored(ing logic.Ingredient) { c.ignored.WithLabelValues(string(ing)).Inc() }

func (c *Collector) Dispensed(ing logic.Ingredient, grams int) {
	if grams > 0 {
		c.dispensed.WithLabelValues(string(ing)).Add(float64(grams))
	}
}

func (c *Collector) Fault(cat logic.Category) { c.faults.WithLabelValues(string(cat)).Inc() }

func (c *Collector) SetFaultLatched(latched bool) {
	if latched {
		c.faultLatched.Set(1)
	} else {
		c.faultLatched.Set(0)
	}
}

func (c *Collector) SetDaysRemaining(days int) { c.daysRemaining.Set(float64(days)) }

func (c *Collector) BatchStarted() { c.batches.Inc() }

// WriteTextfile writes the registry to path for node_exporter's textfile
// collector. The write is atomic.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

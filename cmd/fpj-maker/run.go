package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/fpj-maker/internal/batch"
	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/display"
	"github.com/sweeney/fpj-maker/internal/gpio"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/logic"
	"github.com/sweeney/fpj-maker/internal/metrics"
	"github.com/sweeney/fpj-maker/internal/scale"
	"github.com/sweeney/fpj-maker/internal/status"
	"github.com/sweeney/fpj-maker/internal/store"
)

var (
	tickOverride    time.Duration
	displayOverride string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the batch controller until SIGINT or SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if tickOverride > 0 {
			cfg.Tick = tickOverride
		}
		if displayOverride != "" {
			cfg.Display.Mode = displayOverride
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	runCmd.Flags().DurationVar(&tickOverride, "tick", 0, "control tick interval (overrides config)")
	runCmd.Flags().StringVar(&displayOverride, "display", "", "display mode: lcd, console or none (overrides config)")
}

func run(cfg *config.Config) error {
	bank, err := gpio.NewRealBank()
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer bank.Close()

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	state := store.NewBatchState(st)

	sensor, err := scale.Open(cfg.Scale.Port, cfg.Scale.BaudRate, cfg.Scale.Timeout, cfg.Scale.OpenDelay)
	if err != nil {
		return fmt.Errorf("open scale: %w", err)
	}
	defer sensor.Close()

	disp := openDisplay(cfg.Display)
	defer disp.Close()

	collector := metrics.NewCollector()
	clk := clock.Real{}
	machine := hw.New(bank, cfg.Pins, cfg.Motion, clk)
	ctrl := batch.Wire(cfg, machine, state, sensor, disp, collector, clk)

	tracker := status.NewTracker(time.Now(), batch.RecipeFrom(cfg.Recipe), status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		StoreDriver: cfg.Store.Driver,
		StorePath:   cfg.Store.Path,
		ScalePort:   cfg.Scale.Port,
		DisplayMode: cfg.Display.Mode,
	})

	log.Printf("started: tick=%v store=%s:%s scale=%s display=%s",
		cfg.Tick, cfg.Store.Driver, cfg.Store.Path, cfg.Scale.Port, cfg.Display.Mode)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, state, tracker, textfile(collector, cfg.Metrics.Textfile), cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

func openDisplay(d config.Display) display.Display {
	switch d.Mode {
	case "lcd":
		return display.OpenLCD(d.Bus, d.ActivityAddr, d.WeightAddr)
	case "console":
		return display.NewConsole(os.Stdout)
	default:
		return display.Nop{}
	}
}

// textfile returns a function that writes the metrics textfile, or nil
// when no path is configured.
func textfile(c *metrics.Collector, path string) func() error {
	if path == "" {
		return nil
	}
	return func() error { return c.WriteTextfile(path) }
}

type controller interface {
	Startup()
	Tick(ctx context.Context) error
	Shutdown() error
	Phase() logic.Phase
	Fault() error
}

type snapshotter interface {
	Snapshot() logic.Batch
}

// runLoop ticks ctrl until a signal arrives. A signal cancels the tick in
// progress; the actuators are de-energized before runLoop returns.
func runLoop(ctrl controller, state snapshotter, tracker *status.Tracker, writeMetrics func() error, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			cancel()
		case <-done:
		}
	}()

	ctrl.Startup()
	lastHeartbeat := now()

	for {
		select {
		case <-ctx.Done():
			if err := ctrl.Shutdown(); err != nil {
				log.Printf("shutdown: %v", err)
			}
			if writeMetrics != nil {
				if err := writeMetrics(); err != nil {
					log.Printf("metrics textfile: %v", err)
				}
			}
			return nil

		case <-tick:
			// select picks randomly when a tick and the signal are both ready
			if ctx.Err() != nil {
				continue
			}
			if err := ctrl.Tick(ctx); err != nil && ctx.Err() == nil {
				log.Printf("tick: %v", err)
				// Don't crash on a failed tick; the next one retries
			}

			if tracker != nil {
				tracker.Update(ctrl.Phase(), state.Snapshot(), ctrl.Fault())
			}
			if writeMetrics != nil {
				if err := writeMetrics(); err != nil {
					log.Printf("metrics textfile: %v", err)
				}
			}

			// Check for heartbeat
			if t := now(); heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				if tracker != nil {
					log.Printf("heartbeat: %s", status.FormatHeartbeat(tracker.Snapshot()))
				}
			}
		}
	}
}

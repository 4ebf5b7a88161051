package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/gpio"
	"github.com/sweeney/fpj-maker/internal/hw"
	"github.com/sweeney/fpj-maker/internal/scale"
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Exercise one piece of hardware",
}

var switchesCmd = &cobra.Command{
	Use:   "switches",
	Short: "Print every limit switch and button once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		bank, err := gpio.NewRealBank()
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer bank.Close()
		return printSwitches(cmd.OutOrStdout(), hw.NewLimits(bank, cfg.Pins))
	},
}

var scaleReads int

var scaleCmd = &cobra.Command{
	Use:   "scale",
	Short: "Tare the scale and print readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sensor, err := scale.Open(cfg.Scale.Port, cfg.Scale.BaudRate, cfg.Scale.Timeout, cfg.Scale.OpenDelay)
		if err != nil {
			return fmt.Errorf("open scale: %w", err)
		}
		defer sensor.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return readScale(ctx, cmd.OutOrStdout(), sensor, clock.Real{}, scaleReads, time.Second)
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay <name> <duration>",
	Short: "Switch one relay on for a duration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("duration %q: %w", args[1], err)
		}
		if _, ok := cfg.Pins.Relays[args[0]]; !ok {
			return fmt.Errorf("unknown relay %q (have %v)", args[0], relayNames(cfg.Pins))
		}
		bank, err := gpio.NewRealBank()
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer bank.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		relays := hw.NewRelays(bank, cfg.Pins.RelayChip, cfg.Pins.Relays, clock.Real{})
		defer relays.ShutdownAll()
		return pulseRelay(ctx, cmd.OutOrStdout(), relays, args[0], d)
	},
}

func init() {
	scaleCmd.Flags().IntVar(&scaleReads, "reads", 10, "number of readings, one per second")

	diagCmd.AddCommand(switchesCmd)
	diagCmd.AddCommand(scaleCmd)
	diagCmd.AddCommand(relayCmd)
}

func printSwitches(w io.Writer, limits *hw.Limits) error {
	snap := limits.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "open"
		if snap[name] {
			state = "CLOSED"
		}
		if _, err := fmt.Fprintf(w, "%-12s %s\n", name, state); err != nil {
			return err
		}
	}
	return nil
}

func readScale(ctx context.Context, w io.Writer, sensor scale.Sensor, clk clock.Clock, n int, every time.Duration) error {
	if err := sensor.Tare(ctx); err != nil {
		return fmt.Errorf("tare: %w", err)
	}
	fmt.Fprintln(w, "tared")
	for i := 0; i < n; i++ {
		grams, err := sensor.ReadWeight(ctx)
		if err != nil {
			fmt.Fprintf(w, "read %d: %v\n", i+1, err)
		} else {
			fmt.Fprintf(w, "read %d: %d g\n", i+1, grams)
		}
		if err := clk.Sleep(ctx, every); err != nil {
			return err
		}
	}
	return nil
}

func pulseRelay(ctx context.Context, w io.Writer, relays *hw.Relays, name string, d time.Duration) error {
	fmt.Fprintf(w, "%s on for %v\n", name, d)
	if err := relays.Get(name).Run(ctx, d, 0); err != nil {
		return fmt.Errorf("relay %s: %w", name, err)
	}
	fmt.Fprintf(w, "%s off\n", name)
	return nil
}

func relayNames(p config.Pins) []string {
	names := make([]string, 0, len(p.Relays))
	for name := range p.Relays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}


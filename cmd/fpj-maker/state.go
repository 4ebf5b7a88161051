package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/fpj-maker/internal/batch"
	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/logic"
	"github.com/sweeney/fpj-maker/internal/status"
	"github.com/sweeney/fpj-maker/internal/store"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the persisted batch record and its derived phase as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printState(cmd.OutOrStdout(), cfg, time.Now())
	},
}

func printState(w io.Writer, cfg *config.Config, now time.Time) error {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	b := store.NewBatchState(st).Snapshot()
	recipe := batch.RecipeFrom(cfg.Recipe)

	tracker := status.NewTracker(now, recipe, status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		StoreDriver: cfg.Store.Driver,
		StorePath:   cfg.Store.Path,
		ScalePort:   cfg.Scale.Port,
		DisplayMode: cfg.Display.Mode,
	})
	tracker.Update(logic.DerivePhase(b, recipe, now), b, nil)

	_, err = fmt.Fprintf(w, "%s\n", status.FormatJSON(tracker.Snapshot()))
	return err
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the persisted batch record without moving the machine",
	Long: `reset clears the persisted batch record the way the reset button does,
without touching the hardware. The axes are homed on the next reset button
press or batch start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to clear the batch record without --yes")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return resetState(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm clearing the batch record")
}

func resetState(w io.Writer, cfg *config.Config) error {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := store.NewBatchState(st).Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Fprintf(w, "batch record cleared (%s:%s)\n", cfg.Store.Driver, cfg.Store.Path)
	return nil
}


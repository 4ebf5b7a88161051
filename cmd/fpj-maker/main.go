// Command fpj-maker runs the fermented plant juice batch machine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/fpj-maker/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "fpj-maker",
	Short:        "Fermented plant juice batch controller",
	Long:         `fpj-maker chops, weighs, mixes and seals a batch of fermented plant juice, then times its fermentation.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "YAML config file (missing file means defaults)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(diagCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

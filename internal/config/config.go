// Package config holds the controller configuration: recipe targets, motion
// calibration, pin allocation and device paths. Values are compiled-in
// defaults overridden by an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon looks for its config file.
const DefaultPath = "/etc/fpj-maker/config.yaml"

// Config is the complete controller configuration.
type Config struct {
	Tick      time.Duration `yaml:"tick"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Recipe    Recipe        `yaml:"recipe"`
	Dispense  Dispense      `yaml:"dispense"`
	Motion    Motion        `yaml:"motion"`
	Pins      Pins          `yaml:"pins"`
	Scale     Scale         `yaml:"scale"`
	Store     Store         `yaml:"store"`
	Display   Display       `yaml:"display"`
	Metrics   Metrics       `yaml:"metrics"`
}

// Ingredient is the target and per-pulse actuation time for one material.
type Ingredient struct {
	TargetGrams int           `yaml:"target_grams"`
	Step        time.Duration `yaml:"step"`
}

// Recipe describes one batch.
type Recipe struct {
	Kakawate         Ingredient    `yaml:"kakawate"`
	Neem             Ingredient    `yaml:"neem"`
	Molasses         Ingredient    `yaml:"molasses"`
	Water            Ingredient    `yaml:"water"`
	MixDuration      time.Duration `yaml:"mix_duration"`
	FermentationDays int           `yaml:"fermentation_days"`
}

// Dispense tunes the weight feedback loop.
type Dispense struct {
	SettleAfterTare  time.Duration `yaml:"settle_after_tare"`
	SettleAfterPulse time.Duration `yaml:"settle_after_pulse"`
	MaxIterations    int           `yaml:"max_iterations"`
	MaxDuration      time.Duration `yaml:"max_duration"`
}

// Axis is the calibration of one stepper axis.
type Axis struct {
	PulseInterval time.Duration `yaml:"pulse_interval"`
	SafetyCap     int           `yaml:"safety_cap"`
}

// Motion holds stepper calibration and actuator timings.
type Motion struct {
	Slider      Axis `yaml:"slider"`
	Sealer      Axis `yaml:"sealer"`
	MixerSteps  int  `yaml:"mixer_steps"`
	SealerSteps int  `yaml:"sealer_steps"`

	MixerPollInterval time.Duration `yaml:"mixer_poll_interval"`
	MixerPollCap      int           `yaml:"mixer_poll_cap"`

	RelayRest   time.Duration `yaml:"relay_rest"`
	PowerSettle time.Duration `yaml:"power_settle"`
	ServoSettle time.Duration `yaml:"servo_settle"`
}

// Scale is the serial link to the load-cell microcontroller.
type Scale struct {
	Port      string        `yaml:"port"`
	BaudRate  int           `yaml:"baud_rate"`
	Timeout   time.Duration `yaml:"timeout"`
	OpenDelay time.Duration `yaml:"open_delay"`
}

// Store selects the persistence backend.
type Store struct {
	Driver string `yaml:"driver"` // "json" or "sqlite"
	Path   string `yaml:"path"`
}

// Display selects the operator display.
type Display struct {
	Mode         string `yaml:"mode"` // "lcd", "console" or "none"
	Bus          string `yaml:"bus"`
	ActivityAddr uint16 `yaml:"activity_addr"`
	WeightAddr   uint16 `yaml:"weight_addr"`
}

// Metrics configures the node_exporter textfile output. Empty disables it.
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration of the reference machine.
func Default() *Config {
	return &Config{
		Tick:      time.Second,
		Heartbeat: 15 * time.Minute,
		Recipe: Recipe{
			Kakawate:         Ingredient{TargetGrams: 1000, Step: 5 * time.Second},
			Neem:             Ingredient{TargetGrams: 1000, Step: 5 * time.Second},
			Molasses:         Ingredient{TargetGrams: 2000, Step: 5 * time.Second},
			Water:            Ingredient{TargetGrams: 2000, Step: 1 * time.Second},
			MixDuration:      20 * time.Second,
			FermentationDays: 7,
		},
		Dispense: Dispense{
			SettleAfterTare:  500 * time.Millisecond,
			SettleAfterPulse: 300 * time.Millisecond,
			MaxIterations:    2000,
			MaxDuration:      45 * time.Minute,
		},
		Motion: Motion{
			Slider:            Axis{PulseInterval: 500 * time.Microsecond, SafetyCap: 100000},
			Sealer:            Axis{PulseInterval: time.Millisecond, SafetyCap: 1000},
			MixerSteps:        21000,
			SealerSteps:       58000,
			MixerPollInterval: time.Second,
			MixerPollCap:      60,
			RelayRest:         3 * time.Second,
			PowerSettle:       3 * time.Second,
			ServoSettle:       500 * time.Millisecond,
		},
		Pins: DefaultPins(),
		Scale: Scale{
			Port:      "/dev/ttyUSB0",
			BaudRate:  115200,
			Timeout:   5 * time.Second,
			OpenDelay: 2 * time.Second,
		},
		Store: Store{
			Driver: "json",
			Path:   "/var/lib/fpj-maker/FPJ_DATA.json",
		},
		Display: Display{
			Mode:         "lcd",
			Bus:          "/dev/i2c-1",
			ActivityAddr: 0x25,
			WeightAddr:   0x24,
		},
	}
}

// Load reads path over the defaults and validates the result.
// A missing file is not an error: the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("config: %s not found, using defaults", path)
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and the pin allocation table.
func (c *Config) Validate() error {
	if c.Tick <= 0 {
		return errors.New("tick must be positive")
	}
	if c.Heartbeat < 0 {
		return errors.New("heartbeat must not be negative")
	}
	for name, ing := range map[string]Ingredient{
		"kakawate": c.Recipe.Kakawate,
		"neem":     c.Recipe.Neem,
		"molasses": c.Recipe.Molasses,
		"water":    c.Recipe.Water,
	} {
		if ing.TargetGrams <= 0 {
			return fmt.Errorf("recipe.%s.target_grams must be positive", name)
		}
		if ing.Step <= 0 {
			return fmt.Errorf("recipe.%s.step must be positive", name)
		}
	}
	if c.Recipe.FermentationDays < 0 {
		return errors.New("recipe.fermentation_days must not be negative")
	}
	if c.Motion.Slider.PulseInterval <= 0 || c.Motion.Sealer.PulseInterval <= 0 {
		return errors.New("motion pulse intervals must be positive")
	}
	if c.Motion.Slider.SafetyCap <= 0 || c.Motion.Sealer.SafetyCap <= 0 || c.Motion.MixerPollCap <= 0 {
		return errors.New("motion safety caps must be positive")
	}
	if c.Motion.MixerSteps <= 0 || c.Motion.SealerSteps <= c.Motion.MixerSteps {
		return errors.New("motion.sealer_steps must be beyond motion.mixer_steps")
	}
	switch c.Store.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.driver %q: want json or sqlite", c.Store.Driver)
	}
	switch c.Display.Mode {
	case "lcd", "console", "none":
	default:
		return fmt.Errorf("display.mode %q: want lcd, console or none", c.Display.Mode)
	}
	return c.Pins.Validate()
}

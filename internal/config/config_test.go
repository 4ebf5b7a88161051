package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
recipe:
  water:
    target_grams: 1500
  fermentation_days: 5
dispense:
  max_iterations: 50
store:
  driver: sqlite
  path: /tmp/fpj.db
pins:
  relays:
    charger: 13
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.Recipe.Water.TargetGrams)
	assert.Equal(t, time.Second, cfg.Recipe.Water.Step, "unset fields keep defaults")
	assert.Equal(t, 5, cfg.Recipe.FermentationDays)
	assert.Equal(t, 50, cfg.Dispense.MaxIterations)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 13, cfg.Pins.Relays[RelayCharger])
	assert.Equal(t, 6, cfg.Pins.Relays[RelayWaterPump], "other relays keep defaults")
}

func TestLoadParsesDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recipe:\n  mix_duration: 45s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Recipe.MixDuration)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero target", "recipe:\n  neem:\n    target_grams: 0\n"},
		{"bad driver", "store:\n  driver: postgres\n"},
		{"bad display", "display:\n  mode: oled\n"},
		{"sealer before mixer", "motion:\n  sealer_steps: 100\n"},
		{"garbage", "recipe: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestPinsCollision(t *testing.T) {
	p := DefaultPins()
	p.Relays[RelayCharger] = p.Relays[RelayNeem]

	err := p.Validate()
	var pc *PinCollisionError
	require.True(t, errors.As(err, &pc), "got %v", err)
	assert.Equal(t, "gpiochip2", pc.Chip)
	assert.Equal(t, 9, pc.Offset)
}

func TestPinsInputOutputShareChip(t *testing.T) {
	p := DefaultPins()
	p.Outputs[OutputLED] = p.Inputs[InputStart]

	var pc *PinCollisionError
	assert.ErrorAs(t, p.Validate(), &pc)
}

func TestPinsSameOffsetDifferentChips(t *testing.T) {
	p := DefaultPins()
	// relay 6 and input 6 live on different expanders
	require.Equal(t, p.Relays[RelayWaterPump], p.Inputs[InputMixerUp])
	assert.NoError(t, p.Validate())
}

func TestPinsMissingAndRange(t *testing.T) {
	p := DefaultPins()
	delete(p.Inputs, InputReset)
	assert.ErrorContains(t, p.Validate(), "inputs.reset")

	p = DefaultPins()
	p.Relays[RelaySMPS] = ExpanderLines
	assert.ErrorContains(t, p.Validate(), "out of range")
}

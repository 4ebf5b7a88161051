package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/fpj-maker/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Phase         string       `json:"phase"`
	Fault         string       `json:"fault,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Ticks         int64        `json:"ticks"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Batch         BatchJSON    `json:"batch"`
	Weights       []WeightJSON `json:"weights"`
	Config        ConfigJSON   `json:"config"`
}

// BatchJSON is the JSON representation of the batch record.
type BatchJSON struct {
	ID                string `json:"id,omitempty"`
	Loaded            bool   `json:"loaded"`
	MixingDone        bool   `json:"mixing_done"`
	Fermenting        bool   `json:"fermenting"`
	FermentationStart string `json:"fermentation_start,omitempty"`
	DaysRemaining     int    `json:"days_remaining"`
}

// WeightJSON is one ingredient's progress.
type WeightJSON struct {
	Ingredient string `json:"ingredient"`
	Grams      int    `json:"grams"`
	Target     int    `json:"target"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	StoreDriver string `json:"store_driver"`
	StorePath   string `json:"store_path"`
	ScalePort   string `json:"scale_port"`
	DisplayMode string `json:"display_mode"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	inner := StatusInner{
		Phase:         phase,
		Fault:         snap.Fault,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		Ticks:         snap.Ticks,
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Batch: BatchJSON{
			ID:            snap.Batch.ID,
			Loaded:        snap.Batch.Loaded,
			MixingDone:    snap.Batch.MixingDone,
			Fermenting:    snap.Batch.Fermenting,
			DaysRemaining: snap.DaysRemaining,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			StoreDriver: snap.Config.StoreDriver,
			StorePath:   snap.Config.StorePath,
			ScalePort:   snap.Config.ScalePort,
			DisplayMode: snap.Config.DisplayMode,
		},
	}
	if !snap.Batch.FermentationStart.IsZero() {
		inner.Batch.FermentationStart = snap.Batch.FermentationStart.Format(time.RFC3339)
	}
	for _, ing := range logic.Ingredients {
		inner.Weights = append(inner.Weights, WeightJSON{
			Ingredient: string(ing),
			Grams:      snap.Batch.Weights[ing],
			Target:     snap.Recipe.Targets[ing],
		})
	}
	return inner
}

// FormatJSON returns the indented JSON status for the state command.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatHeartbeat returns the compact JSON status logged on each heartbeat.
func FormatHeartbeat(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
	return data
}

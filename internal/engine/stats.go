package engine

import (
	"encoding/json"
	"os"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/metrics"
)

// DeviceStats is one device's lifetime counters, printed per device at
// run end in the source's print_statistics and retained here on the
// engine's per-device record (SPEC_FULL §4.6).
type DeviceStats struct {
	Vendor         string `json:"vendor"`
	Model          string `json:"model"`
	NumPacketsSent int    `json:"numPacketsSent"`
	NumBurstsSent  int    `json:"numBurstsSent"`
	MACCount       int    `json:"macCount"`
}

// RunStats is the structured JSON stats file written alongside the
// capture, log, probe-id mapping and device CSV (SPEC_FULL §3) — the
// auto-tune loop's preferred metrics source (§4.8).
type RunStats struct {
	RunID           string              `json:"runId"`
	DeviceCount     int                 `json:"deviceCount"`
	FrameCount      int                 `json:"frameCount"`
	DurationSeconds float64             `json:"durationSeconds"`
	Metrics         metrics.Result      `json:"metrics"`
	Devices         map[int]DeviceStats `json:"devices"`
}

// WriteToFile serializes RunStats as indented JSON to the named file —
// always JSON, never YAML, since §3 specifically names this a
// "structured JSON stats file" consumed by the auto-tune parsing
// cascade.
func (r *RunStats) WriteToFile(filename string) error {
	raw, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return config.Newf(config.IOFailure, filename, 0, "marshal run stats: %v", err)
	}
	if err := os.WriteFile(filename, raw, 0o644); err != nil {
		return config.Newf(config.IOFailure, filename, 0, "write run stats: %v", err)
	}
	return nil
}

package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// StatsFile is the shape of the RunStats JSON the engine writes at the
// end of a run — the auto-tune loop's preferred metrics source (§4.8).
// Defined here rather than imported from internal/engine so metrics
// never depends on the engine package it is itself consumed by.
type StatsFile struct {
	Metrics Result `json:"metrics"`
}

// LoadStatsJSON reads the engine's own structured stats file. Returns
// ok=false on any read or parse failure rather than an error — parsing
// never throws, per §4.8's robustness requirement; the caller falls
// back to the next source in the cascade.
func LoadStatsJSON(path string) (Result, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, false
	}
	var sf StatsFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return Result{}, false
	}
	return sf.Metrics, true
}

var logLineRe = regexp.MustCompile(`^(\d+\.\d+)\s+(\d+)\s+([0-9a-fA-F:]+)\s+(\d+)\s+(-?\d+\.\d+)`)

// LoadFromLog parses the engine's text log ("time device_id mac channel
// rssi" per line) and computes metrics from the extracted (time, mac)
// sequence — the second tier of the §4.8 parsing cascade.
func LoadFromLog(path string, segmentSeconds float64) (Result, bool) {
	samples, ok := samplesFromLog(path)
	if !ok || len(samples) == 0 {
		return Result{}, false
	}
	return Compute(samples, segmentSeconds), true
}

func samplesFromLog(path string) ([]Sample, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var samples []Sample
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := logLineRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{Time: t, MAC: strings.ToLower(m[3])})
	}
	if err := scanner.Err(); err != nil {
		return nil, false
	}
	return samples, true
}

// LoadFromProbeID is the last-resort fallback: the probe-id mapping file
// ("time\tdevice_id\tmac" per line) reduced to a raw MAC sequence, per
// §4.8's "estimated from raw MAC sequences".
func LoadFromProbeID(path string, segmentSeconds float64) (Result, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, false
	}
	defer f.Close()

	var samples []Sample
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 3 {
			continue
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{Time: t, MAC: strings.ToLower(fields[2])})
	}
	if err := scanner.Err(); err != nil || len(samples) == 0 {
		return Result{}, false
	}
	return Compute(samples, segmentSeconds), true
}

// Cascade runs the §4.8 metric-source preference order: structured
// stats JSON, then text log, then probe-id mapping, defaulting to a
// zero Result (never an error) if every source is unusable.
func Cascade(statsPath, logPath, probeIDPath string, segmentSeconds float64) Result {
	if r, ok := LoadStatsJSON(statsPath); ok {
		return r
	}
	if r, ok := LoadFromLog(logPath, segmentSeconds); ok {
		return r
	}
	if r, ok := LoadFromProbeID(probeIDPath, segmentSeconds); ok {
		return r
	}
	return Result{}
}

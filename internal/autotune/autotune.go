// Package autotune implements the calibration loop: treat the engine as
// a black box, run short simulations, score the resulting metrics
// against a target, and search a small bounded parameter space by
// jittered random search (§4.8).
package autotune

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/metrics"
	"github.com/iti/rngstream"
)

// epsilon avoids division by zero in the relative-error computation
// when a target metric is exactly 0.
const epsilon = 1e-9

// Point is the three-tunable parameter point under search (§4.8).
type Point struct {
	ScaleBetween  float64 `json:"scaleBetween"`
	SpreadBetween float64 `json:"spreadBetween"`
	BurstGamma    float64 `json:"burstGamma"`
}

// ranges bound each parameter; candidate generation jitters within a
// window 0.25x the range, clamped back to these bounds.
var ranges = struct {
	scale, spread, gamma [2]float64
}{
	scale:  [2]float64{0.30, 2.50},
	spread: [2]float64{0.05, 1.50},
	gamma:  [2]float64{0.01, 0.60},
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp bounds a candidate point to the documented ranges.
func (p Point) Clamp() Point {
	return Point{
		ScaleBetween:  clamp(p.ScaleBetween, ranges.scale[0], ranges.scale[1]),
		SpreadBetween: clamp(p.SpreadBetween, ranges.spread[0], ranges.spread[1]),
		BurstGamma:    clamp(p.BurstGamma, ranges.gamma[0], ranges.gamma[1]),
	}
}

// jitter perturbs a point uniformly within 0.25x each parameter's range,
// then clamps to bounds.
func jitter(p Point, rng *rngstream.RngStream) Point {
	window := func(lo, hi float64) float64 { return 0.25 * (hi - lo) }
	perturb := func(v, lo, hi float64) float64 {
		w := window(lo, hi)
		return v + (rng.RandU01()*2-1)*w
	}
	return Point{
		ScaleBetween:  perturb(p.ScaleBetween, ranges.scale[0], ranges.scale[1]),
		SpreadBetween: perturb(p.SpreadBetween, ranges.spread[0], ranges.spread[1]),
		BurstGamma:    perturb(p.BurstGamma, ranges.gamma[0], ranges.gamma[1]),
	}.Clamp()
}

// Target is the {MCR, NUMR, MCIV} record the search is calibrated
// against.
type Target struct {
	MCR  float64 `json:"mcr"`
	NUMR float64 `json:"numr"`
	MCIV float64 `json:"mciv"`
}

// Errors holds the per-metric relative error e_x = |sim-tgt|/(|tgt|+eps).
type Errors struct {
	MCR  float64 `json:"mcr"`
	NUMR float64 `json:"numr"`
	MCIV float64 `json:"mciv"`
}

func relativeError(sim, tgt float64) float64 {
	return math.Abs(sim-tgt) / (math.Abs(tgt) + epsilon)
}

func scoreResult(m metrics.Result, target Target) (Errors, float64) {
	errs := Errors{
		MCR:  relativeError(m.MCR, target.MCR),
		NUMR: relativeError(m.NUMR, target.NUMR),
		MCIV: relativeError(m.MCIV, target.MCIV),
	}
	score := 0.5*errs.MCR + 0.3*errs.NUMR + 0.2*errs.MCIV
	return errs, score
}

// thresholdsMet reports whether every per-metric error is within the
// acceptance thresholds from §4.8.
func thresholdsMet(e Errors) bool {
	return e.MCR <= 0.10 && e.NUMR <= 0.20 && e.MCIV <= 0.35
}

// HistoryEntry records one evaluated point the way the source's
// history.append({...}) does, for the {prefix}_result.json output
// (SPEC_FULL §4.8).
type HistoryEntry struct {
	Iteration int            `json:"iteration"`
	Point     Point          `json:"point"`
	Metrics   metrics.Result `json:"metrics"`
	Errors    Errors         `json:"errors"`
	Score     float64        `json:"score"`
	Failed    bool           `json:"failed,omitempty"`
}

// SimulateFunc runs one short simulation at the given parameter point
// and returns its extracted metrics. The caller wires this to the
// engine so the autotune package itself never depends on internal/store
// or internal/engine, keeping the search strategy reusable against any
// metrics source.
type SimulateFunc func(Point) (metrics.Result, error)

// Config bundles one autotune run's inputs.
type Config struct {
	Target         Target
	Initial        Point
	MaxIters       int
	Patience       int
	WalltimeBudget time.Duration
	RNG            *rngstream.RngStream
	Simulate       SimulateFunc
}

// Result is the search's output: best point, its metrics, and the full
// evaluation history, with best-score guaranteed monotonically
// non-increasing across History by construction (§8 scenario 5).
type Result struct {
	Best          Point          `json:"best"`
	BestMetrics   metrics.Result `json:"bestMetrics"`
	BestScore     float64        `json:"bestScore"`
	ThresholdsMet bool           `json:"thresholdsMet"`
	History       []HistoryEntry `json:"history"`
}

// Run executes the bounded random-jitter search (§4.8). A non-InvalidConfig
// simulation failure costs a patience tick rather than aborting; an
// InvalidConfig failure aborts the whole search immediately, since it
// signals a configuration problem no amount of jittering will fix.
func Run(cfg Config) (*Result, error) {
	start := time.Now()
	if cfg.MaxIters < 1 {
		cfg.MaxIters = 1
	}
	if cfg.Patience < 1 {
		cfg.Patience = 1
	}

	result := &Result{BestScore: math.Inf(1)}
	current := cfg.Initial.Clamp()
	patienceLeft := cfg.Patience

	for iter := 0; iter < cfg.MaxIters; iter++ {
		if cfg.WalltimeBudget > 0 && time.Since(start) > cfg.WalltimeBudget {
			break
		}

		point := current
		if iter > 0 {
			point = jitter(current, cfg.RNG)
		}

		m, err := cfg.Simulate(point)
		if err != nil {
			if config.IsKind(err, config.InvalidConfig) {
				return nil, err
			}
			result.History = append(result.History, HistoryEntry{Iteration: iter, Point: point, Failed: true})
			patienceLeft--
			if patienceLeft <= 0 {
				break
			}
			continue
		}

		errs, score := scoreResult(m, cfg.Target)
		result.History = append(result.History, HistoryEntry{
			Iteration: iter,
			Point:     point,
			Metrics:   m,
			Errors:    errs,
			Score:     score,
		})

		if score < result.BestScore {
			result.Best = point
			result.BestMetrics = m
			result.BestScore = score
			current = point
			patienceLeft = cfg.Patience
		} else {
			patienceLeft--
		}

		if thresholdsMet(errs) {
			result.ThresholdsMet = true
			break
		}
		if patienceLeft <= 0 {
			break
		}
	}

	if math.IsInf(result.BestScore, 1) {
		result.BestScore = 0
	}
	return result, nil
}

// WriteToFile serializes the Result as indented JSON to
// {prefix}_result.json, mirroring the source's out_path write.
func (r *Result) WriteToFile(filename string) error {
	raw, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return config.Newf(config.IOFailure, filename, 0, "marshal autotune result: %v", err)
	}
	if err := os.WriteFile(filename, raw, 0o644); err != nil {
		return config.Newf(config.IOFailure, filename, 0, "write autotune result: %v", err)
	}
	return nil
}

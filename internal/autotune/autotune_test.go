package autotune

import (
	"errors"
	"testing"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/metrics"
	"github.com/iti/rngstream"
)

func TestRunStopsWhenThresholdsMet(t *testing.T) {
	target := Target{MCR: 1.0, NUMR: 0.5, MCIV: 10.0}
	cfg := Config{
		Target:   target,
		Initial:  Point{ScaleBetween: 1.0, SpreadBetween: 1.0, BurstGamma: 1.0},
		MaxIters: 20,
		Patience: 5,
		RNG:      rngstream.New("autotune-test-thresholds"),
		Simulate: func(p Point) (metrics.Result, error) {
			return metrics.Result{MCR: 1.0, NUMR: 0.5, MCIV: 10.0}, nil
		},
	}

	result, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.ThresholdsMet {
		t.Fatal("expected thresholds to be met on the first, exact-match iteration")
	}
	if len(result.History) != 1 {
		t.Fatalf("expected search to stop after 1 iteration, got %d", len(result.History))
	}
}

func TestRunBestScoreMonotonicallyNonIncreasing(t *testing.T) {
	target := Target{MCR: 2.5, NUMR: 0.33, MCIV: 1.0}
	calls := 0
	cfg := Config{
		Target:   target,
		Initial:  Point{ScaleBetween: 1.0, SpreadBetween: 1.0, BurstGamma: 1.0},
		MaxIters: 12,
		Patience: 12,
		RNG:      rngstream.New("autotune-test-monotone"),
		Simulate: func(p Point) (metrics.Result, error) {
			calls++
			return metrics.Result{MCR: 2.5 / p.ScaleBetween, NUMR: 0.2, MCIV: 2.0}, nil
		},
	}

	result, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	best := result.History[0].Score
	for _, h := range result.History {
		if h.Failed {
			continue
		}
		if h.Score < best {
			best = h.Score
		}
	}
	if best != result.BestScore {
		t.Fatalf("expected BestScore %v to equal the minimum observed score %v", result.BestScore, best)
	}
}

func TestRunAbortsImmediatelyOnInvalidConfig(t *testing.T) {
	cfg := Config{
		Target:   Target{MCR: 1, NUMR: 1, MCIV: 1},
		Initial:  Point{ScaleBetween: 1.0, SpreadBetween: 1.0, BurstGamma: 1.0},
		MaxIters: 5,
		Patience: 5,
		RNG:      rngstream.New("autotune-test-invalid"),
		Simulate: func(p Point) (metrics.Result, error) {
			return metrics.Result{}, config.Newf(config.InvalidConfig, "scenario.yaml", 0, "bad model")
		},
	}

	_, err := Run(cfg)
	if err == nil || !config.IsKind(err, config.InvalidConfig) {
		t.Fatalf("expected an InvalidConfig error to propagate, got %v", err)
	}
}

func TestRunCountsNonInvalidConfigFailuresTowardPatience(t *testing.T) {
	cfg := Config{
		Target:   Target{MCR: 1, NUMR: 1, MCIV: 1},
		Initial:  Point{ScaleBetween: 1.0, SpreadBetween: 1.0, BurstGamma: 1.0},
		MaxIters: 10,
		Patience: 2,
		RNG:      rngstream.New("autotune-test-patience"),
		Simulate: func(p Point) (metrics.Result, error) {
			return metrics.Result{}, errors.New("transient simulation failure")
		},
	}

	result, err := Run(cfg)
	if err != nil {
		t.Fatalf("expected non-InvalidConfig failures not to propagate, got %v", err)
	}
	if len(result.History) != 2 {
		t.Fatalf("expected the search to stop after patience (2) failed iterations, got %d", len(result.History))
	}
}

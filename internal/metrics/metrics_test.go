package metrics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestComputeConstantMACZeroMCR(t *testing.T) {
	var samples []Sample
	for i := 0; i < 100; i++ {
		samples = append(samples, Sample{Time: float64(i) * 0.1, MAC: "aa:bb:cc:dd:ee:ff"})
	}
	r := Compute(samples, 5.0)
	if r.MCR != 0 {
		t.Fatalf("expected MCR 0 for a constant MAC, got %v", r.MCR)
	}
	if r.MAE != 0 {
		t.Fatalf("expected MAE 0 for a single distinct MAC, got %v", r.MAE)
	}
}

func TestComputeAllDistinctMACs(t *testing.T) {
	var samples []Sample
	for i := 0; i < 60; i++ {
		samples = append(samples, Sample{Time: float64(i) * 1.0, MAC: string(rune('a' + i%26))})
	}
	r := Compute(samples, 10.0)
	if r.NUMR <= 0 {
		t.Fatalf("expected positive NUMR, got %v", r.NUMR)
	}
}

func TestComputeEmptyIsZeroValue(t *testing.T) {
	r := Compute(nil, 5.0)
	if r != (Result{}) {
		t.Fatalf("expected zero-value Result for no samples, got %+v", r)
	}
}

func TestCascadeFallsBackToLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")
	content := "0.100000 1 aa:bb:cc:dd:ee:01 6 -55.00\n0.200000 1 aa:bb:cc:dd:ee:02 6 -57.00\n0.300000 1 aa:bb:cc:dd:ee:02 6 -58.00\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r := Cascade(filepath.Join(dir, "missing_stats.json"), logPath, filepath.Join(dir, "missing_probeids.txt"), 1.0)
	if r == (Result{}) {
		t.Fatal("expected non-zero metrics from log fallback")
	}
}

func TestCascadeDefaultsToZeroWhenNoSourceUsable(t *testing.T) {
	dir := t.TempDir()
	r := Cascade(filepath.Join(dir, "a.json"), filepath.Join(dir, "b.log"), filepath.Join(dir, "c.txt"), 1.0)
	if r != (Result{}) {
		t.Fatalf("expected zero-value Result when nothing parses, got %+v", r)
	}
}

package distribution

import (
	"math"
	"testing"

	"github.com/iti/rngstream"
)

func TestParseNormalizes(t *testing.T) {
	d, err := Parse("1:1/2:1/3:2")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	var total float64
	for _, p := range d.Probs {
		total += p
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("expected normalized total 1.0, got %v", total)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty distribution")
	}
	if _, err := Parse("1:1/bogus"); err == nil {
		t.Fatal("expected error for malformed entry")
	}
}

func TestSampleStaysWithinSupport(t *testing.T) {
	d, err := Parse("3:0.25/5:0.5/7:0.25")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rng := rngstream.New("test-sample")
	for i := 0; i < 200; i++ {
		v := d.Sample(rng)
		if v != 3 && v != 5 && v != 7 {
			t.Fatalf("sampled value %v outside support", v)
		}
	}
}

func TestScaleThenInverseScaleIsIdempotent(t *testing.T) {
	d, err := Parse("2:0.5/4:0.5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, k := range []float64{0.3, 1.0, 2.5, 10.0} {
		scaled := d.Scale(k).Scale(1.0 / k)
		for i := range d.Values {
			if math.Abs(scaled.Values[i]-d.Values[i]) > 1e-9 {
				t.Fatalf("scale(k).scale(1/k) drifted for k=%v: got %v want %v", k, scaled.Values[i], d.Values[i])
			}
		}
	}
}

func TestSpreadPreservesMean(t *testing.T) {
	d, err := Parse("1:0.2/2:0.3/10:0.5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mean := d.Mean()
	for _, factor := range []float64{0.1, 0.5, 1.5, 3.0} {
		spread := d.Spread(factor)
		if math.Abs(spread.Mean()-mean) > 1e-6 {
			t.Fatalf("spread(%v) changed mean: got %v want %v", factor, spread.Mean(), mean)
		}
	}
}

func TestGammaCollapseStaysNormalized(t *testing.T) {
	d, err := Parse("1:0.9999/2:0.0001")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	collapsed := d.Gamma(50)
	if err := collapsed.Validate(); err != nil {
		t.Fatalf("gamma collapse produced invalid distribution: %v", err)
	}
}

func TestValidateCatchesBadMass(t *testing.T) {
	d := &Discrete{Values: []float64{1, 2}, Probs: []float64{0.9, 0.5}}
	if err := d.Validate(); err == nil {
		t.Fatal("expected validation error for mass > 1")
	}
}

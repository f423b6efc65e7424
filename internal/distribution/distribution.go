// Package distribution implements discrete probability distributions over
// values such as burst lengths and inter-arrival times, and the scaling
// operators the store and auto-tuner apply to them.
package distribution

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/iti/rngstream"
)

// normTol is the tolerance within which a loaded distribution's probabilities
// must sum to 1 before Normalize silently rescales them.
const normTol = 1e-3

// Discrete is a finite {value: probability} mapping. Values are held
// alongside their cumulative weight so Sample can do a single binary search.
type Discrete struct {
	Values []float64
	Probs  []float64
	cum    []float64
}

// Parse reads the "value:prob/value:prob/..." encoding used by the hardware
// and behavior parameter files, normalizing on load per the data-model
// invariant that every loaded distribution sums to 1.
func Parse(field string) (*Discrete, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, fmt.Errorf("empty distribution")
	}

	parts := strings.Split(field, "/")
	d := &Discrete{
		Values: make([]float64, 0, len(parts)),
		Probs:  make([]float64, 0, len(parts)),
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed distribution entry %q", part)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(kv[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed distribution value %q: %w", kv[0], err)
		}
		prob, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed distribution probability %q: %w", kv[1], err)
		}
		if prob < 0 {
			return nil, fmt.Errorf("negative probability %v for value %v", prob, value)
		}
		d.Values = append(d.Values, value)
		d.Probs = append(d.Probs, prob)
	}

	if len(d.Values) == 0 {
		return nil, fmt.Errorf("empty distribution")
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return d, nil
}

// New builds a Discrete directly from parallel value/probability slices and
// normalizes it, for programmatic construction (e.g. defaults, autotune
// candidates) rather than file parsing.
func New(values, probs []float64) (*Discrete, error) {
	if len(values) == 0 || len(values) != len(probs) {
		return nil, fmt.Errorf("distribution requires matched, non-empty value/prob slices")
	}
	d := &Discrete{Values: append([]float64{}, values...), Probs: append([]float64{}, probs...)}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return d, nil
}

// Normalize rescales probabilities to sum exactly to 1, failing only when
// the total mass is within numerical noise of zero (an unrecoverable
// configuration error) and rebuilding the cumulative-weight cache used by
// Sample.
func (d *Discrete) Normalize() error {
	var total float64
	for _, p := range d.Probs {
		total += p
	}
	if total < 1e-12 {
		return fmt.Errorf("distribution probabilities sum to ~0, cannot normalize")
	}
	if math.Abs(total-1.0) > normTol || total != 1.0 {
		for i := range d.Probs {
			d.Probs[i] /= total
		}
	}
	d.cum = make([]float64, len(d.Probs))
	running := 0.0
	for i, p := range d.Probs {
		running += p
		d.cum[i] = running
	}
	// clamp the final cumulative weight to exactly 1 to absorb float drift,
	// so Sample's upper-bound draw always resolves to the last bucket.
	d.cum[len(d.cum)-1] = 1.0
	return nil
}

// Sample draws one value by cumulative weight from the given RNG stream.
func (d *Discrete) Sample(rng *rngstream.RngStream) float64 {
	if d.cum == nil {
		_ = d.Normalize()
	}
	u := rng.RandU01()
	idx := sort.SearchFloat64s(d.cum, u)
	if idx >= len(d.Values) {
		idx = len(d.Values) - 1
	}
	return d.Values[idx]
}

// Mean returns the distribution's expected value.
func (d *Discrete) Mean() float64 {
	var mean float64
	for i, v := range d.Values {
		mean += v * d.Probs[i]
	}
	return mean
}

// Clone returns a deep, independent copy so transforms never mutate the
// original distribution (store-loaded profiles are shared and immutable).
func (d *Discrete) Clone() *Discrete {
	c := &Discrete{
		Values: append([]float64{}, d.Values...),
		Probs:  append([]float64{}, d.Probs...),
	}
	if d.cum != nil {
		c.cum = append([]float64{}, d.cum...)
	}
	return c
}

// Scale multiplies every value by k, leaving probabilities untouched. Used
// for scale_between and dwell_multiplier and mobility_speed_multiplier.
func (d *Discrete) Scale(k float64) *Discrete {
	c := d.Clone()
	for i := range c.Values {
		c.Values[i] *= k
	}
	return c
}

// Spread widens (factor > 1) or narrows (factor < 1) the distribution by
// redistributing mass away from or toward the mean, scaling each value's
// deviation from the mean rather than the value itself. This preserves the
// distribution's mean by construction — see the spread_between Open
// Question in DESIGN.md for why that choice was made among the source's
// ambiguous alternatives. A widening factor that would push a value below
// zero is reduced to the largest factor that keeps every value >= 0.
func (d *Discrete) Spread(factor float64) *Discrete {
	c := d.Clone()
	mean := d.Mean()
	for _, v := range d.Values {
		if v < mean && mean+(v-mean)*factor < 0 {
			factor = mean / (mean - v)
		}
	}
	for i, v := range c.Values {
		c.Values[i] = mean + (v-mean)*factor
		if c.Values[i] < 0 {
			c.Values[i] = 0
		}
	}
	return c
}

// Gamma reshapes the distribution by raising each probability to the power
// gamma then renormalizing, flattening (gamma<1) or sharpening (gamma>1)
// the burst-length mass. When every raised probability underflows (total
// mass below 1e-12), the probabilities are reset to uniform so Normalize
// never sees an all-zero vector — see the burst_gamma Open Question in
// DESIGN.md.
func (d *Discrete) Gamma(gamma float64) *Discrete {
	c := d.Clone()
	var total float64
	for i, p := range c.Probs {
		c.Probs[i] = math.Pow(p, gamma)
		total += c.Probs[i]
	}
	if total < 1e-12 {
		uniform := 1.0 / float64(len(c.Probs))
		for i := range c.Probs {
			c.Probs[i] = uniform
		}
	}
	_ = c.Normalize()
	return c
}

// Validate checks the data-model invariant that every runtime distribution
// has probabilities in [0,1] summing within tolerance of 1.
func (d *Discrete) Validate() error {
	if len(d.Values) == 0 {
		return fmt.Errorf("distribution has no entries")
	}
	var total float64
	for _, p := range d.Probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("probability %v outside [0,1]", p)
		}
		total += p
	}
	if math.Abs(total-1.0) > normTol {
		return fmt.Errorf("probabilities sum to %v, outside tolerance of 1.0", total)
	}
	return nil
}

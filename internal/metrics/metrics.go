// Package metrics extracts MCR, NUMR, MCIV, MAE and the mean update
// cycle T from a sequence of (timestamp, source MAC) observations,
// partitioned into fixed-length segments and aggregated by median for
// robustness against any single noisy segment (§4.7).
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is one observed frame's timestamp and source MAC, the minimal
// projection of a CapturedFrame the extractor needs.
type Sample struct {
	Time float64
	MAC  string
}

// Result holds the five metrics named in §4.7, each already aggregated
// across segments.
type Result struct {
	MCR  float64 `json:"mcr"`
	NUMR float64 `json:"numr"`
	MCIV float64 `json:"mciv"`
	MAE  float64 `json:"mae"`
	T    float64 `json:"t"`
}

// Compute partitions samples (assumed already ordered by time) into
// floor(span/segmentSeconds) segments and returns the median of each
// metric across segments.
func Compute(samples []Sample, segmentSeconds float64) Result {
	if len(samples) == 0 || segmentSeconds <= 0 {
		return Result{}
	}

	segments := partition(samples, segmentSeconds)
	if len(segments) == 0 {
		segments = [][]Sample{samples}
	}

	var mcrs, numrs, mcivs, maes, ts []float64
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		mcrs = append(mcrs, mcrSegment(seg, segmentSeconds))
		numrs = append(numrs, numrSegment(seg))
		mcivs = append(mcivs, mcivSegment(seg))
		maes = append(maes, maeSegment(seg))
		ts = append(ts, tSegment(seg))
	}

	return Result{
		MCR:  median(mcrs),
		NUMR: median(numrs),
		MCIV: median(mcivs),
		MAE:  median(maes),
		T:    median(ts),
	}
}

// partition slices samples into contiguous windows of segmentSeconds
// starting at the first sample's timestamp.
func partition(samples []Sample, segmentSeconds float64) [][]Sample {
	start := samples[0].Time
	span := samples[len(samples)-1].Time - start
	n := int(math.Floor(span / segmentSeconds))
	if n < 1 {
		return nil
	}

	segments := make([][]Sample, n)
	for _, s := range samples {
		idx := int((s.Time - start) / segmentSeconds)
		if idx >= n {
			idx = n - 1
		}
		segments[idx] = append(segments[idx], s)
	}
	return segments
}

// mcrSegment counts adjacent-pair MAC changes per second within the
// segment's fixed duration.
func mcrSegment(seg []Sample, segmentSeconds float64) float64 {
	changes := 0
	for i := 1; i < len(seg); i++ {
		if seg[i].MAC != seg[i-1].MAC {
			changes++
		}
	}
	return float64(changes) / segmentSeconds
}

func numrSegment(seg []Sample) float64 {
	distinct := make(map[string]bool)
	for _, s := range seg {
		distinct[s.MAC] = true
	}
	return float64(len(distinct)) / float64(len(seg))
}

// mcivSegment is the variance of the time gaps between consecutive
// MAC-change events, zero when fewer than two changes occur.
func mcivSegment(seg []Sample) float64 {
	var changeTimes []float64
	for i := 1; i < len(seg); i++ {
		if seg[i].MAC != seg[i-1].MAC {
			changeTimes = append(changeTimes, seg[i].Time)
		}
	}
	if len(changeTimes) < 2 {
		return 0
	}
	gaps := make([]float64, len(changeTimes)-1)
	for i := 1; i < len(changeTimes); i++ {
		gaps[i-1] = changeTimes[i] - changeTimes[i-1]
	}
	return stat.Variance(gaps, nil)
}

// maeSegment is the Shannon entropy of the empirical MAC-frequency
// distribution, normalized to [0,1] by log(K).
func maeSegment(seg []Sample) float64 {
	counts := make(map[string]int)
	for _, s := range seg {
		counts[s.MAC]++
	}
	k := len(counts)
	if k <= 1 {
		return 0
	}
	probs := make([]float64, 0, k)
	for _, c := range counts {
		probs = append(probs, float64(c)/float64(len(seg)))
	}
	h := stat.Entropy(probs)
	return h / math.Log(float64(k))
}

// tSegment is the mean inter-frame gap within the segment.
func tSegment(seg []Sample) float64 {
	if len(seg) < 2 {
		return 0
	}
	gaps := make([]float64, len(seg)-1)
	for i := 1; i < len(seg); i++ {
		gaps[i-1] = seg[i].Time - seg[i-1].Time
	}
	return stat.Mean(gaps, nil)
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64{}, xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

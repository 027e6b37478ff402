package domain

import (
	"iter"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxGap is the reading gap that starts a new interval.
const DefaultMaxGap = 120 * time.Second

// Criteria decides which runs of readings are usable cooling intervals.
type Criteria struct {
	MaxGap          time.Duration // gaps strictly above this split runs
	MinSamples      int           // inclusive lower bound on run length
	MinTempGap      float64       // mean(indoor) - mean(outdoor) must exceed this
	MaxOutdoorRange float64       // max(outdoor) - min(outdoor) must not exceed this
}

// Runs yields the maximal contiguous runs of readings, breaking wherever two
// consecutive readings are more than maxGap apart. Every reading belongs to
// exactly one run. The first reading never starts a break.
func Runs(readings []Reading, maxGap time.Duration) iter.Seq[[]Reading] {
	return func(yield func([]Reading) bool) {
		if len(readings) == 0 {
			return
		}
		start := 0
		for i := 1; i < len(readings); i++ {
			if readings[i].Time.Sub(readings[i-1].Time) > maxGap {
				if !yield(readings[start:i]) {
					return
				}
				start = i
			}
		}
		yield(readings[start:])
	}
}

// Segment yields the valid cooling intervals in readings. The sequence is
// recomputed on every iteration and is empty when nothing qualifies.
func Segment(readings []Reading, c Criteria) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		for run := range Runs(readings, c.MaxGap) {
			iv := Interval{Readings: run}
			if !c.Valid(iv) {
				continue
			}
			if !yield(iv) {
				return
			}
		}
	}
}

// Valid reports whether iv satisfies every interval predicate.
func (c Criteria) Valid(iv Interval) bool {
	if iv.Len() < c.MinSamples || iv.Len() == 0 {
		return false
	}

	in, out := iv.Internal(), iv.External()
	if floats.HasNaN(in) || floats.HasNaN(out) {
		return false
	}
	if stat.Mean(in, nil)-stat.Mean(out, nil) <= c.MinTempGap {
		return false
	}
	if netChange(in) == 0 {
		return false
	}
	return floats.Max(out)-floats.Min(out) <= c.MaxOutdoorRange
}

// netChange sums consecutive differences, matching a summed first difference
// rather than last-minus-first so rounding behaves the same way.
func netChange(v []float64) float64 {
	var sum float64
	for i := 1; i < len(v); i++ {
		sum += v[i] - v[i-1]
	}
	if math.IsNaN(sum) {
		return 0
	}
	return sum
}

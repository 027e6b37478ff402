package domain

import (
	"errors"
	"math"
	"slices"
	"time"
)

// EstimateParams configures time-constant estimation for one building.
type EstimateParams struct {
	Filter         FilterParams
	Criteria       Criteria      // MinSamples is ignored; thresholds come from MinDurations
	MinDurations   []int         // candidate minimum interval durations, minutes
	SampleInterval time.Duration // nominal reading cadence used to turn minutes into samples
	OutlierZ       float64
}

// MinSamples converts a minimum duration in minutes to a reading count.
func (p EstimateParams) MinSamples(minutes int) int {
	step := p.SampleInterval
	if step <= 0 {
		step = time.Minute
	}
	d := time.Duration(minutes) * time.Minute
	return int((d + step - 1) / step)
}

// FitOutcome is the result of fitting one cooling interval.
type FitOutcome struct {
	Start   time.Time
	Samples int
	Fit     DecayFit
	Err     error
}

// BuildingResult collects a building's per-threshold estimates and the
// interval fits behind them.
type BuildingResult struct {
	Estimates []Estimate
	Fits      []FitOutcome
}

// EstimateTimeConstants runs the pre-filter, segmentation, fitting and
// aggregation for every minimum duration. A longer threshold only removes
// short intervals, so each interval is fitted once against the shortest
// threshold and reused. Buildings without a heat-pump signal, or without any
// valid interval, get NaN estimates.
func EstimateTimeConstants(b Building, p EstimateParams, fitter Fitter) BuildingResult {
	now := clock.Now()
	res := BuildingResult{Estimates: make([]Estimate, 0, len(p.MinDurations))}

	if b.Signals.HeatPump && len(p.MinDurations) > 0 {
		readings := HeatOff(b, p.Filter)
		crit := p.Criteria
		crit.MinSamples = p.MinSamples(slices.Min(p.MinDurations))
		for iv := range Segment(readings, crit) {
			fit, err := fitter.Fit(iv)
			res.Fits = append(res.Fits, FitOutcome{Start: iv.Start(), Samples: iv.Len(), Fit: fit, Err: err})
		}
	}

	for _, minutes := range p.MinDurations {
		est := Estimate{
			BuildingID:         b.ID,
			MinDurationMinutes: minutes,
			MeanTauHours:       math.NaN(),
			StdTauHours:        math.NaN(),
			ComputedAt:         now,
		}
		need := p.MinSamples(minutes)
		var taus []float64
		for _, fo := range res.Fits {
			if fo.Samples < need {
				continue
			}
			est.Intervals++
			if fo.Err != nil {
				est.FitFailures++
				continue
			}
			taus = append(taus, fo.Fit.TauHours())
		}
		if b.Signals.HeatPump {
			est.MeanTauHours, est.StdTauHours = RobustStats(taus, p.OutlierZ)
		}
		res.Estimates = append(res.Estimates, est)
	}
	return res
}

// FailedFits counts the interval fits that returned ErrFitFailure.
func (r BuildingResult) FailedFits() int {
	n := 0
	for _, fo := range r.Fits {
		if errors.Is(fo.Err, ErrFitFailure) {
			n++
		}
	}
	return n
}

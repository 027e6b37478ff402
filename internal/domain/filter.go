package domain

import (
	"math"
	"time"
)

// Season is a half-open [From, To) window of readings considered heating season.
type Season struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the season.
func (s Season) Contains(t time.Time) bool {
	return !t.Before(s.From) && t.Before(s.To)
}

// FilterParams bounds the heat-off pre-filter.
type FilterParams struct {
	Seasons        []Season
	MaxOutdoorTemp float64 // readings at or above this outdoor temperature are dropped
	MaxStepDrop    float64 // a single-step indoor drop of this size or more suggests an open door or window
}

// HeatOff selects the readings taken while every heat source was idle and the
// house was cooling. Each stage compares a reading with its predecessor in the
// previous stage's output, so the first reading of every differencing stage is
// always dropped. Returns nil for buildings without a heat-pump output signal.
func HeatOff(b Building, p FilterParams) []Reading {
	if !b.Signals.HeatPump {
		return nil
	}

	rs := make([]Reading, 0, len(b.Readings))
	for _, r := range b.Readings {
		if inSeasons(r.Time, p.Seasons) && !math.IsNaN(r.HeatPumpOutput) {
			rs = append(rs, r)
		}
	}

	rs = keepByDiff(rs, func(prev, cur Reading) bool {
		if cur.HeatPumpOutput-prev.HeatPumpOutput != 0 {
			return false
		}
		return !b.Signals.FlowTemp || cur.FlowTemp-prev.FlowTemp <= 0
	})
	if b.Signals.Boiler {
		rs = keepByDiff(rs, func(prev, cur Reading) bool { return cur.Boiler-prev.Boiler == 0 })
	}
	if b.Signals.Backup {
		rs = keepByDiff(rs, func(prev, cur Reading) bool { return cur.Backup-prev.Backup == 0 })
	}
	if b.Signals.Immersion {
		rs = keepByDiff(rs, func(prev, cur Reading) bool { return cur.Immersion-prev.Immersion == 0 })
	}

	colder := make([]Reading, 0, len(rs))
	for _, r := range rs {
		if r.External < r.Internal && r.External < p.MaxOutdoorTemp {
			colder = append(colder, r)
		}
	}

	cooling := keepByDiff(colder, func(prev, cur Reading) bool { return cur.Internal-prev.Internal <= 0 })
	return keepByDiff(cooling, func(prev, cur Reading) bool { return cur.Internal-prev.Internal > -p.MaxStepDrop })
}

// keepByDiff keeps readings whose comparison with the preceding reading holds.
// NaN differences compare false and are dropped.
func keepByDiff(rs []Reading, keep func(prev, cur Reading) bool) []Reading {
	out := make([]Reading, 0, len(rs))
	for i := 1; i < len(rs); i++ {
		if keep(rs[i-1], rs[i]) {
			out = append(out, rs[i])
		}
	}
	return out
}

func inSeasons(t time.Time, seasons []Season) bool {
	if len(seasons) == 0 {
		return true
	}
	for _, s := range seasons {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

package risk

import (
	"time"

	"cabwatch/internal/geo"
	"cabwatch/pkg/models"
)

// Sub-score caps. The composite is the sum of the capped sub-scores,
// clamped to [0,100].
const (
	capTimeOfDay = 25
	capDeviation = 30
	capKinematic = 25
	capRoad      = 15
	capIsolated  = 20

	stopPenalty   = 10
	zigzagPenalty = 8

	kinematicWindow = 5
)

// Config holds the static reference tables the scorer reads.
type Config struct {
	RoadPoints    []models.RoadPoint
	IsolatedAreas []models.IsolatedArea
}

// Scorer turns a cab's recent history into a 0-100 anomaly score. Every
// sub-score is a pure function of the history, the reference tables, and
// the caller-supplied clock.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer over the configured reference tables.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the composite anomaly score. now is passed explicitly so
// the time-of-day signal stays deterministic under test.
func (s *Scorer) Score(history []models.PositionSample, now time.Time) int {
	score := timeOfDayScore(now)

	if len(history) > 0 {
		latest := history[len(history)-1]
		score += s.roadProximityScore(latest.Lat, latest.Lon)
		score += s.isolatedScore(latest.Lat, latest.Lon)
	}
	if len(history) >= 3 {
		dev := DeviationPercent(history)
		if dev > capDeviation {
			dev = capDeviation
		}
		score += int(dev)
	}
	score += kinematicScore(history)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// DeviationPercent is the uncapped path-deviation ratio in percent: how
// much longer the travelled polyline is than the straight line between its
// endpoints. The distress detector reuses it with its own threshold.
// Straight-line distances under 10 m yield 0; stationary jitter would
// otherwise blow the ratio up.
func DeviationPercent(history []models.PositionSample) float64 {
	if len(history) < 3 {
		return 0
	}
	first := history[0]
	last := history[len(history)-1]
	straight := geo.DistanceKm(first.Lat, first.Lon, last.Lat, last.Lon)
	if straight < 0.01 {
		return 0
	}
	var path float64
	for i := 1; i < len(history); i++ {
		path += geo.DistanceKm(history[i-1].Lat, history[i-1].Lon, history[i].Lat, history[i].Lon)
	}
	if path <= straight {
		return 0
	}
	return (path - straight) / straight * 100
}

func timeOfDayScore(now time.Time) int {
	hour := now.Hour()
	switch {
	case hour >= 22 || hour < 5:
		return capTimeOfDay
	case hour == 21 || hour == 5:
		return 15
	default:
		return 0
	}
}

func kinematicScore(history []models.PositionSample) int {
	if len(history) < 2 {
		return 0
	}
	window := history
	if len(window) > kinematicWindow {
		window = window[len(window)-kinematicWindow:]
	}

	score := 0
	for i := 1; i < len(window); i++ {
		gapMs := window[i].TimestampMs - window[i-1].TimestampMs
		dispKm := geo.DistanceKm(window[i-1].Lat, window[i-1].Lon, window[i].Lat, window[i].Lon)
		if gapMs > 60_000 && dispKm < 0.05 {
			score += stopPenalty
		}
	}
	for i := 2; i < len(window); i++ {
		legA := geo.DistanceKm(window[i-2].Lat, window[i-2].Lon, window[i-1].Lat, window[i-1].Lon)
		legB := geo.DistanceKm(window[i-1].Lat, window[i-1].Lon, window[i].Lat, window[i].Lon)
		// Bearings over near-zero legs are noise.
		if legA < 0.005 || legB < 0.005 {
			continue
		}
		b1 := geo.BearingDeg(window[i-2].Lat, window[i-2].Lon, window[i-1].Lat, window[i-1].Lon)
		b2 := geo.BearingDeg(window[i-1].Lat, window[i-1].Lon, window[i].Lat, window[i].Lon)
		if geo.BearingChangeDeg(b1, b2) > 90 {
			score += zigzagPenalty
		}
	}
	if score > capKinematic {
		score = capKinematic
	}
	return score
}

func (s *Scorer) roadProximityScore(lat, lon float64) int {
	if len(s.cfg.RoadPoints) == 0 {
		return 0
	}
	min := -1.0
	for _, p := range s.cfg.RoadPoints {
		d := geo.DistanceKm(lat, lon, p.Lat, p.Lon)
		if min < 0 || d < min {
			min = d
		}
	}
	switch {
	case min > 5:
		return capRoad
	case min > 2:
		return 8
	default:
		return 0
	}
}

func (s *Scorer) isolatedScore(lat, lon float64) int {
	for _, a := range s.cfg.IsolatedAreas {
		if a.Contains(lat, lon) {
			return capIsolated
		}
	}
	return 0
}

// InIsolatedArea reports whether the point falls in any configured
// low-density bounding box. The distress detector shares the table.
func (s *Scorer) InIsolatedArea(lat, lon float64) bool {
	return s.isolatedScore(lat, lon) != 0
}

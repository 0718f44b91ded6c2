package risk

import (
	"testing"
	"time"

	"cabwatch/pkg/models"
)

var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sample(lat, lon float64, tsMs int64) models.PositionSample {
	return models.PositionSample{CabID: "cab-1", Lat: lat, Lon: lon, TimestampMs: tsMs}
}

func TestScoreBoundsForDegenerateHistories(t *testing.T) {
	s := NewScorer(Config{})
	if got := s.Score(nil, noon); got != 0 {
		t.Fatalf("empty history at noon should score 0, got %d", got)
	}
	got := s.Score([]models.PositionSample{sample(28.6, 77.2, 1000)}, noon)
	if got < 0 || got > 100 {
		t.Fatalf("score out of bounds: %d", got)
	}
}

func TestTimeOfDayScore(t *testing.T) {
	s := NewScorer(Config{})
	cases := []struct {
		hour int
		want int
	}{
		{23, 25},
		{2, 25},
		{4, 25},
		{21, 15},
		{5, 15},
		{12, 0},
		{9, 0},
	}
	for _, tc := range cases {
		at := time.Date(2026, 3, 10, tc.hour, 30, 0, 0, time.UTC)
		if got := s.Score(nil, at); got != tc.want {
			t.Fatalf("hour %d: expected %d, got %d", tc.hour, tc.want, got)
		}
	}
}

func TestDeviationPercent(t *testing.T) {
	// Straight line: no deviation.
	straight := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.61, 77.20, 60_000),
		sample(28.62, 77.20, 120_000),
	}
	if got := DeviationPercent(straight); got != 0 {
		t.Fatalf("straight path should have zero deviation, got %f", got)
	}

	// Dogleg: out east then back, roughly doubles the path length.
	dogleg := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.60, 77.24, 60_000),
		sample(28.62, 77.20, 120_000),
	}
	if got := DeviationPercent(dogleg); got < 40 {
		t.Fatalf("dogleg deviation should exceed 40%%, got %f", got)
	}

	// Fewer than 3 samples: undefined, returns 0.
	if got := DeviationPercent(straight[:2]); got != 0 {
		t.Fatalf("short history deviation should be 0, got %f", got)
	}

	// Near-zero straight line must not explode the ratio.
	loop := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.61, 77.21, 60_000),
		sample(28.60, 77.20, 120_000),
	}
	if got := DeviationPercent(loop); got != 0 {
		t.Fatalf("closed loop deviation should be 0, got %f", got)
	}
}

func TestStopRaisesScore(t *testing.T) {
	s := NewScorer(Config{})
	moving := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.61, 77.20, 600_000),
	}
	stopped := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.60, 77.20, 600_000),
	}
	if s.Score(stopped, noon) <= s.Score(moving, noon) {
		t.Fatalf("stop must score strictly higher than the same history moving")
	}
}

func TestZigZagRaisesScore(t *testing.T) {
	s := NewScorer(Config{})
	// North, then back south, then north again: >90 degree turns.
	zigzag := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.62, 77.20, 30_000),
		sample(28.60, 77.20, 60_000),
		sample(28.62, 77.20, 90_000),
	}
	got := s.Score(zigzag, noon)
	if got == 0 {
		t.Fatalf("zig-zag pattern should contribute to the score")
	}
}

func TestRoadProximityScore(t *testing.T) {
	s := NewScorer(Config{RoadPoints: []models.RoadPoint{{Name: "NH-48", Lat: 28.50, Lon: 77.10}}})

	onRoad := s.Score([]models.PositionSample{sample(28.50, 77.10, 1000)}, noon)
	if onRoad != 0 {
		t.Fatalf("point on the road should add nothing, got %d", onRoad)
	}

	// ~3-4 km away: mid tier.
	nearRoad := s.Score([]models.PositionSample{sample(28.53, 77.10, 1000)}, noon)
	if nearRoad != 8 {
		t.Fatalf("expected mid-tier road score 8, got %d", nearRoad)
	}

	// Far from every reference point: top tier.
	farRoad := s.Score([]models.PositionSample{sample(28.70, 77.40, 1000)}, noon)
	if farRoad != 15 {
		t.Fatalf("expected top-tier road score 15, got %d", farRoad)
	}
}

func TestIsolatedAreaScore(t *testing.T) {
	area := models.IsolatedArea{Name: "ridge", MinLat: 28.58, MaxLat: 28.62, MinLon: 77.15, MaxLon: 77.19}
	s := NewScorer(Config{IsolatedAreas: []models.IsolatedArea{area}})

	inside := s.Score([]models.PositionSample{sample(28.60, 77.17, 1000)}, noon)
	if inside != 20 {
		t.Fatalf("expected isolated-area score 20, got %d", inside)
	}
	outside := s.Score([]models.PositionSample{sample(28.70, 77.30, 1000)}, noon)
	if outside != 0 {
		t.Fatalf("expected 0 outside the area, got %d", outside)
	}
	if !s.InIsolatedArea(28.60, 77.17) || s.InIsolatedArea(28.70, 77.30) {
		t.Fatalf("InIsolatedArea disagrees with the score")
	}
}

func TestScoreNeverExceedsBounds(t *testing.T) {
	area := models.IsolatedArea{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}
	s := NewScorer(Config{
		RoadPoints:    []models.RoadPoint{{Lat: 0, Lon: 0}},
		IsolatedAreas: []models.IsolatedArea{area},
	})
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	// Worst plausible history: night, isolated, far from roads, stopping
	// and zig-zagging with a long dogleg.
	history := []models.PositionSample{
		sample(28.60, 77.20, 0),
		sample(28.64, 77.20, 80_000),
		sample(28.60, 77.24, 160_000),
		sample(28.64, 77.24, 300_000),
		sample(28.64, 77.24, 500_000),
	}
	got := s.Score(history, night)
	if got < 0 || got > 100 {
		t.Fatalf("score out of bounds: %d", got)
	}
}

package predict

import (
	"testing"

	"cabwatch/internal/geo"
	"cabwatch/pkg/models"
)

func testIndex(t *testing.T) *geo.Index {
	t.Helper()
	ix, err := geo.NewIndex([]models.Zone{
		{ID: "st-01", Name: "Central", Lat: 28.6000, Lon: 77.2000, RadiusKm: 2},
		{ID: "st-02", Name: "North", Lat: 28.7000, Lon: 77.2000, RadiusKm: 2},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func TestPredictRequiresTwoSamples(t *testing.T) {
	p := NewPredictor(testIndex(t), 90)
	got := p.Predict([]models.PositionSample{{Lat: 28.6, Lon: 77.2, TimestampMs: 1000}}, "st-01")
	if got != nil {
		t.Fatalf("expected nil for single-sample history, got %+v", got)
	}
}

func TestPredictStationaryReturnsNil(t *testing.T) {
	p := NewPredictor(testIndex(t), 90)
	history := []models.PositionSample{
		{Lat: 28.6, Lon: 77.2, TimestampMs: 0},
		{Lat: 28.6, Lon: 77.2, TimestampMs: 30_000},
	}
	if got := p.Predict(history, "st-01"); got != nil {
		t.Fatalf("stationary cab must not predict a handoff, got %+v", got)
	}
}

func TestPredictHandoffTowardNextZone(t *testing.T) {
	p := NewPredictor(testIndex(t), 90)
	// Moving due north at ~55 km/h from near the st-01/st-02 midpoint.
	history := []models.PositionSample{
		{Lat: 28.6400, Lon: 77.2000, TimestampMs: 0},
		{Lat: 28.6450, Lon: 77.2000, TimestampMs: 36_000},
	}
	got := p.Predict(history, "st-01")
	if got == nil {
		t.Fatalf("expected a predicted handoff")
	}
	if got.ID != "st-02" {
		t.Fatalf("expected st-02, got %s", got.ID)
	}
}

func TestPredictSameZoneReturnsNil(t *testing.T) {
	p := NewPredictor(testIndex(t), 90)
	// Slow crawl near the st-01 center stays owned by st-01.
	history := []models.PositionSample{
		{Lat: 28.6000, Lon: 77.2000, TimestampMs: 0},
		{Lat: 28.6005, Lon: 77.2000, TimestampMs: 60_000},
	}
	if got := p.Predict(history, "st-01"); got != nil {
		t.Fatalf("expected nil when projection stays in the current zone, got %+v", got)
	}
}

func TestHorizonClamping(t *testing.T) {
	if got := NewPredictor(testIndex(t), 0).HorizonSeconds(); got != DefaultHorizonSeconds {
		t.Fatalf("expected default horizon, got %d", got)
	}
	if got := NewPredictor(testIndex(t), 10).HorizonSeconds(); got != MinHorizonSeconds {
		t.Fatalf("expected min horizon, got %d", got)
	}
	if got := NewPredictor(testIndex(t), 600).HorizonSeconds(); got != MaxHorizonSeconds {
		t.Fatalf("expected max horizon, got %d", got)
	}
}

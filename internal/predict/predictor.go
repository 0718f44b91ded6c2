package predict

import (
	"cabwatch/internal/geo"
	"cabwatch/pkg/models"
)

// Horizon bounds in seconds for the dead-reckoning projection.
const (
	MinHorizonSeconds     = 60
	MaxHorizonSeconds     = 120
	DefaultHorizonSeconds = 90
)

// Predictor dead-reckons a cab's near-future position and reports the
// probable next owning zone. It is a coarse heuristic on purpose: bearing
// and speed come from the last two samples only, with no map awareness.
type Predictor struct {
	index   *geo.Index
	horizon int
}

// NewPredictor creates a predictor over the zone index. The horizon is
// clamped to [MinHorizonSeconds, MaxHorizonSeconds].
func NewPredictor(index *geo.Index, horizonSeconds int) *Predictor {
	if horizonSeconds <= 0 {
		horizonSeconds = DefaultHorizonSeconds
	}
	if horizonSeconds < MinHorizonSeconds {
		horizonSeconds = MinHorizonSeconds
	}
	if horizonSeconds > MaxHorizonSeconds {
		horizonSeconds = MaxHorizonSeconds
	}
	return &Predictor{index: index, horizon: horizonSeconds}
}

// HorizonSeconds is the projection window, also reported as the
// eta of a predicted zone entry.
func (p *Predictor) HorizonSeconds() int {
	return p.horizon
}

// Predict projects the cab forward by the horizon and returns the
// projected owning zone, or nil when no handoff is expected: fewer than
// two samples, no measurable movement, or the projection lands in the
// zone the cab already owns.
func (p *Predictor) Predict(history []models.PositionSample, currentZoneID string) *models.Zone {
	if len(history) < 2 {
		return nil
	}
	a := history[len(history)-2]
	b := history[len(history)-1]

	gapMs := b.TimestampMs - a.TimestampMs
	if gapMs <= 0 {
		return nil
	}
	distKm := geo.DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
	if distKm == 0 {
		return nil
	}

	speedKmPerSec := distKm / (float64(gapMs) / 1000)
	bearing := geo.BearingDeg(a.Lat, a.Lon, b.Lat, b.Lon)
	aheadKm := speedKmPerSec * float64(p.horizon)

	lat, lon := geo.Project(b.Lat, b.Lon, bearing, aheadKm)
	owned := p.index.OwningZone(lat, lon)
	if owned.Zone.ID == currentZoneID {
		return nil
	}
	zone := owned.Zone
	return &zone
}

package distress

import (
	"time"

	"cabwatch/internal/geo"
	"cabwatch/internal/risk"
	"cabwatch/pkg/models"
)

// Trigger thresholds.
const (
	riskCriticalScore    = 75
	riskHighScore        = 50
	stopGapMs            = 3 * 60 * 1000
	stopDisplacementKm   = 0.05
	deviationPercent     = 40.0
	hoppingWindowMs      = 120 * 1000
	hoppingMinEntries    = 3
	nearZeroLegKm        = 0.02
	nearZeroLegsRequired = 2
)

// TraceCounter is the slice of the trace ledger the detector needs: how
// many zone transitions a cab logged in a trailing window.
type TraceCounter interface {
	EntriesSince(cabID string, sinceMs int64) int
}

// Detector evaluates the discrete distress triggers. Each check is an
// independent boolean; any subset can fire on a single update.
type Detector struct {
	scorer *risk.Scorer
	traces TraceCounter
}

// NewDetector creates a detector sharing the scorer's reference tables and
// the trace ledger.
func NewDetector(scorer *risk.Scorer, traces TraceCounter) *Detector {
	return &Detector{scorer: scorer, traces: traces}
}

// Evaluate returns the set of triggers firing for the cab right now.
func (d *Detector) Evaluate(cabID string, history []models.PositionSample, riskScore int, now time.Time) []models.TriggerKind {
	var fired []models.TriggerKind

	if riskScore >= riskCriticalScore {
		fired = append(fired, models.TriggerRiskCritical)
	}
	if stoppedExtended(history) {
		fired = append(fired, models.TriggerStoppedExtended)
	}
	if risk.DeviationPercent(history) > deviationPercent {
		fired = append(fired, models.TriggerRouteDeviation)
	}
	if d.traces != nil && d.traces.EntriesSince(cabID, now.UnixMilli()-hoppingWindowMs) >= hoppingMinEntries {
		fired = append(fired, models.TriggerAbnormalHopping)
	}
	if d.stopStartIsolated(history) {
		fired = append(fired, models.TriggerStopStartIsolated)
	}
	return fired
}

// Severity maps a non-empty trigger set to an alert severity from the
// current risk score.
func Severity(riskScore int) string {
	switch {
	case riskScore >= riskCriticalScore:
		return models.SeverityCritical
	case riskScore >= riskHighScore:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

func stoppedExtended(history []models.PositionSample) bool {
	if len(history) < 2 {
		return false
	}
	a := history[len(history)-2]
	b := history[len(history)-1]
	if b.TimestampMs-a.TimestampMs <= stopGapMs {
		return false
	}
	return geo.DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon) < stopDisplacementKm
}

func (d *Detector) stopStartIsolated(history []models.PositionSample) bool {
	if len(history) < 2 {
		return false
	}
	latest := history[len(history)-1]
	if !d.scorer.InIsolatedArea(latest.Lat, latest.Lon) {
		return false
	}

	// Look at the last 3 legs at most.
	start := len(history) - 4
	if start < 0 {
		start = 0
	}
	nearZero := 0
	for i := start + 1; i < len(history); i++ {
		leg := geo.DistanceKm(history[i-1].Lat, history[i-1].Lon, history[i].Lat, history[i].Lon)
		if leg < nearZeroLegKm {
			nearZero++
		}
	}
	return nearZero >= nearZeroLegsRequired
}

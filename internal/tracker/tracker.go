package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cabwatch/internal/distress"
	"cabwatch/internal/geo"
	"cabwatch/internal/history"
	"cabwatch/internal/ledger"
	"cabwatch/internal/logger"
	"cabwatch/internal/metrics"
	"cabwatch/internal/predict"
	"cabwatch/internal/risk"
	"cabwatch/pkg/models"
)

// Publisher fans engine events out to zone-scoped or global subscribers.
type Publisher interface {
	PublishZone(zoneID string, evt models.Event)
	PublishGlobal(evt models.Event)
}

// Tracker orchestrates the per-update flow: history append, zone
// resolution, scoring, prediction, trace append, distress evaluation, and
// fan-out. Updates for one cab serialize on that cab's entry lock;
// different cabs proceed in parallel.
type Tracker struct {
	index     *geo.Index
	hist      *history.Store
	scorer    *risk.Scorer
	predictor *predict.Predictor
	detector  *distress.Detector
	traces    *ledger.TraceLedger
	alerts    *ledger.AlertLedger
	pub       Publisher

	mu   sync.RWMutex
	cabs map[string]*cabEntry

	now       func() time.Time
	newTripID func() string
}

type cabEntry struct {
	mu       sync.Mutex
	state    models.CabState
	hasTrace bool
}

// New wires a tracker over its collaborators.
func New(index *geo.Index, hist *history.Store, scorer *risk.Scorer, predictor *predict.Predictor, detector *distress.Detector, traces *ledger.TraceLedger, alerts *ledger.AlertLedger, pub Publisher) *Tracker {
	return &Tracker{
		index:     index,
		hist:      hist,
		scorer:    scorer,
		predictor: predictor,
		detector:  detector,
		traces:    traces,
		alerts:    alerts,
		pub:       pub,
		cabs:      make(map[string]*cabEntry),
		now:       time.Now,
		newTripID: uuid.NewString,
	}
}

func (t *Tracker) entry(cabID string) *cabEntry {
	t.mu.RLock()
	e := t.cabs[cabID]
	t.mu.RUnlock()
	if e != nil {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e = t.cabs[cabID]; e == nil {
		e = &cabEntry{}
		t.cabs[cabID] = e
	}
	return e
}

// Process handles one position sample end to end and returns the updated
// cab state.
func (t *Tracker) Process(cabID string, lat, lon float64) models.CabState {
	e := t.entry(cabID)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := t.now()
	tsMs := now.UnixMilli()

	// 1. History append.
	t.hist.Append(cabID, models.PositionSample{CabID: cabID, Lat: lat, Lon: lon, TimestampMs: tsMs})
	hist := t.hist.Get(cabID)
	metrics.PositionsTotal.Inc()

	// 2. Owning zone.
	owned := t.index.OwningZone(lat, lon)

	// 3. Trip token: minted once, stable across handoffs.
	first := e.state.CabID == ""
	if first {
		e.state.CabID = cabID
		e.state.TripID = t.newTripID()
	}
	prevZoneID := e.state.ZoneID

	// 4. Risk score.
	score := t.scorer.Score(hist, now)
	metrics.RiskScore.Observe(float64(score))

	// 5. Handoff prediction.
	predicted := t.predictor.Predict(hist, owned.Zone.ID)

	e.state.Lat = lat
	e.state.Lon = lon
	e.state.ZoneID = owned.Zone.ID
	e.state.ZoneName = owned.Zone.Name
	e.state.InsideRadius = owned.InsideRadius
	e.state.RiskScore = score
	e.state.UpdatedAtMs = tsMs
	if predicted != nil {
		e.state.PredictedZoneID = predicted.ID
	} else {
		e.state.PredictedZoneID = ""
	}

	// 6. Trace append on zone change, or on first entering any zone's
	// radius.
	zoneChanged := prevZoneID != "" && prevZoneID != owned.Zone.ID
	if zoneChanged || (!e.hasTrace && owned.InsideRadius) {
		chain := t.traces.Append(cabID, owned.Zone, tsMs)
		e.hasTrace = true
		if zoneChanged {
			metrics.HandoffsTotal.Inc()
			logger.Debugf("cab %s handoff %s -> %s", cabID, prevZoneID, owned.Zone.ID)
			t.pub.PublishZone(prevZoneID, models.Event{
				Type:   models.EventCabLeft,
				ZoneID: prevZoneID,
				CabID:  cabID,
				State:  t.stateCopy(e),
			})
		}
		t.pub.PublishGlobal(models.Event{
			Type:  models.EventTraceUpdate,
			CabID: cabID,
			Trace: chain,
		})
		t.pub.PublishZone(owned.Zone.ID, models.Event{
			Type:      models.EventZoneEntry,
			ZoneID:    owned.Zone.ID,
			CabID:     cabID,
			State:     t.stateCopy(e),
			EntryType: models.EntryActual,
		})
	}

	// 7. Predicted incoming, to the predicted zone only.
	if predicted != nil && predicted.ID != owned.Zone.ID {
		t.pub.PublishZone(predicted.ID, models.Event{
			Type:       models.EventZoneEntry,
			ZoneID:     predicted.ID,
			CabID:      cabID,
			State:      t.stateCopy(e),
			EntryType:  models.EntryPredicted,
			EtaSeconds: t.predictor.HorizonSeconds(),
		})
	}

	// 8. Distress evaluation. The alert annotation carries no hysteresis:
	// it clears whenever no trigger fires.
	triggers := t.detector.Evaluate(cabID, hist, score, now)
	e.state.Triggers = triggers
	if len(triggers) > 0 {
		e.state.IsAlert = true
		rec := t.alerts.SubmitInternal(models.AlertPayload{
			CabID:       cabID,
			TripID:      e.state.TripID,
			Location:    models.AlertLocation{Lat: lat, Lon: lon},
			TimestampMs: tsMs,
			Severity:    distress.Severity(score),
		}, triggers)
		metrics.AlertsTotal.WithLabelValues(rec.Source).Inc()
		logger.Warnf("cab %s distress %v severity=%s", cabID, triggers, rec.Severity)
		t.pub.PublishGlobal(models.Event{
			Type:  models.EventDistressAlert,
			CabID: cabID,
			State: t.stateCopy(e),
			Alert: &rec,
		})
	} else {
		e.state.IsAlert = false
		t.pub.PublishZone(owned.Zone.ID, models.Event{
			Type:   models.EventCabUpdate,
			ZoneID: owned.Zone.ID,
			CabID:  cabID,
			State:  t.stateCopy(e),
		})
	}

	return *t.stateCopy(e)
}

func (t *Tracker) stateCopy(e *cabEntry) *models.CabState {
	st := e.state
	if len(e.state.Triggers) > 0 {
		st.Triggers = append([]models.TriggerKind(nil), e.state.Triggers...)
	}
	return &st
}

// State returns the cab's current state, false for cabs never seen.
func (t *Tracker) State(cabID string) (models.CabState, bool) {
	t.mu.RLock()
	e := t.cabs[cabID]
	t.mu.RUnlock()
	if e == nil {
		return models.CabState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *t.stateCopy(e), true
}

// ZoneCabs snapshots every cab currently assigned to the zone. Served to
// subscribers when they join.
func (t *Tracker) ZoneCabs(zoneID string) []models.CabState {
	t.mu.RLock()
	entries := make([]*cabEntry, 0, len(t.cabs))
	for _, e := range t.cabs {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	var out []models.CabState
	for _, e := range entries {
		e.mu.Lock()
		if e.state.ZoneID == zoneID {
			out = append(out, *t.stateCopy(e))
		}
		e.mu.Unlock()
	}
	return out
}

// EvictIdle removes cabs whose last sample is older than the window,
// along with their histories. Nothing expires on its own; eviction is an
// explicit policy the operator opts into.
func (t *Tracker) EvictIdle(olderThan time.Duration) int {
	cutoff := t.now().Add(-olderThan).UnixMilli()

	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, e := range t.cabs {
		e.mu.Lock()
		idle := e.state.UpdatedAtMs < cutoff
		e.mu.Unlock()
		if idle {
			delete(t.cabs, id)
			t.hist.Remove(id)
			evicted++
		}
	}
	if evicted > 0 {
		logger.Infof("evicted %d idle cabs", evicted)
	}
	return evicted
}

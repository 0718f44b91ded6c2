package server

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cabwatch/internal/distress"
	"cabwatch/internal/geo"
	"cabwatch/internal/history"
	"cabwatch/internal/ledger"
	"cabwatch/internal/predict"
	"cabwatch/internal/risk"
	"cabwatch/internal/tracker"
	"cabwatch/pkg/models"
)

type nopPublisher struct {
	globals []models.Event
}

func (p *nopPublisher) PublishZone(zoneID string, evt models.Event) {}

func (p *nopPublisher) PublishGlobal(evt models.Event) {
	p.globals = append(p.globals, evt)
}

func newTestServer(t *testing.T) (*Server, *ledger.AlertLedger, *nopPublisher) {
	t.Helper()
	ix, err := geo.NewIndex([]models.Zone{
		{ID: "st-01", Name: "Central", Lat: 28.6000, Lon: 77.2000, RadiusKm: 2},
		{ID: "st-02", Name: "North", Lat: 28.7000, Lon: 77.2000, RadiusKm: 2},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	traces := ledger.NewTraceLedger()
	alerts, err := ledger.NewAlertLedger()
	if err != nil {
		t.Fatalf("NewAlertLedger: %v", err)
	}
	scorer := risk.NewScorer(risk.Config{})
	pub := &nopPublisher{}
	trk := tracker.New(ix, history.NewStore(0), scorer, predict.NewPredictor(ix, 90), distress.NewDetector(scorer, traces), traces, alerts, pub)
	return New("127.0.0.1:0", ix, trk, traces, alerts, pub), alerts, pub
}

func TestZonesEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/zones", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var zones []models.Zone
	if err := json.Unmarshal(rr.Body.Bytes(), &zones); err != nil {
		t.Fatalf("decode zones: %v", err)
	}
	if len(zones) != 2 || zones[0].ID != "st-01" {
		t.Fatalf("unexpected zones: %+v", zones)
	}
}

func TestZoneCabsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.trk.Process("cab-1", 28.6000, 77.2000)

	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/zones/st-01/cabs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var cabs []models.CabState
	if err := json.Unmarshal(rr.Body.Bytes(), &cabs); err != nil {
		t.Fatalf("decode cabs: %v", err)
	}
	if len(cabs) != 1 || cabs[0].CabID != "cab-1" {
		t.Fatalf("unexpected snapshot: %+v", cabs)
	}

	rr = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/zones/nope/cabs", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown zone, got %d", rr.Code)
	}
}

func TestCabTraceEndpointUnknownCabIsEmpty(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/cabs/ghost/trace", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unknown cab trace must be 200 with empty chain, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty chain, got %q", body)
	}
}

func TestSubmitAlertSignedRoundtrip(t *testing.T) {
	s, alerts, pub := newTestServer(t)
	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	payload, err := json.Marshal(models.AlertPayload{
		CabID:       "cab-9",
		Location:    models.AlertLocation{Lat: 28.6, Lon: 77.2},
		TimestampMs: 1_700_000_000_000,
		Severity:    models.SeverityHigh,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body, _ := json.Marshal(map[string]interface{}{
		"payload":    json.RawMessage(payload),
		"signature":  hex.EncodeToString(ed25519.Sign(privKey, payload)),
		"public_key": hex.EncodeToString(pubKey),
	})

	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/alerts", bytes.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var rec models.AlertRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.CabID != "cab-9" || rec.Source != models.SourceManual {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if n := len(alerts.Chain()); n != 1 {
		t.Fatalf("expected chain length 1, got %d", n)
	}
	if len(pub.globals) != 1 || pub.globals[0].Type != models.EventDistressAlert {
		t.Fatalf("accepted submission must broadcast, got %+v", pub.globals)
	}
}

func TestSubmitAlertBadSignatureRejected(t *testing.T) {
	s, alerts, pub := newTestServer(t)
	pubKey, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, otherPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	payload := []byte(`{"cab_id":"cab-9","location":{"lat":28.6,"lon":77.2},"ts_ms":1}`)
	body, _ := json.Marshal(map[string]interface{}{
		"payload":    json.RawMessage(payload),
		"signature":  hex.EncodeToString(ed25519.Sign(otherPriv, []byte("different bytes"))),
		"public_key": hex.EncodeToString(pubKey),
	})

	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/alerts", bytes.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if n := len(alerts.Chain()); n != 0 {
		t.Fatalf("rejected submission must not be stored, chain length %d", n)
	}
	if len(pub.globals) != 0 {
		t.Fatalf("rejected submission must not broadcast")
	}
}

func TestZoneAlertsStoreAndForward(t *testing.T) {
	s, alerts, _ := newTestServer(t)
	alerts.SubmitInternal(models.AlertPayload{
		CabID:       "cab-1",
		Location:    models.AlertLocation{Lat: 28.6000, Lon: 77.2000},
		TimestampMs: 1000,
	}, []models.TriggerKind{models.TriggerStoppedExtended})

	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/zones/st-01/alerts", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var recs []models.AlertRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(recs) != 1 || recs[0].CabID != "cab-1" {
		t.Fatalf("expected the buffered record, got %+v", recs)
	}

	// Replay delivers each record once.
	rr = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/zones/st-01/alerts", nil))
	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected no records on second replay, got %q", body)
	}
}

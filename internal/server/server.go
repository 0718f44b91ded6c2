package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cabwatch/internal/geo"
	"cabwatch/internal/ledger"
	"cabwatch/internal/logger"
	"cabwatch/internal/metrics"
	"cabwatch/internal/tracker"
	"cabwatch/pkg/models"
)

// Server exposes the query API, the signed-alert submission endpoint, and
// the Prometheus metrics handler.
type Server struct {
	index  *geo.Index
	trk    *tracker.Tracker
	traces *ledger.TraceLedger
	alerts *ledger.AlertLedger
	pub    tracker.Publisher
	addr   string

	httpServer *http.Server
}

// New wires the server over the engine components.
func New(addr string, index *geo.Index, trk *tracker.Tracker, traces *ledger.TraceLedger, alerts *ledger.AlertLedger, pub tracker.Publisher) *Server {
	s := &Server{
		index:  index,
		trk:    trk,
		traces: traces,
		alerts: alerts,
		pub:    pub,
		addr:   addr,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/zones", s.handleZones)
	mux.HandleFunc("GET /api/zones/{id}/cabs", s.handleZoneCabs)
	mux.HandleFunc("GET /api/zones/{id}/alerts", s.handleZoneAlerts)
	mux.HandleFunc("GET /api/cabs/{id}/trace", s.handleCabTrace)
	mux.HandleFunc("GET /api/alerts/pending", s.handlePendingAlerts)
	mux.HandleFunc("POST /api/alerts", s.handleSubmitAlert)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.index.Zones())
}

func (s *Server) handleZoneCabs(w http.ResponseWriter, r *http.Request) {
	zoneID := r.PathValue("id")
	if _, ok := s.index.Zone(zoneID); !ok {
		http.Error(w, "unknown zone", http.StatusNotFound)
		return
	}
	cabs := s.trk.ZoneCabs(zoneID)
	if cabs == nil {
		cabs = []models.CabState{}
	}
	writeJSON(w, http.StatusOK, cabs)
}

// handleZoneAlerts is the store-and-forward replay path: undelivered
// records geofenced to the zone are returned once and marked delivered.
func (s *Server) handleZoneAlerts(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.index.Zone(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown zone", http.StatusNotFound)
		return
	}
	records := s.alerts.PendingForZone(zone)
	if records == nil {
		records = []models.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCabTrace(w http.ResponseWriter, r *http.Request) {
	chain := s.traces.Chain(r.PathValue("id"))
	if chain == nil {
		chain = []models.TraceEntry{}
	}
	writeJSON(w, http.StatusOK, chain)
}

func (s *Server) handlePendingAlerts(w http.ResponseWriter, r *http.Request) {
	records := s.alerts.Pending()
	if records == nil {
		records = []models.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type submitRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
	PublicKey string          `json:"public_key"`
}

func (s *Server) handleSubmitAlert(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed submission", http.StatusBadRequest)
		return
	}
	if len(req.Payload) == 0 {
		http.Error(w, "missing payload", http.StatusBadRequest)
		return
	}

	rec, err := s.alerts.SubmitSigned(req.Payload, req.Signature, req.PublicKey)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidSignature) {
			metrics.SignatureRejectsTotal.Inc()
			logger.Warnf("Rejected alert submission: bad signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		http.Error(w, "malformed submission", http.StatusBadRequest)
		return
	}

	metrics.AlertsTotal.WithLabelValues(rec.Source).Inc()
	s.pub.PublishGlobal(models.Event{
		Type:  models.EventDistressAlert,
		CabID: rec.CabID,
		Alert: &rec,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

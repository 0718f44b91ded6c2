package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PositionsTotal counts inbound position events processed.
	PositionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cabwatch_positions_total",
		Help: "Position samples processed.",
	})

	// HandoffsTotal counts owning-zone changes appended to trace chains.
	HandoffsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cabwatch_zone_handoffs_total",
		Help: "Zone handoffs recorded in trace chains.",
	})

	// AlertsTotal counts alert records appended, by source (AUTO|MANUAL).
	AlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cabwatch_alerts_total",
		Help: "Alert records appended to the global chain.",
	}, []string{"source"})

	// SignatureRejectsTotal counts signed submissions that failed
	// verification.
	SignatureRejectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cabwatch_signature_rejects_total",
		Help: "Signed alert submissions rejected for bad signatures.",
	})

	// RiskScore observes computed composite risk scores.
	RiskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cabwatch_risk_score",
		Help:    "Distribution of computed risk scores.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
)

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

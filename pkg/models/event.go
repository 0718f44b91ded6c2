package models

// Outbound event types published to zone-scoped or global channels.
const (
	EventCabUpdate     = "cab_update"
	EventCabLeft       = "cab_left"
	EventTraceUpdate   = "trace_update"
	EventZoneEntry     = "zone_entry"
	EventDistressAlert = "distress_alert"
)

// Zone-entry notification kinds. A single update cycle can publish both:
// an ACTUAL entry to the zone just entered and a PREDICTED entry to a
// different zone the cab is projected to reach.
const (
	EntryActual    = "ACTUAL"
	EntryPredicted = "PREDICTED"
)

// Event is one outbound notification. ZoneID is empty for global
// broadcasts. Only the fields relevant to Type are populated.
type Event struct {
	Type       string       `json:"type"`
	ZoneID     string       `json:"zone_id,omitempty"`
	CabID      string       `json:"cab_id,omitempty"`
	State      *CabState    `json:"state,omitempty"`
	Trace      []TraceEntry `json:"trace,omitempty"`
	EntryType  string       `json:"entry_type,omitempty"`
	EtaSeconds int          `json:"eta_seconds,omitempty"`
	Alert      *AlertRecord `json:"alert,omitempty"`
}

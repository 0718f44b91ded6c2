package models

// TriggerKind names one distress condition. Triggers are independent and
// any subset may fire on a single update.
type TriggerKind string

const (
	TriggerRiskCritical      TriggerKind = "RISK_CRITICAL"
	TriggerStoppedExtended   TriggerKind = "STOPPED_EXTENDED"
	TriggerRouteDeviation    TriggerKind = "ROUTE_DEVIATION"
	TriggerAbnormalHopping   TriggerKind = "ABNORMAL_HOPPING"
	TriggerStopStartIsolated TriggerKind = "STOP_START_ISOLATED"
)

// Alert severity levels.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
)

// Alert record sources. AUTO records are minted by the detector and signed
// by the ledger's own key; MANUAL records arrive pre-signed from outside.
const (
	SourceAuto   = "AUTO"
	SourceManual = "MANUAL"
)

// AlertLocation is where an alert originated.
type AlertLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AlertPayload is the externally submitted distress payload. The signature
// in a submission covers the canonical JSON bytes of this struct.
type AlertPayload struct {
	CabID       string        `json:"cab_id"`
	TripID      string        `json:"trip_id,omitempty"`
	Location    AlertLocation `json:"location"`
	TimestampMs int64         `json:"ts_ms"`
	Severity    string        `json:"severity"`
	Note        string        `json:"note,omitempty"`
}

// AlertRecord is one link in the single global alert chain. Hash covers
// {ID, CabID, lat, lon, Severity, triggers, TimestampMs, PrevHash}.
type AlertRecord struct {
	ID          string        `json:"id"`
	CabID       string        `json:"cab_id"`
	TripID      string        `json:"trip_id,omitempty"`
	Location    AlertLocation `json:"location"`
	Severity    string        `json:"severity"`
	Triggers    []TriggerKind `json:"triggers,omitempty"`
	Note        string        `json:"note,omitempty"`
	TimestampMs int64         `json:"ts_ms"`
	PrevHash    string        `json:"prev_hash"`
	Hash        string        `json:"hash"`
	Signature   string        `json:"signature,omitempty"`
	PublicKey   string        `json:"public_key,omitempty"`
	Source      string        `json:"source"`
	Delivered   bool          `json:"delivered"`
}

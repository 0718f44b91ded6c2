package models

// PositionSample is one observed position for a cab. Samples are immutable
// once appended to a cab's history.
type PositionSample struct {
	CabID       string  `json:"cab_id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TimestampMs int64   `json:"ts_ms"`
}

// CabState is the mutable per-cab tracking state. It is created on the
// first sample for a cab and updated on every subsequent one.
type CabState struct {
	CabID           string        `json:"cab_id"`
	Lat             float64       `json:"lat"`
	Lon             float64       `json:"lon"`
	ZoneID          string        `json:"zone_id"`
	ZoneName        string        `json:"zone_name"`
	InsideRadius    bool          `json:"inside_radius"`
	TripID          string        `json:"trip_id"`
	RiskScore       int           `json:"risk_score"`
	PredictedZoneID string        `json:"predicted_zone_id,omitempty"`
	IsAlert         bool          `json:"is_alert"`
	Triggers        []TriggerKind `json:"triggers,omitempty"`
	UpdatedAtMs     int64         `json:"updated_at_ms"`
}

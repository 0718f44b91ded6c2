package models

// GenesisHash is the previous-hash value of the first entry in any chain.
const GenesisHash = "0"

// TraceEntry is one link in a cab's zone-transition chain. Hash covers
// {ZoneID, ZoneName, TimestampMs, PrevHash}; for every entry after the
// first, PrevHash equals the prior entry's Hash.
type TraceEntry struct {
	ZoneID      string `json:"zone_id"`
	ZoneName    string `json:"zone_name"`
	TimestampMs int64  `json:"ts_ms"`
	PrevHash    string `json:"prev_hash"`
	Hash        string `json:"hash"`
}

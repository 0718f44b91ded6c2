package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PositionEvent is one inbound position report, normalized from whatever
// field spelling the sending client used.
type PositionEvent struct {
	CabID string
	Lat   float64
	Lon   float64
}

// Parse converts a raw inbound message into a PositionEvent. Field names
// vary across client builds (cab_id/cabId/agent_id, lng/lon), and
// coordinates sometimes arrive as strings; all of those are accepted.
func Parse(data []byte) (*PositionEvent, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	evt := &PositionEvent{
		CabID: getString(raw, "cab_id", "cabId", "agent_id", "agentId", "id"),
	}
	if evt.CabID == "" {
		return nil, fmt.Errorf("position event missing cab id")
	}

	lat, ok := getFloat(raw, "lat", "latitude")
	if !ok {
		return nil, fmt.Errorf("position event missing latitude")
	}
	lon, ok := getFloat(raw, "lon", "lng", "longitude")
	if !ok {
		return nil, fmt.Errorf("position event missing longitude")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("position out of range: %f,%f", lat, lon)
	}
	evt.Lat = lat
	evt.Lon = lon
	return evt, nil
}

func getString(root map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := root[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case float64:
			if val == float64(int64(val)) {
				return strconv.FormatInt(int64(val), 10)
			}
		}
	}
	return ""
}

func getFloat(root map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := root[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			return val, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

package models

// Zone is a fixed jurisdiction with a center point and a containment radius.
// Zones are loaded once at startup and never mutated.
type Zone struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Lat      float64 `json:"lat" yaml:"lat"`
	Lon      float64 `json:"lon" yaml:"lon"`
	RadiusKm float64 `json:"radius_km" yaml:"radius_km"`
	Area     string  `json:"area,omitempty" yaml:"area,omitempty"`
	Address  string  `json:"address,omitempty" yaml:"address,omitempty"`
	Phone    string  `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// IsolatedArea is a low-density bounding box used by the risk scorer and
// the distress detector.
type IsolatedArea struct {
	Name   string  `json:"name" yaml:"name"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
}

// Contains reports whether the point falls inside the bounding box.
func (a IsolatedArea) Contains(lat, lon float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}

// RoadPoint is an arterial-road reference point for the proximity sub-score.
type RoadPoint struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

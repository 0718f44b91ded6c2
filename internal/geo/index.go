package geo

import (
	"errors"
	"sort"

	"cabwatch/pkg/models"
)

// ErrNoZones is returned when an index is built with no zones registered.
var ErrNoZones = errors.New("geo: no zones registered")

// Index answers nearest-zone and containment queries over the static zone
// registry. It is immutable after construction and safe for concurrent use.
type Index struct {
	zones []models.Zone
}

// Owned annotates a zone with whether the queried point falls inside its
// containment radius.
type Owned struct {
	Zone         models.Zone
	InsideRadius bool
	DistanceKm   float64
}

// NewIndex builds an index over the configured zones. Zones with a
// non-positive radius or duplicate ids are rejected up front.
func NewIndex(zones []models.Zone) (*Index, error) {
	if len(zones) == 0 {
		return nil, ErrNoZones
	}
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if z.ID == "" {
			return nil, errors.New("geo: zone with empty id")
		}
		if _, dup := seen[z.ID]; dup {
			return nil, errors.New("geo: duplicate zone id " + z.ID)
		}
		seen[z.ID] = struct{}{}
		if z.RadiusKm <= 0 {
			return nil, errors.New("geo: zone " + z.ID + " has non-positive radius")
		}
	}
	cp := make([]models.Zone, len(zones))
	copy(cp, zones)
	return &Index{zones: cp}, nil
}

// Zones returns the registered zones in configuration order.
func (ix *Index) Zones() []models.Zone {
	return ix.zones
}

// Zone looks up a zone by id.
func (ix *Index) Zone(id string) (models.Zone, bool) {
	for _, z := range ix.zones {
		if z.ID == id {
			return z, true
		}
	}
	return models.Zone{}, false
}

// OwningZone returns the zone whose center is nearest to the point by
// great-circle distance. The query is total: with at least one zone
// registered it always returns a zone, whether or not the point lies
// inside its radius. Ties resolve to the lowest zone id.
func (ix *Index) OwningZone(lat, lon float64) Owned {
	ranked := ix.NearestZones(lat, lon, 1)
	return ranked[0]
}

// NearestZones returns the k nearest zones ordered by distance, ties
// broken by lowest zone id.
func (ix *Index) NearestZones(lat, lon float64, k int) []Owned {
	ranked := make([]Owned, 0, len(ix.zones))
	for _, z := range ix.zones {
		d := DistanceKm(lat, lon, z.Lat, z.Lon)
		ranked = append(ranked, Owned{
			Zone:         z,
			InsideRadius: d <= z.RadiusKm,
			DistanceKm:   d,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Zone.ID < ranked[j].Zone.ID
	})
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

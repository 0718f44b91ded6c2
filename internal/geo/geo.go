package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance and
// projection computation in the engine. All components must share this
// value; mixed radii compound into score drift.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm returns the great-circle distance between two points using
// the haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BearingDeg returns the initial great-circle bearing from point 1 to
// point 2, in degrees from north in [0,360).
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	deg := toDeg(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// Project returns the destination point reached by travelling distKm from
// the start point along the given initial bearing (forward geodesic).
func Project(lat, lon, bearingDeg, distKm float64) (float64, float64) {
	phi := toRad(lat)
	lambda := toRad(lon)
	theta := toRad(bearingDeg)
	delta := distKm / EarthRadiusKm

	phi2 := math.Asin(math.Sin(phi)*math.Cos(delta) +
		math.Cos(phi)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi),
		math.Cos(delta)-math.Sin(phi)*math.Sin(phi2),
	)
	// Normalize longitude to [-180,180).
	lon2 := math.Mod(toDeg(lambda2)+540, 360) - 180
	return toDeg(phi2), lon2
}

// BearingChangeDeg returns the absolute difference between two bearings,
// folded into [0,180].
func BearingChangeDeg(b1, b2 float64) float64 {
	d := math.Abs(b1 - b2)
	if d > 180 {
		d = 360 - d
	}
	return d
}

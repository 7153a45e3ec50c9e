package geo

import "math"

// EarthRadiusM is the Earth radius in meters for Haversine.
const EarthRadiusM = 6371000.0

// HaversineM returns distance in meters between two points (lat/lng in degrees).
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// DistanceM returns the Haversine distance rounded to whole meters.
func DistanceM(lat1, lng1, lat2, lng2 float64) int {
	return int(HaversineM(lat1, lng1, lat2, lng2) + 0.5)
}

// BoundingDelta returns the latitude degree delta covering radiusM.
// ~111km per degree; used to pre-filter rows before the exact distance check.
func BoundingDelta(radiusM float64) float64 {
	return radiusM / 111000.0
}

// BoundingDeltaLng returns the longitude degree delta covering radiusM at the
// given latitude. Meridians converge toward the poles, so a degree of
// longitude spans only 111km * cos(lat); the equatorial delta would clip the
// box east-west everywhere off the equator. Capped at a hemisphere near the
// poles, where cos(lat) vanishes.
func BoundingDeltaLng(lat, radiusM float64) float64 {
	c := math.Cos(lat * math.Pi / 180)
	if c <= 0 {
		return 180
	}
	d := BoundingDelta(radiusM) / c
	if d > 180 {
		return 180
	}
	return d
}

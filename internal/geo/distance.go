package geo

import "math"

// EarthRadiusMiles matches the divisor the radius search uses to convert a
// distance in miles to radians.
const EarthRadiusMiles = 3963.0

// Miles returns the great-circle distance between two coordinates.
func Miles(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns the lat/lng window enclosing a circle of the given
// radius in miles, used to narrow candidates before the exact distance check.
func BoundingBox(lat, lng, radiusMiles float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusMiles / EarthRadiusMiles * 180 / math.Pi
	minLat, maxLat = lat-dLat, lat+dLat

	// Longitude degrees shrink toward the poles.
	dLng := dLat / math.Cos(lat*math.Pi/180)
	minLng, maxLng = lng-dLng, lng+dLng
	return
}

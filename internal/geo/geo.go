package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// LatLng is a bare coordinate pair used for rendering projections.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance in kilometers between two
// coordinates given in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// BearingDeg returns the initial bearing in degrees (0-360, clockwise from
// north) when travelling from the first coordinate to the second.
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// SmoothPath inserts a linearly interpolated midpoint between every
// consecutive pair of coordinates, preserving the originals in order. The
// result is cosmetic, for drawing a polyline; it is never used for distance
// accounting. Inputs with fewer than two points are returned as-is.
func SmoothPath(points []LatLng) []LatLng {
	if len(points) < 2 {
		return points
	}

	smoothed := make([]LatLng, 0, 2*len(points)-1)
	smoothed = append(smoothed, points[0])

	for i := 0; i < len(points)-1; i++ {
		current := points[i]
		next := points[i+1]

		smoothed = append(smoothed, LatLng{
			Lat: (current.Lat + next.Lat) / 2,
			Lng: (current.Lng + next.Lng) / 2,
		})
		smoothed = append(smoothed, next)
	}

	return smoothed
}

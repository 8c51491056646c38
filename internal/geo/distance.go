package geo

import "math"

// earthRadiusMiles is the mean radius of the Earth in statute miles.
const earthRadiusMiles = 3959.0

// Point is a location in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMiles returns the great-circle distance between two points using
// the haversine formula. Symmetric; zero for identical points.
func DistanceMiles(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

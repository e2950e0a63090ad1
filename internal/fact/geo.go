package fact

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// latitude/longitude points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Geofilter restricts results to a geographic area: a center point plus
// an inclusive radius.
type Geofilter struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// Contains reports whether f lies within the filter radius. Facts without
// coordinates never match.
func (g *Geofilter) Contains(f *CachedFact) bool {
	if !f.HasCoordinates() {
		return false
	}
	d := Haversine(g.Latitude, g.Longitude, *f.Latitude, *f.Longitude)
	return d <= g.RadiusKm
}

package geo

import "math"

const EarthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance between two points in decimal degrees
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// ValidCoordinates checks lat ∈ [-90,90], lng ∈ [-180,180]
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

// Box is a lat/lng bounding rectangle used to pre-filter rows in SQL
type Box struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

// BoundingBox returns a box that contains every point within radiusKm of (lat, lng).
// Near the poles the longitude span widens to the full range.
func BoundingBox(lat, lng, radiusKm float64) Box {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	box := Box{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat > 1e-6 {
		dLng := dLat / cosLat
		if lng-dLng >= -180 && lng+dLng <= 180 {
			box.MinLng = lng - dLng
			box.MaxLng = lng + dLng
		}
	}
	return box
}

func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

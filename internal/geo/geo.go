package geo

import (
	"math"

	"errand-route-service/internal/domain"
)

const (
	earthRadiusKm = 6371.0
	kmPerMile     = 1 / 0.621371
	milesPerKm    = 0.621371

	// Kilometers per degree of latitude (and of longitude at the equator).
	kmPerDegree = 111.0
)

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func KmToMiles(km float64) float64 { return km * milesPerKm }

func MilesToKm(mi float64) float64 { return mi * kmPerMile }

// BoundingBox is a latitude/longitude rectangle around a center point.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// BoxAround computes the bounding box for "radius r km around center".
// Longitude degrees shrink with latitude; the cosine is guarded so a
// center on the equator still yields a finite box.
func BoxAround(center domain.Coordinates, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegree

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	lonDelta := radiusKm / (kmPerDegree * cosLat)

	return BoundingBox{
		MinLat: center.Lat - latDelta,
		MinLon: center.Lon - lonDelta,
		MaxLat: center.Lat + latDelta,
		MaxLon: center.Lon + lonDelta,
	}
}

// Package geo provides the spatial primitives for building deduplication and
// roof area estimation.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// usableRoofFactor discounts the footprint for HVAC, skylights, and setbacks.
const usableRoofFactor = 0.7

// Distance returns the great-circle distance in meters between two
// latitude/longitude pairs, using the haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMeters * 2 * math.Asin(math.Sqrt(a))
}

// BBox is a geographic bounding box in the Overpass (south, west, north,
// east) convention.
type BBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundingBox returns a box of the given radius around a center point,
// using the flat-earth degree approximation (adequate at city scale).
func BoundingBox(centerLat, centerLng, radiusMeters float64) BBox {
	latDeg := 1 / 111320.0
	lngDeg := 1 / (111320.0 * math.Cos(centerLat*math.Pi/180))

	latOff := radiusMeters * latDeg
	lngOff := radiusMeters * lngDeg

	return BBox{
		South: centerLat - latOff,
		West:  centerLng - lngOff,
		North: centerLat + latOff,
		East:  centerLng + lngOff,
	}
}

// EstimateRoofArea estimates usable roof area in square feet from total
// building area and story count. Footprint is total area divided by stories;
// 70% of the footprint is assumed usable for panels.
func EstimateRoofArea(buildingAreaSqft float64, stories int) float64 {
	if stories <= 0 {
		stories = 1
	}
	footprint := buildingAreaSqft / float64(stories)
	return footprint * usableRoofFactor
}

package geo

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// SqmToSqft converts square meters to square feet.
const SqmToSqft = 10.7639

// metersPerDegreeLat is the approximate ground length of one degree of
// latitude.
const metersPerDegreeLat = 111320.0

// Footprint describes a building outline derived from polygon geometry.
type Footprint struct {
	CenterLat float64
	CenterLng float64
	AreaSqft  float64
}

// FootprintFromRing computes the centroid and planar area of a building
// outline given as a ring of (lng, lat) coordinates. The ring is projected to
// local equirectangular meters at its centroid latitude before measuring,
// which is accurate to well under a percent at building scale.
func FootprintFromRing(ring []geom.Coord) (Footprint, bool) {
	if len(ring) < 3 {
		return Footprint{}, false
	}

	closed := ring
	if !ring[0].Equal(geom.XY, ring[len(ring)-1]) {
		closed = append(append([]geom.Coord{}, ring...), ring[0])
	}

	poly := geom.NewPolygon(geom.XY)
	if _, err := poly.SetCoords([][]geom.Coord{closed}); err != nil {
		return Footprint{}, false
	}

	centroid, err := xy.Centroid(poly)
	if err != nil {
		return Footprint{}, false
	}
	centerLng, centerLat := centroid.X(), centroid.Y()

	// Project to meters around the centroid.
	mPerDegLng := metersPerDegreeLat * math.Cos(centerLat*math.Pi/180)
	projected := make([]geom.Coord, len(closed))
	for i, c := range closed {
		projected[i] = geom.Coord{
			(c.X() - centerLng) * mPerDegLng,
			(c.Y() - centerLat) * metersPerDegreeLat,
		}
	}
	projPoly := geom.NewPolygon(geom.XY)
	if _, err := projPoly.SetCoords([][]geom.Coord{projected}); err != nil {
		return Footprint{}, false
	}

	areaSqm := math.Abs(projPoly.Area())
	return Footprint{
		CenterLat: centerLat,
		CenterLng: centerLng,
		AreaSqft:  areaSqm * SqmToSqft,
	}, true
}

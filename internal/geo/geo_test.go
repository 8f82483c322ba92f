package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 43.1566, lng1: -77.6088,
			lat2: 43.1566, lng2: -77.6088,
			want: 0, tolerance: 0.001,
		},
		{
			name: "one degree latitude",
			lat1: 43.0, lng1: -77.6,
			lat2: 44.0, lng2: -77.6,
			want: 111195, tolerance: 100,
		},
		{
			name: "rochester to buffalo",
			lat1: 43.1566, lng1: -77.6088,
			lat2: 42.8864, lng2: -78.8784,
			want: 107000, tolerance: 2000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox(43.1566, -77.6088, 1000)

	assert.Less(t, box.South, 43.1566)
	assert.Greater(t, box.North, 43.1566)
	assert.Less(t, box.West, -77.6088)
	assert.Greater(t, box.East, -77.6088)

	// Box height should be roughly 2km worth of latitude degrees.
	assert.InDelta(t, 2000.0/111320.0, box.North-box.South, 1e-6)
}

func TestEstimateRoofArea(t *testing.T) {
	assert.InDelta(t, 7000.0, EstimateRoofArea(10000, 1), 0.01)
	assert.InDelta(t, 3500.0, EstimateRoofArea(10000, 2), 0.01)
	// Zero or negative stories are treated as a single story.
	assert.InDelta(t, 7000.0, EstimateRoofArea(10000, 0), 0.01)
}

func TestFootprintFromRing(t *testing.T) {
	// Roughly a 100m x 100m square near Rochester.
	lat := 43.1566
	lng := -77.6088
	dLat := 100.0 / 111320.0
	dLng := 100.0 / (111320.0 * 0.72946) // cos(43.1566 deg)

	ring := []geom.Coord{
		{lng, lat},
		{lng + dLng, lat},
		{lng + dLng, lat + dLat},
		{lng, lat + dLat},
	}

	fp, ok := FootprintFromRing(ring)
	require.True(t, ok)
	assert.InDelta(t, lat+dLat/2, fp.CenterLat, 1e-5)
	assert.InDelta(t, lng+dLng/2, fp.CenterLng, 1e-5)
	// 10,000 sqm in square feet, within a percent.
	assert.InDelta(t, 10000*SqmToSqft, fp.AreaSqft, 10000*SqmToSqft*0.01)
}

func TestFootprintFromRing_TooFewPoints(t *testing.T) {
	_, ok := FootprintFromRing([]geom.Coord{{-77.6, 43.1}, {-77.5, 43.2}})
	assert.False(t, ok)
}

package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-leads/internal/resilience"
)

const overpassPayload = `{
	"elements": [
		{
			"type": "way",
			"id": 42,
			"tags": {"building": "warehouse", "name": "Empire Freight Depot"},
			"geometry": [
				{"lat": 43.156, "lon": -77.609},
				{"lat": 43.156, "lon": -77.608},
				{"lat": 43.157, "lon": -77.608}
			]
		},
		{
			"type": "way",
			"id": 43,
			"tags": {"building": "yes"},
			"center": {"lat": 43.158, "lon": -77.61}
		}
	]
}`

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestBuildingsInBBox(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostFormValue("data")
		w.Write([]byte(overpassPayload))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithTimeout(25), WithRetry(fastRetry()))
	elements, err := c.BuildingsInBBox(context.Background(), 43.0, -77.7, 43.3, -77.5)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	assert.Contains(t, gotQuery, `way["building"]`)
	assert.Contains(t, gotQuery, "[timeout:25]")
	assert.Contains(t, gotQuery, "out tags geom;")

	first := elements[0]
	assert.Equal(t, "way", first.Type)
	assert.Equal(t, int64(42), first.ID)
	assert.Equal(t, "warehouse", first.Tag("building"))
	assert.Equal(t, "", first.Tag("missing"))
	require.Len(t, first.Geometry, 3)
	assert.InDelta(t, 43.156, first.Geometry[0].Lat, 1e-9)

	second := elements[1]
	require.NotNil(t, second.Center)
	assert.InDelta(t, 43.158, second.Center.Lat, 1e-9)
}

func TestBuildingsInBBox_RetriesOverload(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))
	elements, err := c.BuildingsInBBox(context.Background(), 43.0, -77.7, 43.3, -77.5)
	require.NoError(t, err)
	assert.Empty(t, elements)
	assert.Equal(t, 2, calls)
}

func TestBuildingsInBBox_BadRequestNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))
	_, err := c.BuildingsInBBox(context.Background(), 43.0, -77.7, 43.3, -77.5)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

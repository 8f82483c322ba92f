package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "400 Andrews St, Rochester, NY", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat": "43.1566", "lon": "-77.6088", "display_name": "400, Andrews Street, Rochester", "osm_type": "way"}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"), WithRateLimit(1000))

	got, err := c.Geocode(context.Background(), "400 Andrews St, Rochester, NY")
	require.NoError(t, err)
	assert.True(t, got.Matched)
	assert.InDelta(t, 43.1566, got.Latitude, 1e-9)
	assert.InDelta(t, -77.6088, got.Longitude, 1e-9)
	assert.Equal(t, "way", got.OSMType)

	// Second lookup is served from cache.
	_, err = c.Geocode(context.Background(), "400 Andrews St, Rochester, NY")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// The cache key is case and whitespace insensitive.
	_, err = c.Geocode(context.Background(), "  400 ANDREWS ST, Rochester, NY ")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGeocode_NoMatch(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	got, err := c.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err, "an unmatched address is not an error")
	assert.False(t, got.Matched)

	// Misses are cached too.
	_, err = c.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.Geocode(context.Background(), "400 Andrews St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("400 Andrews St"), cacheKey("  400 ANDREWS ST  "))
	assert.NotEqual(t, cacheKey("400 Andrews St"), cacheKey("120 East Ave"))
}

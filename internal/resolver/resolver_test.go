package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-leads/pkg/geocode"
	"github.com/sells-group/solar-leads/pkg/places"
)

type mockPlaces struct {
	mock.Mock
}

func (m *mockPlaces) NearbySearch(ctx context.Context, lat, lng, radiusMeters float64) ([]places.Place, error) {
	args := m.Called(ctx, lat, lng, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]places.Place), args.Error(1)
}

func (m *mockPlaces) TextSearch(ctx context.Context, query string, bias *places.LocationBias) ([]places.Place, error) {
	args := m.Called(ctx, query, bias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]places.Place), args.Error(1)
}

func (m *mockPlaces) Details(ctx context.Context, placeID string) (*places.Place, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*places.Place), args.Error(1)
}

type stubGeocoder struct {
	result *geocode.Result
	err    error
}

func (s *stubGeocoder) Geocode(ctx context.Context, addr string) (*geocode.Result, error) {
	return s.result, s.err
}

func place(id, name string, types ...string) places.Place {
	return places.Place{
		ID:          id,
		DisplayName: places.DisplayName{Text: name},
		Types:       types,
	}
}

func TestFindPlace_LandmarkShortCircuits(t *testing.T) {
	addr := "100 Midtown Plaza, Rochester, NY 14604"

	pl := new(mockPlaces)
	pl.On("TextSearch", mock.Anything, "100 Midtown Plaza", mock.Anything).
		Return([]places.Place{place("p1", "Midtown Athletic Club", "gym")}, nil)

	r := New(pl, nil)
	candidate, err := r.FindPlace(context.Background(), addr, 43.1566, -77.6088)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "Midtown Athletic Club", candidate.Name)
	assert.Equal(t, "p1", candidate.PlaceID)

	// The landmark stage satisfied the lookup; no later stage ran.
	pl.AssertNumberOfCalls(t, "TextSearch", 1)
	pl.AssertNotCalled(t, "Details", mock.Anything, mock.Anything)
}

func TestFindPlace_GenericNamesRejected(t *testing.T) {
	addr := "100 Midtown Plaza, Rochester, NY 14604"

	pl := new(mockPlaces)
	// The landmark stage returns only a restatement of the location, so the
	// waterfall keeps going.
	pl.On("TextSearch", mock.Anything, "100 Midtown Plaza", mock.Anything).
		Return([]places.Place{place("p0", "Rochester"), place("p0b", "Midtown Plaza")}, nil)
	pl.On("TextSearch", mock.Anything, addr, mock.Anything).
		Return([]places.Place{place("p1", "Hartline Legal Group", "lawyer")}, nil)

	r := New(pl, nil)
	candidate, err := r.FindPlace(context.Background(), addr, 43.1566, -77.6088)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "Hartline Legal Group", candidate.Name)
}

func TestFindPlace_StageFailureFallsThrough(t *testing.T) {
	addr := "400 Andrews St, Rochester, NY 14604"

	pl := new(mockPlaces)
	// Precise search fails at the transport level; the waterfall treats it as
	// a miss and moves on to the keyword stage.
	pl.On("TextSearch", mock.Anything, addr, mock.Anything).
		Return(nil, errors.New("status 503"))
	pl.On("TextSearch", mock.Anything, "major tenant or business at "+addr, mock.Anything).
		Return([]places.Place{
			place("p1", "Genesee River", "natural_feature"),
			place("p2", "High Falls Brewing", "establishment", "food"),
		}, nil)
	detail := place("p2", "High Falls Brewing", "establishment", "food")
	detail.WebsiteURI = "https://highfalls.example.com"
	pl.On("Details", mock.Anything, "p2").Return(&detail, nil)

	r := New(pl, nil)
	candidate, err := r.FindPlace(context.Background(), addr, 43.1566, -77.6088)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "High Falls Brewing", candidate.Name)
	assert.Equal(t, "https://highfalls.example.com", candidate.Website)
}

func TestFindPlace_CorporateFallback(t *testing.T) {
	addr := "400 Andrews St, Rochester, NY 14604"

	pl := new(mockPlaces)
	pl.On("TextSearch", mock.Anything, addr, mock.Anything).
		Return([]places.Place{}, nil)
	pl.On("TextSearch", mock.Anything, "major tenant or business at "+addr, mock.Anything).
		Return([]places.Place{}, nil)
	pl.On("TextSearch", mock.Anything, "office building or headquarters at 400 Andrews St", mock.Anything).
		Return([]places.Place{
			place("p1", "Andrews Property Group"),
			place("p2", "Riverview Holdings LLC"),
		}, nil)

	r := New(pl, nil)
	candidate, err := r.FindPlace(context.Background(), addr, 43.1566, -77.6088)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "Riverview Holdings LLC", candidate.Name)
}

func TestFindPlace_NoOccupant(t *testing.T) {
	addr := "400 Andrews St, Rochester, NY 14604"

	pl := new(mockPlaces)
	pl.On("TextSearch", mock.Anything, mock.Anything, mock.Anything).
		Return([]places.Place{}, nil)

	r := New(pl, nil)
	candidate, err := r.FindPlace(context.Background(), addr, 43.1566, -77.6088)
	require.NoError(t, err)
	assert.Nil(t, candidate, "an unidentified occupant is a valid outcome, not an error")

	// Landmark skipped (no keyword), base address skipped (no unit marker):
	// precise, keyword, and corporate each searched once.
	pl.AssertNumberOfCalls(t, "TextSearch", 3)
}

func TestFindPlace_BaseAddressStage(t *testing.T) {
	addr := "100 Main St Suite 210, Rochester, NY 14604"

	pl := new(mockPlaces)
	pl.On("TextSearch", mock.Anything, addr, mock.Anything).
		Return([]places.Place{}, nil)
	pl.On("TextSearch", mock.Anything, "businesses at 100 Main St", mock.Anything).
		Return([]places.Place{place("p1", "Canal Street Coffee", "cafe")}, nil)

	r := New(pl, nil)
	candidate, err := r.FindPlace(context.Background(), addr, 43.1566, -77.6088)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "Canal Street Coffee", candidate.Name)
}

func TestCoordinates(t *testing.T) {
	t.Run("no geocoder", func(t *testing.T) {
		r := New(new(mockPlaces), nil)
		_, _, ok := r.Coordinates(context.Background(), "400 Andrews St")
		assert.False(t, ok)
	})

	t.Run("match", func(t *testing.T) {
		gc := &stubGeocoder{result: &geocode.Result{Latitude: 43.16, Longitude: -77.61, Matched: true}}
		r := New(new(mockPlaces), gc)
		lat, lng, ok := r.Coordinates(context.Background(), "400 Andrews St")
		require.True(t, ok)
		assert.InDelta(t, 43.16, lat, 1e-9)
		assert.InDelta(t, -77.61, lng, 1e-9)
	})

	t.Run("no match", func(t *testing.T) {
		gc := &stubGeocoder{result: &geocode.Result{Matched: false}}
		r := New(new(mockPlaces), gc)
		_, _, ok := r.Coordinates(context.Background(), "nowhere")
		assert.False(t, ok)
	})

	t.Run("geocoder error", func(t *testing.T) {
		gc := &stubGeocoder{err: errors.New("timeout")}
		r := New(new(mockPlaces), gc)
		_, _, ok := r.Coordinates(context.Background(), "400 Andrews St")
		assert.False(t, ok)
	})
}

func TestFindNearby_PicksFirstEstablishment(t *testing.T) {
	pl := new(mockPlaces)
	pl.On("NearbySearch", mock.Anything, 43.1566, -77.6088, 30.0).
		Return([]places.Place{
			place("p1", "Rochester", "locality"),
			place("p2", "Acme Steel Works", "establishment", "point_of_interest"),
		}, nil)

	r := New(pl, nil)
	candidate, err := r.FindNearby(context.Background(), 43.1566, -77.6088)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "Acme Steel Works", candidate.Name)
	assert.Equal(t, "p2", candidate.PlaceID)
}

func TestFindNearby_NoEstablishments(t *testing.T) {
	pl := new(mockPlaces)
	pl.On("NearbySearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]places.Place{
			place("p1", "Rochester", "locality"),
			place("p2", "14604", "postal_code", "establishment"),
		}, nil)

	r := New(pl, nil)
	candidate, err := r.FindNearby(context.Background(), 43.1566, -77.6088)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestFindNearby_Error(t *testing.T) {
	pl := new(mockPlaces)
	pl.On("NearbySearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("quota exceeded"))

	r := New(pl, nil)
	_, err := r.FindNearby(context.Background(), 43.1566, -77.6088)
	assert.Error(t, err)
}

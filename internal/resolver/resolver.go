// Package resolver maps a building address to its most plausible business
// occupant through a waterfall of progressively broader place lookups.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/model"
	"github.com/sells-group/solar-leads/pkg/geocode"
	"github.com/sells-group/solar-leads/pkg/places"
)

// Request carries the inputs a strategy needs to search for an occupant.
type Request struct {
	Address string
	Lat     float64
	Lng     float64
}

// strategy attempts one lookup approach. A nil candidate with nil error means
// the stage found nothing acceptable and the waterfall moves on.
type strategy struct {
	name string
	run  func(ctx context.Context, req Request) (*model.PlaceCandidate, error)
}

// Resolver resolves addresses to named occupants.
type Resolver struct {
	places     places.Client
	geocoder   geocode.Client
	strategies []strategy
}

// New creates a Resolver backed by the given place lookup. The geocoder is
// optional; without it Coordinates always reports no result.
func New(pl places.Client, gc geocode.Client) *Resolver {
	r := &Resolver{
		places:   pl,
		geocoder: gc,
	}
	r.strategies = []strategy{
		{name: "landmark", run: r.landmarkSearch},
		{name: "precise", run: r.preciseSearch},
		{name: "base_address", run: r.baseAddressSearch},
		{name: "keyword_text", run: r.keywordSearch},
		{name: "corporate", run: r.corporateSearch},
	}
	return r
}

// FindPlace runs the waterfall until a stage yields a non-generic candidate.
// A nil candidate with nil error is a valid "unidentified occupant" outcome.
// Transport failures at any stage are logged and treated as a stage miss.
func (r *Resolver) FindPlace(ctx context.Context, addr string, lat, lng float64) (*model.PlaceCandidate, error) {
	req := Request{Address: addr, Lat: lat, Lng: lng}

	for _, s := range r.strategies {
		candidate, err := s.run(ctx, req)
		if err != nil {
			zap.L().Warn("resolver: stage failed",
				zap.String("stage", s.name),
				zap.String("address", addr),
				zap.Error(err),
			)
			continue
		}
		if candidate == nil {
			continue
		}

		zap.L().Debug("resolver: occupant identified",
			zap.String("stage", s.name),
			zap.String("address", addr),
			zap.String("name", candidate.Name),
		)
		return candidate, nil
	}

	zap.L().Debug("resolver: no occupant identified", zap.String("address", addr))
	return nil, nil
}

// FindNearby identifies the occupant of an unaddressed building by searching
// for establishments within a footprint-sized radius of its centroid. The
// text waterfall has nothing to query for footprint-only records; this is
// their one shot at an identity.
func (r *Resolver) FindNearby(ctx context.Context, lat, lng float64) (*model.PlaceCandidate, error) {
	results, err := r.places.NearbySearch(ctx, lat, lng, nearbySearchRadius)
	if err != nil {
		return nil, err
	}

	for _, p := range results {
		if !hasEstablishmentType(p.Types) {
			continue
		}
		if IsGenericName(p.Name(), "") {
			continue
		}
		zap.L().Debug("resolver: occupant identified",
			zap.String("stage", "nearby"),
			zap.String("name", p.Name()),
		)
		return candidateFromPlace(p), nil
	}
	return nil, nil
}

// Coordinates recovers coordinates for a record missing them via a forward
// geocode. Returns ok=false when the geocoder is absent, fails, or has no
// match; callers skip enrichment rather than treating that as fatal.
func (r *Resolver) Coordinates(ctx context.Context, addr string) (lat, lng float64, ok bool) {
	if r.geocoder == nil {
		return 0, 0, false
	}

	result, err := r.geocoder.Geocode(ctx, addr)
	if err != nil {
		zap.L().Warn("resolver: geocode failed",
			zap.String("address", addr),
			zap.Error(err),
		)
		return 0, 0, false
	}
	if !result.Matched {
		return 0, 0, false
	}
	return result.Latitude, result.Longitude, true
}

func candidateFromPlace(p places.Place) *model.PlaceCandidate {
	return &model.PlaceCandidate{
		PlaceID:     p.ID,
		Name:        p.Name(),
		Types:       p.Types,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
		Status:      p.BusinessStatus,
		Website:     p.WebsiteURI,
		Phone:       p.PhoneNumber,
	}
}

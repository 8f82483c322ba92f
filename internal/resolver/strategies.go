package resolver

import (
	"context"
	"strings"

	"github.com/sells-group/solar-leads/internal/address"
	"github.com/sells-group/solar-leads/internal/model"
	"github.com/sells-group/solar-leads/pkg/places"
)

// landmarkKeywords flag street segments that name the building itself, where
// a segment-only search usually nails the occupant directly.
var landmarkKeywords = []string{"plaza", "tower", "building", "center", "landing"}

// corporateMarkers identify corporate or property-entity names accepted by
// the corporate stage.
var corporateMarkers = []string{"llc", "corp", "inc", "tower", "plaza", "building"}

// establishmentTypes mark candidates as actual businesses rather than
// geographic features.
var establishmentTypes = []string{"establishment", "point_of_interest"}

const (
	preciseBiasRadius  = 50.0
	keywordBiasRadius  = 200.0
	landmarkBiasRadius = 100.0
	nearbySearchRadius = 30.0
)

// landmarkSearch queries with just the street segment when it contains a
// landmark keyword.
func (r *Resolver) landmarkSearch(ctx context.Context, req Request) (*model.PlaceCandidate, error) {
	segment := address.StreetSegment(req.Address)
	lower := strings.ToLower(segment)

	matched := false
	for _, kw := range landmarkKeywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, nil
	}

	results, err := r.places.TextSearch(ctx, segment, r.bias(req, landmarkBiasRadius))
	if err != nil {
		return nil, err
	}
	return r.firstNonGeneric(results, req.Address), nil
}

// preciseSearch queries with the full address, point-biased.
func (r *Resolver) preciseSearch(ctx context.Context, req Request) (*model.PlaceCandidate, error) {
	results, err := r.places.TextSearch(ctx, req.Address, r.bias(req, preciseBiasRadius))
	if err != nil {
		return nil, err
	}
	return r.firstNonGeneric(results, req.Address), nil
}

// baseAddressSearch strips unit and suite markers from the street segment and
// retries with a "businesses at" framing.
func (r *Resolver) baseAddressSearch(ctx context.Context, req Request) (*model.PlaceCandidate, error) {
	segment := address.StreetSegment(req.Address)
	base := address.BaseAddress(segment)
	if base == "" || base == segment {
		return nil, nil
	}

	results, err := r.places.TextSearch(ctx, "businesses at "+base, r.bias(req, preciseBiasRadius))
	if err != nil {
		return nil, err
	}
	return r.firstNonGeneric(results, req.Address), nil
}

// keywordSearch broadens to a radius-bounded tenant search. Accepted
// candidates must carry an establishment type tag; on acceptance the full
// details are fetched.
func (r *Resolver) keywordSearch(ctx context.Context, req Request) (*model.PlaceCandidate, error) {
	query := "major tenant or business at " + req.Address
	results, err := r.places.TextSearch(ctx, query, r.bias(req, keywordBiasRadius))
	if err != nil {
		return nil, err
	}

	for _, p := range results {
		if !hasEstablishmentType(p.Types) {
			continue
		}
		if IsGenericName(p.Name(), req.Address) {
			continue
		}

		detail, err := r.places.Details(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return candidateFromPlace(*detail), nil
	}
	return nil, nil
}

// corporateSearch looks for the building's corporate or property entity as a
// last resort. Only names carrying a corporate marker token are accepted.
func (r *Resolver) corporateSearch(ctx context.Context, req Request) (*model.PlaceCandidate, error) {
	segment := address.StreetSegment(req.Address)
	if segment == "" {
		return nil, nil
	}

	query := "office building or headquarters at " + segment
	results, err := r.places.TextSearch(ctx, query, r.bias(req, keywordBiasRadius))
	if err != nil {
		return nil, err
	}

	for _, p := range results {
		name := strings.ToLower(p.Name())
		for _, marker := range corporateMarkers {
			if strings.Contains(name, marker) {
				return candidateFromPlace(p), nil
			}
		}
	}
	return nil, nil
}

func (r *Resolver) bias(req Request, radius float64) *places.LocationBias {
	if req.Lat == 0 && req.Lng == 0 {
		return nil
	}
	return &places.LocationBias{Lat: req.Lat, Lng: req.Lng, Radius: radius}
}

func (r *Resolver) firstNonGeneric(results []places.Place, addr string) *model.PlaceCandidate {
	for _, p := range results {
		if IsGenericName(p.Name(), addr) {
			continue
		}
		return candidateFromPlace(p)
	}
	return nil
}

func hasEstablishmentType(types []string) bool {
	for _, t := range types {
		for _, want := range establishmentTypes {
			if t == want {
				return true
			}
		}
	}
	return false
}

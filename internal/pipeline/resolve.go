package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/address"
	"github.com/sells-group/solar-leads/internal/model"
)

// Resolve attaches a business identity to the record via the waterfall.
// Records without coordinates get one geocode recovery attempt first; if
// that fails the record still proceeds, unbiased. Resolution failure is an
// "unidentified occupant" outcome, not an error.
func (p *Pipeline) Resolve(ctx context.Context, rec model.BuildingRecord) model.BuildingRecord {
	out := rec
	if out.NormalizedAddress == "" {
		out.NormalizedAddress = address.Normalize(out.Address)
	}
	if out.Components == (model.AddressComponents{}) {
		out.Components = address.Parse(out.Address)
	}

	if !out.HasCoordinates() && p.resolver != nil {
		if lat, lng, ok := p.resolver.Coordinates(ctx, out.Address); ok {
			out.Latitude = &lat
			out.Longitude = &lng
			out.Geocoded = true
		}
	}

	if p.resolver == nil {
		out.State = model.StateIdentityResolved
		return out
	}

	// Footprint-only records have no text to search; fall back to a
	// proximity lookup at the centroid.
	if out.Address == "" {
		if out.HasCoordinates() {
			p.nearbySearches.Add(1)
			candidate, err := p.resolver.FindNearby(ctx, *out.Latitude, *out.Longitude)
			if err != nil {
				zap.L().Warn("pipeline: nearby resolve failed",
					zap.String("id", out.ID),
					zap.Error(err),
				)
			}
			if candidate != nil {
				out.ApplyPlace(candidate)
			}
		}
		out.State = model.StateIdentityResolved
		return out
	}

	var lat, lng float64
	if out.HasCoordinates() {
		lat, lng = *out.Latitude, *out.Longitude
	}

	candidate, err := p.resolver.FindPlace(ctx, out.Address, lat, lng)
	if err != nil {
		zap.L().Warn("pipeline: resolve failed",
			zap.String("id", out.ID),
			zap.String("address", out.Address),
			zap.Error(err),
		)
	}
	if candidate != nil {
		out.ApplyPlace(candidate)
	}

	out.State = model.StateIdentityResolved
	return out
}

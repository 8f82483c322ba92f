package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/address"
	"github.com/sells-group/solar-leads/internal/cost"
	"github.com/sells-group/solar-leads/internal/model"
	"github.com/sells-group/solar-leads/internal/store"
	"github.com/sells-group/solar-leads/pkg/places"
)

// Scheduler runs discovery searches, skipping (term, city) combinations
// covered within the freshness window.
type Scheduler struct {
	store     store.Store
	places    places.Client
	freshness time.Duration
	costCalc  *cost.Calculator
	now       func() time.Time // injectable for testing
}

// NewScheduler creates a Scheduler. freshnessDays bounds how recently a
// search must have run to be skipped.
func NewScheduler(st store.Store, pl places.Client, freshnessDays int) *Scheduler {
	if freshnessDays <= 0 {
		freshnessDays = 30
	}
	return &Scheduler{
		store:     st,
		places:    pl,
		freshness: time.Duration(freshnessDays) * 24 * time.Hour,
		costCalc:  cost.NewCalculator(cost.DefaultRates()),
		now:       time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (s *Scheduler) WithNow(fn func() time.Time) *Scheduler {
	s.now = fn
	return s
}

// Due filters terms down to those not searched within the freshness window
// for the given city.
func (s *Scheduler) Due(ctx context.Context, terms []string, city string) ([]string, error) {
	cutoff := s.now().Add(-s.freshness)

	var due []string
	for _, term := range terms {
		prev, err := s.store.GetSearch(ctx, term, city)
		if err != nil {
			return nil, eris.Wrapf(err, "discovery: check history %s/%s", term, city)
		}
		if prev != nil && prev.LastRunAt.After(cutoff) {
			continue
		}
		due = append(due, term)
	}
	return due, nil
}

// Result summarizes one discovery run.
type Result struct {
	Searched      int     `json:"searched"`
	Skipped       int     `json:"skipped"`
	Found         int     `json:"found"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Run executes every due (term, city) search and converts hits to raw
// records. A per-term search failure is logged and recorded with zero
// results so it retries after the freshness window, not immediately.
func (s *Scheduler) Run(ctx context.Context, terms []string, city string, bias *places.LocationBias) ([]model.BuildingRecord, *Result, error) {
	due, err := s.Due(ctx, terms, city)
	if err != nil {
		return nil, nil, err
	}
	result := &Result{Skipped: len(terms) - len(due)}

	var records []model.BuildingRecord
	seen := make(map[string]struct{})
	for _, term := range due {
		query := term + " in " + city
		found, err := s.places.TextSearch(ctx, query, bias)
		if err != nil {
			zap.L().Warn("discovery: search failed",
				zap.String("term", term),
				zap.String("city", city),
				zap.Error(err),
			)
			found = nil
		}
		result.Searched++

		for _, p := range found {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			records = append(records, recordFromPlace(p, term))
		}

		if err := s.store.RecordSearch(ctx, model.SearchRecord{
			Term:        term,
			City:        city,
			ResultCount: len(found),
			LastRunAt:   s.now(),
		}); err != nil {
			return nil, nil, eris.Wrapf(err, "discovery: record search %s/%s", term, city)
		}
	}

	result.Found = len(records)
	result.EstimatedCost = s.costCalc.TextSearches(result.Searched)
	zap.L().Info("discovery: run complete",
		zap.String("city", city),
		zap.Int("searched", result.Searched),
		zap.Int("skipped", result.Skipped),
		zap.Int("found", result.Found),
		zap.Float64("estimated_cost", result.EstimatedCost),
	)
	return records, result, nil
}

func recordFromPlace(p places.Place, term string) model.BuildingRecord {
	rec := model.BuildingRecord{
		ID:              uuid.New().String(),
		Address:         p.FormattedAddress,
		BuildingType:    model.TypeUnknown,
		BusinessName:    p.Name(),
		BusinessTypes:   p.Types,
		BusinessReviews: p.UserRatingCount,
		BusinessStatus:  p.BusinessStatus,
		BusinessWebsite: p.WebsiteURI,
		BusinessPhone:   p.PhoneNumber,
		PlaceID:         p.ID,
		State:           model.StateRaw,
		Sources:         []string{"discovery:" + term},
	}
	if p.Rating > 0 {
		rating := p.Rating
		rec.BusinessRating = &rating
	}
	if rec.Address != "" {
		rec.NormalizedAddress = address.Normalize(rec.Address)
	}
	return rec
}

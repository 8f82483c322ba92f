// Package pipeline runs building records through dedup, identity resolution,
// ICP classification, and scoring.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/solar-leads/internal/config"
	"github.com/sells-group/solar-leads/internal/cost"
	"github.com/sells-group/solar-leads/internal/geo"
	"github.com/sells-group/solar-leads/internal/icp"
	"github.com/sells-group/solar-leads/internal/model"
	"github.com/sells-group/solar-leads/internal/resolver"
	"github.com/sells-group/solar-leads/internal/scoring"
	"github.com/sells-group/solar-leads/internal/store"
	"github.com/sells-group/solar-leads/pkg/solar"
)

// Pipeline orchestrates the lead enrichment stages.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	resolver *resolver.Resolver
	solar    solar.Client
	buckets  *icp.Table
	engine   *scoring.Engine
	costCalc *cost.Calculator

	solarLookups   atomic.Int64
	nearbySearches atomic.Int64
}

// New creates a Pipeline with all dependencies. The solar client may be nil,
// in which case records score on proxy estimates only.
func New(
	cfg *config.Config,
	st store.Store,
	res *resolver.Resolver,
	solarClient solar.Client,
	buckets *icp.Table,
	engine *scoring.Engine,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		resolver: res,
		solar:    solarClient,
		buckets:  buckets,
		engine:   engine,
		costCalc: cost.NewCalculator(cost.DefaultRates()),
	}
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Total         int     `json:"total"`
	Merged        int     `json:"merged"`
	Resolved      int     `json:"resolved"`
	Qualified     int     `json:"qualified"`
	Failed        int     `json:"failed"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// RunBatch deduplicates the input set, then runs each surviving record
// through the per-record stages with bounded concurrency. A record failure
// is logged and counted, never aborting the rest of the batch.
func (p *Pipeline) RunBatch(ctx context.Context, records []model.BuildingRecord) ([]model.BuildingRecord, *BatchResult, error) {
	result := &BatchResult{Total: len(records)}
	lookupsBefore := p.solarLookups.Load()
	nearbyBefore := p.nearbySearches.Load()

	merged := p.Dedup(records)
	result.Merged = len(records) - len(merged)

	out := make([]model.BuildingRecord, len(merged))
	var mu sync.Mutex

	limit := p.cfg.Batch.MaxConcurrentRecords
	if limit <= 0 {
		limit = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rec := range merged {
		g.Go(func() error {
			enriched, err := p.Run(gCtx, rec)
			if err != nil {
				zap.L().Error("pipeline: record failed",
					zap.String("id", rec.ID),
					zap.String("address", rec.Address),
					zap.Error(err),
				)
				mu.Lock()
				result.Failed++
				mu.Unlock()
				// Keep the unenriched record so nothing is dropped.
				out[i] = rec
				return nil
			}

			mu.Lock()
			if enriched.BusinessName != "" {
				result.Resolved++
			}
			if enriched.Eligible {
				result.Qualified++
			}
			mu.Unlock()
			out[i] = *enriched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: batch wait")
	}

	if p.store != nil {
		if err := p.store.UpsertRecords(ctx, out); err != nil {
			return nil, nil, eris.Wrap(err, "pipeline: persist batch")
		}
	}

	result.EstimatedCost = p.costCalc.SolarLookups(int(p.solarLookups.Load()-lookupsBefore)) +
		p.costCalc.NearbySearches(int(p.nearbySearches.Load()-nearbyBefore))

	zap.L().Info("pipeline: batch complete",
		zap.Int("total", result.Total),
		zap.Int("merged", result.Merged),
		zap.Int("resolved", result.Resolved),
		zap.Int("qualified", result.Qualified),
		zap.Int("failed", result.Failed),
		zap.Float64("estimated_cost", result.EstimatedCost),
	)
	return out, result, nil
}

// Run advances a single record through resolve, classify, and score. Stages
// add fields without removing prior ones; the state moves forward only.
func (p *Pipeline) Run(ctx context.Context, rec model.BuildingRecord) (*model.BuildingRecord, error) {
	resolved := p.Resolve(ctx, rec)
	p.EnrichSolar(ctx, &resolved)
	classified, _ := p.buckets.Apply(resolved)
	scored := p.engine.Score(classified)
	return &scored, nil
}

// Dedup merges near-duplicate records, keeping the first of each cluster.
func (p *Pipeline) Dedup(records []model.BuildingRecord) []model.BuildingRecord {
	threshold := p.cfg.Dedup.DistanceThresholdM
	if threshold <= 0 {
		threshold = geo.DefaultDistanceThreshold
	}
	merged := geo.MergeDuplicates(records, threshold)
	for i := range merged {
		merged[i].State = model.StateDedupChecked
	}
	return merged
}

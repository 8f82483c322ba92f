package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-leads/internal/icp"
	"github.com/sells-group/solar-leads/internal/pipeline"
	"github.com/sells-group/solar-leads/internal/resolver"
	"github.com/sells-group/solar-leads/internal/scoring"
	"github.com/sells-group/solar-leads/internal/store"
	"github.com/sells-group/solar-leads/pkg/geocode"
	"github.com/sells-group/solar-leads/pkg/places"
	"github.com/sells-group/solar-leads/pkg/solar"
)

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "json", "":
		return store.NewJSON(cfg.Store.Path)
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initBuckets loads the ICP bucket table, from file if configured.
func initBuckets() (*icp.Table, error) {
	if cfg.Discovery.BucketsFile != "" {
		return icp.LoadTable(cfg.Discovery.BucketsFile)
	}
	return icp.DefaultTable(), nil
}

// initPlaces creates the Places client. The key is required for any command
// that resolves occupants or discovers candidates.
func initPlaces() (places.Client, error) {
	if cfg.Places.Key == "" {
		return nil, eris.New("places API key not configured (SOLAR_PLACES_KEY)")
	}
	return places.NewClient(cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithRateLimit(cfg.Places.RatePerSecond),
	), nil
}

// initPipeline wires the full enrichment pipeline. The solar client is
// optional; without a key, scoring runs on proxy estimates.
func initPipeline(st store.Store) (*pipeline.Pipeline, error) {
	buckets, err := initBuckets()
	if err != nil {
		return nil, err
	}

	placesClient, err := initPlaces()
	if err != nil {
		return nil, err
	}

	geocoder := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithRateLimit(cfg.Geocode.RatePerSecond),
	)

	var solarClient solar.Client
	if cfg.Solar.Key != "" {
		solarClient = solar.NewClient(cfg.Solar.Key,
			solar.WithBaseURL(cfg.Solar.BaseURL),
			solar.WithRateLimit(cfg.Solar.RatePerSecond),
		)
	}

	res := resolver.New(placesClient, geocoder)
	engine := scoring.NewEngine(scoringConfig(), buckets)

	return pipeline.New(cfg, st, res, solarClient, buckets, engine), nil
}

// scoringConfig maps the config file policy constants onto the engine.
func scoringConfig() scoring.Config {
	sc := scoring.DefaultConfig()
	if cfg.Scoring.MinRoofSqft > 0 {
		sc.MinRoofSqft = cfg.Scoring.MinRoofSqft
	}
	if cfg.Scoring.SqftPerPanel > 0 {
		sc.SqftPerPanel = cfg.Scoring.SqftPerPanel
	}
	if cfg.Scoring.UsableRoofFactor > 0 {
		sc.UsableRoofFactor = cfg.Scoring.UsableRoofFactor
	}
	if cfg.Scoring.ProxyDiscount > 0 {
		sc.ProxyDiscount = cfg.Scoring.ProxyDiscount
	}
	if cfg.Scoring.PanelWatts > 0 {
		sc.PanelWatts = cfg.Scoring.PanelWatts
	}
	return sc
}

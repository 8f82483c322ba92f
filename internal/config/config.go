// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Region    RegionConfig    `yaml:"region" mapstructure:"region"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Solar     SolarConfig     `yaml:"solar" mapstructure:"solar"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Dedup     DedupConfig     `yaml:"dedup" mapstructure:"dedup"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "json", "sqlite", "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // json/sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RegionConfig describes the target market area.
type RegionConfig struct {
	City  string  `yaml:"city" mapstructure:"city"`
	State string  `yaml:"state" mapstructure:"state"`
	Lat   float64 `yaml:"lat" mapstructure:"lat"`
	Lng   float64 `yaml:"lng" mapstructure:"lng"`
	// RadiusMeters bounds ingest and discovery searches around the center.
	RadiusMeters float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// SolarConfig holds Google Solar API settings.
type SolarConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// GeocodeConfig holds Nominatim settings.
type GeocodeConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// OverpassConfig holds Overpass API settings.
type OverpassConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for search-term generation.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds the Notion integration token and target database.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// ScoringConfig exposes the replaceable scoring policy constants.
type ScoringConfig struct {
	MinRoofSqft      float64 `yaml:"min_roof_sqft" mapstructure:"min_roof_sqft"`
	SqftPerPanel     float64 `yaml:"sqft_per_panel" mapstructure:"sqft_per_panel"`
	UsableRoofFactor float64 `yaml:"usable_roof_factor" mapstructure:"usable_roof_factor"`
	ProxyDiscount    float64 `yaml:"proxy_discount" mapstructure:"proxy_discount"`
	PanelWatts       float64 `yaml:"panel_watts" mapstructure:"panel_watts"`
}

// DedupConfig configures geospatial deduplication.
type DedupConfig struct {
	DistanceThresholdM float64 `yaml:"distance_threshold_m" mapstructure:"distance_threshold_m"`
}

// DiscoveryConfig configures the discovery query scheduler.
type DiscoveryConfig struct {
	FreshnessDays int    `yaml:"freshness_days" mapstructure:"freshness_days"`
	BucketsFile   string `yaml:"buckets_file" mapstructure:"buckets_file"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentRecords int `yaml:"max_concurrent_records" mapstructure:"max_concurrent_records"`
}

// ServerConfig configures the read-only leads API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "leads.json")
	v.SetDefault("region.city", "Rochester")
	v.SetDefault("region.state", "NY")
	v.SetDefault("region.lat", 43.1566)
	v.SetDefault("region.lng", -77.6088)
	v.SetDefault("region.radius_meters", 15000)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.rate_per_second", 10)
	v.SetDefault("solar.base_url", "https://solar.googleapis.com/v1")
	v.SetDefault("solar.rate_per_second", 5)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "solar-leads/1.0")
	v.SetDefault("geocode.rate_per_second", 1)
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("scoring.min_roof_sqft", 3000)
	v.SetDefault("scoring.sqft_per_panel", 17.5)
	v.SetDefault("scoring.usable_roof_factor", 0.7)
	v.SetDefault("scoring.proxy_discount", 0.8)
	v.SetDefault("scoring.panel_watts", 400)
	v.SetDefault("dedup.distance_threshold_m", 20)
	v.SetDefault("discovery.freshness_days", 30)
	v.SetDefault("batch.max_concurrent_records", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can support the given mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}
	if c.Batch.MaxConcurrentRecords < 1 || c.Batch.MaxConcurrentRecords > 32 {
		problems = append(problems, "batch.max_concurrent_records must be between 1 and 32")
	}

	switch mode {
	case "ingest", "merge", "leads":
	case "discover", "enrich":
		if c.Places.Key == "" {
			problems = append(problems, "places.key is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

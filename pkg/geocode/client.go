// Package geocode provides forward address geocoding via OSM Nominatim.
package geocode

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes street addresses to coordinates.
type Client interface {
	// Geocode resolves a single free-form address. An unmatched address
	// returns a Result with Matched=false, not an error.
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	OSMType     string // "way", "node", "relation"
	Matched     bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Nominatim endpoint, e.g. for a self-hosted
// instance or a test server.
func WithBaseURL(u string) Option {
	return func(g *geocoder) { g.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) { g.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit. The public Nominatim
// instance requires at most 1 req/s.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) { g.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithUserAgent sets the User-Agent header, required by Nominatim's usage policy.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) { g.userAgent = ua }
}

type geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.RWMutex
	cache map[string]Result
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  "solar-leads/1.0",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		cache:      make(map[string]Result),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves an address, consulting the in-memory cache first. Both
// matches and non-matches are cached so repeated misses skip the network.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	key := cacheKey(address)

	g.mu.RLock()
	cached, ok := g.cache[key]
	g.mu.RUnlock()
	if ok {
		r := cached
		return &r, nil
	}

	result, err := g.geocodeNominatim(ctx, address)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = *result
	g.mu.Unlock()

	return result, nil
}

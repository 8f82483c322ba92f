// Package overpass queries the OSM Overpass API for building footprints
// inside a bounding box.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/solar-leads/internal/resilience"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

// Element is one OSM element from an Overpass response. Ways carry their
// node geometry when the query uses `out geom`.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []Point           `json:"geometry"`
	Center   *Point            `json:"center"`
}

// Point is a lat/lon pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Tag returns the value of an OSM tag, or "" when absent.
func (e Element) Tag(key string) string {
	return e.Tags[key]
}

// Client queries Overpass.
type Client interface {
	// BuildingsInBBox returns building ways within (south, west, north, east).
	BuildingsInBBox(ctx context.Context, south, west, north, east float64) ([]Element, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the Overpass endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithTimeout sets the server-side query timeout in seconds.
func WithTimeout(seconds int) Option {
	return func(c *httpClient) { c.queryTimeout = seconds }
}

// WithRetry overrides the retry policy. The public Overpass instance sheds
// load with 429 and 504 responses, which are retried as transient.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	baseURL      string
	queryTimeout int
	http         *http.Client
	limiter      *rate.Limiter
	retry        resilience.RetryConfig
}

// NewClient creates an Overpass client. The public instance asks for at most
// one concurrent query per client, so requests are limited to 1 req/s.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:      defaultBaseURL,
		queryTimeout: 60,
		http:         &http.Client{Timeout: 90 * time.Second},
		limiter:      rate.NewLimiter(1, 1),
		retry:        resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
}

func (c *httpClient) BuildingsInBBox(ctx context.Context, south, west, north, east float64) ([]Element, error) {
	query := fmt.Sprintf(`[out:json][timeout:%d];
way["building"](%f,%f,%f,%f);
out tags geom;`, c.queryTimeout, south, west, north, east)

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("overpass", "buildings_in_bbox")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]Element, error) {
		return c.fetch(ctx, query)
	})
}

func (c *httpClient) fetch(ctx context.Context, query string) ([]Element, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit wait")
	}

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read response")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("overpass: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var payload overpassResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "overpass: unmarshal response")
	}
	return payload.Elements, nil
}

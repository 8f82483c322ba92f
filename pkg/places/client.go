// Package places is a Google Places API (v1) client covering the lookups the
// entity resolver needs: proximity search, text search, and place details.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.types,places.rating,places.userRatingCount,places.businessStatus,places.websiteUri,places.nationalPhoneNumber"

// Client performs Google Places API operations.
type Client interface {
	// NearbySearch returns places within radiusMeters of a point.
	NearbySearch(ctx context.Context, lat, lng, radiusMeters float64) ([]Place, error)

	// TextSearch runs a free-text query, optionally biased toward a point.
	TextSearch(ctx context.Context, query string, bias *LocationBias) ([]Place, error)

	// Details resolves a place ID to full details.
	Details(ctx context.Context, placeID string) (*Place, error)
}

// LocationBias biases a text search toward a circular area.
type LocationBias struct {
	Lat    float64
	Lng    float64
	Radius float64
}

// Place is a candidate returned by the API.
type Place struct {
	ID               string      `json:"id"`
	DisplayName      DisplayName `json:"displayName"`
	FormattedAddress string      `json:"formattedAddress"`
	Types            []string    `json:"types"`
	Rating           float64     `json:"rating"`
	UserRatingCount  int         `json:"userRatingCount"`
	BusinessStatus   string      `json:"businessStatus"`
	WebsiteURI       string      `json:"websiteUri"`
	PhoneNumber      string      `json:"nationalPhoneNumber"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Name returns the display name text.
func (p Place) Name() string { return p.DisplayName.Text }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit on outbound calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Places []Place `json:"places"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c *httpClient) NearbySearch(ctx context.Context, lat, lng, radiusMeters float64) ([]Place, error) {
	req := struct {
		LocationRestriction struct {
			Circle circle `json:"circle"`
		} `json:"locationRestriction"`
		MaxResultCount int `json:"maxResultCount"`
	}{MaxResultCount: 10}
	req.LocationRestriction.Circle = circle{
		Center: latLng{Latitude: lat, Longitude: lng},
		Radius: radiusMeters,
	}

	var resp searchResponse
	if err := c.post(ctx, "/places:searchNearby", req, &resp); err != nil {
		return nil, err
	}
	return resp.Places, nil
}

func (c *httpClient) TextSearch(ctx context.Context, query string, bias *LocationBias) ([]Place, error) {
	req := map[string]any{
		"textQuery":      query,
		"maxResultCount": 10,
	}
	if bias != nil {
		req["locationBias"] = map[string]any{
			"circle": circle{
				Center: latLng{Latitude: bias.Lat, Longitude: bias.Lng},
				Radius: bias.Radius,
			},
		}
	}

	var resp searchResponse
	if err := c.post(ctx, "/places:searchText", req, &resp); err != nil {
		return nil, err
	}
	return resp.Places, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*Place, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+placeID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "id,displayName,formattedAddress,types,rating,userRatingCount,businessStatus,websiteUri,nationalPhoneNumber")

	var place Place
	if err := c.do(req, &place); err != nil {
		return nil, err
	}
	return &place, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "places: rate limit wait")
	}
	return nil
}

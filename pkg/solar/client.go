// Package solar wraps the Google Solar API buildingInsights endpoint.
// Missing imagery coverage (HTTP 404) is a nil result, not an error.
package solar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/solar-leads/internal/resilience"
)

const defaultBaseURL = "https://solar.googleapis.com/v1"

// BuildingInsights holds the solar metrics extracted for a building.
type BuildingInsights struct {
	MaxArrayPanels    int
	MaxArrayAreaM2    float64
	RoofAreaM2        float64
	SunshineHoursYear float64
	CarbonOffsetKgMWh float64
	PanelCapacityW    int
	OptimalPanels     int
	YearlyEnergyKWh   float64
	FinanciallyViable bool
	PaybackYears      float64
	MonthlySavings    float64
}

// Client fetches building solar insights.
type Client interface {
	FindClosest(ctx context.Context, lat, lng float64) (*BuildingInsights, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetry overrides the retry policy for transient API failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Solar API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(5, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// insightsResponse mirrors the subset of the buildingInsights payload we use.
type insightsResponse struct {
	SolarPotential struct {
		MaxArrayPanelsCount    int     `json:"maxArrayPanelsCount"`
		MaxArrayAreaMeters2    float64 `json:"maxArrayAreaMeters2"`
		MaxSunshineHoursPerYr  float64 `json:"maxSunshineHoursPerYear"`
		CarbonOffsetFactor     float64 `json:"carbonOffsetFactorKgPerMwh"`
		PanelCapacityWatts     int     `json:"panelCapacityWatts"`
		WholeRoofStats         struct {
			AreaMeters2 float64 `json:"areaMeters2"`
		} `json:"wholeRoofStats"`
		SolarPanelConfigs []struct {
			PanelsCount       int     `json:"panelsCount"`
			YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
		} `json:"solarPanelConfigs"`
		FinancialAnalyses []struct {
			DefaultBill bool `json:"defaultBill"`
			MonthlyBill struct {
				Units string `json:"units"`
			} `json:"monthlyBill"`
			FinanciallyViable   bool `json:"financiallyViable"`
			CashPurchaseSavings struct {
				PaybackYears float64 `json:"paybackYears"`
			} `json:"cashPurchaseSavings"`
		} `json:"financialAnalyses"`
	} `json:"solarPotential"`
}

func (c *httpClient) FindClosest(ctx context.Context, lat, lng float64) (*BuildingInsights, error) {
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("solar", "find_closest")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*BuildingInsights, error) {
		return c.findClosest(ctx, lat, lng)
	})
}

func (c *httpClient) findClosest(ctx context.Context, lat, lng float64) (*BuildingInsights, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "solar: rate limit wait")
		}
	}

	q := url.Values{}
	q.Set("location.latitude", fmt.Sprintf("%f", lat))
	q.Set("location.longitude", fmt.Sprintf("%f", lng))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/buildingInsights:findClosest?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "solar: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "solar: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		zap.L().Debug("solar: no coverage",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
		)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "solar: read response")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("solar: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var payload insightsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "solar: unmarshal response")
	}

	sp := payload.SolarPotential
	out := &BuildingInsights{
		MaxArrayPanels:    sp.MaxArrayPanelsCount,
		MaxArrayAreaM2:    sp.MaxArrayAreaMeters2,
		RoofAreaM2:        sp.WholeRoofStats.AreaMeters2,
		SunshineHoursYear: sp.MaxSunshineHoursPerYr,
		CarbonOffsetKgMWh: sp.CarbonOffsetFactor,
		PanelCapacityW:    sp.PanelCapacityWatts,
	}
	if out.PanelCapacityW == 0 {
		out.PanelCapacityW = 400
	}

	// The configs are ordered by panel count; the last is the largest array.
	if n := len(sp.SolarPanelConfigs); n > 0 {
		optimal := sp.SolarPanelConfigs[n-1]
		out.OptimalPanels = optimal.PanelsCount
		out.YearlyEnergyKWh = optimal.YearlyEnergyDcKwh
	}

	// Prefer the default-bill financial analysis, fall back to the first.
	if len(sp.FinancialAnalyses) > 0 {
		best := sp.FinancialAnalyses[0]
		for _, f := range sp.FinancialAnalyses {
			if f.DefaultBill {
				best = f
				break
			}
		}
		out.FinanciallyViable = best.FinanciallyViable
		out.PaybackYears = best.CashPurchaseSavings.PaybackYears
	}

	return out, nil
}

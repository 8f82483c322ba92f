// Package cost estimates API spend for discovery and enrichment runs.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Places    PlacesRates          `yaml:"places" mapstructure:"places"`
	Solar     SolarRate            `yaml:"solar" mapstructure:"solar"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PlacesRates holds Google Places pricing (per request).
type PlacesRates struct {
	TextSearch float64 `yaml:"text_search" mapstructure:"text_search"`
	Nearby     float64 `yaml:"nearby" mapstructure:"nearby"`
	Details    float64 `yaml:"details" mapstructure:"details"`
}

// SolarRate holds Google Solar API pricing (per request).
type SolarRate struct {
	BuildingInsights float64 `yaml:"building_insights" mapstructure:"building_insights"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a Claude API call.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// TextSearches computes the cost of n Places text searches.
func (c *Calculator) TextSearches(n int) float64 {
	return float64(n) * c.rates.Places.TextSearch
}

// NearbySearches computes the cost of n Places nearby searches.
func (c *Calculator) NearbySearches(n int) float64 {
	return float64(n) * c.rates.Places.Nearby
}

// PlaceDetails computes the cost of n Places details fetches.
func (c *Calculator) PlaceDetails(n int) float64 {
	return float64(n) * c.rates.Places.Details
}

// SolarLookups computes the cost of n Solar API building insight requests.
func (c *Calculator) SolarLookups(n int) float64 {
	return float64(n) * c.rates.Solar.BuildingInsights
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		Places: PlacesRates{
			TextSearch: 0.035,
			Nearby:     0.032,
			Details:    0.017,
		},
		Solar: SolarRate{BuildingInsights: 0.01},
	}
}

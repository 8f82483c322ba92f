package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"haiku":  {Input: 0.80, Output: 4.00},
			"sonnet": {Input: 3.00, Output: 15.00},
		},
		Places: PlacesRates{TextSearch: 0.035, Nearby: 0.032, Details: 0.017},
		Solar:  SolarRate{BuildingInsights: 0.01},
	}
}

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		model  string
		input  int64
		output int64
		want   float64
	}{
		{
			name:  "haiku simple",
			model: "haiku",
			input: 1000000, output: 100000,
			want: 0.80 + 0.40, // 0.80 input + 0.40 output
		},
		{
			name:  "sonnet",
			model: "sonnet",
			input: 1000000, output: 100000,
			want: 3.00 + 1.50, // 3.00 input + 1.50 output
		},
		{
			name:  "unknown model returns 0",
			model: "unknown",
			input: 1000000, output: 1000000,
			want: 0,
		},
		{
			name:  "zero tokens returns 0",
			model: "haiku",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Claude(tt.model, tt.input, tt.output)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestPlacesRequests(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 0.35, calc.TextSearches(10), 0.0001)
	assert.InDelta(t, 0.32, calc.NearbySearches(10), 0.0001)
	assert.InDelta(t, 0.17, calc.PlaceDetails(10), 0.0001)
	assert.InDelta(t, 0, calc.TextSearches(0), 0.0001)
}

func TestSolarLookups(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 1.0, calc.SolarLookups(100), 0.0001)
	assert.InDelta(t, 0, calc.SolarLookups(0), 0.0001)
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.Contains(t, rates.Anthropic, "claude-haiku-4-5-20251001")
	assert.Contains(t, rates.Anthropic, "claude-sonnet-4-5-20250929")
	assert.InDelta(t, 0.035, rates.Places.TextSearch, 0.001)
	assert.InDelta(t, 0.01, rates.Solar.BuildingInsights, 0.001)
}

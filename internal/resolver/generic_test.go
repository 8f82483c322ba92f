package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGenericName(t *testing.T) {
	addr := "400 Andrews St, Rochester, NY 14604"

	tests := []struct {
		name    string
		input   string
		generic bool
	}{
		{name: "empty", input: "", generic: true},
		{name: "whitespace only", input: "   ", generic: true},
		{name: "city name", input: "Rochester", generic: true},
		{name: "city name cased", input: "ROCHESTER", generic: true},
		{name: "state", input: "New York", generic: true},
		{name: "county", input: "Monroe County", generic: true},
		{name: "zip code token", input: "Rochester 14604", generic: true},
		{name: "address restated", input: "400 Andrews St", generic: true},
		{name: "street fragment", input: "Andrews St", generic: true},
		{name: "real business", input: "High Falls Brewing", generic: false},
		{name: "business with street word", input: "Andrews Street Dental Group", generic: false},
		{name: "diacritics fold", input: "café río", generic: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.generic, IsGenericName(tt.input, addr))
		})
	}
}

func TestIsGenericName_LocalityFoldsDiacritics(t *testing.T) {
	// Diacritics are stripped before the locality comparison.
	assert.True(t, IsGenericName("Róchester", "400 Andrews St, Rochester, NY"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "cafe rio", fold("  Café Río "))
	assert.Equal(t, "plain", fold("plain"))
	assert.Equal(t, "", fold(""))
}

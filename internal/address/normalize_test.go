package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "uppercases", in: "400 andrews st", want: "400 ANDREWS ST"},
		{name: "street suffix", in: "400 Andrews Street", want: "400 ANDREWS ST"},
		{name: "avenue suffix", in: "120 East Avenue, Rochester", want: "120 E AVE, ROCHESTER"},
		{name: "directional", in: "10 North Clinton Ave", want: "10 N CLINTON AVE"},
		{name: "collapses whitespace", in: "  400   Andrews  St ", want: "400 ANDREWS ST"},
		{name: "trailing comma preserved", in: "400 Andrews Street, Rochester, NY 14604", want: "400 ANDREWS ST, ROCHESTER, NY 14604"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	c := Parse("400 Andrews St, Rochester, NY 14604")
	assert.Equal(t, "400", c.StreetNumber)
	assert.Equal(t, "Andrews St", c.StreetName)
	assert.Equal(t, "Rochester", c.City)
	assert.Equal(t, "NY", c.State)
	assert.Equal(t, "14604", c.ZipCode)
	assert.Empty(t, c.Unit)
}

func TestParse_Unit(t *testing.T) {
	c := Parse("100 Main St Suite 210, Rochester, NY 14604")
	assert.Equal(t, "100", c.StreetNumber)
	assert.Equal(t, "Main St", c.StreetName)
	assert.Equal(t, "210", c.Unit)
}

func TestParse_Zip9(t *testing.T) {
	c := Parse("400 Andrews St, Rochester, NY 14604-1234")
	assert.Equal(t, "14604", c.ZipCode)
}

func TestParse_Degrades(t *testing.T) {
	c := Parse("")
	assert.Equal(t, "", c.StreetNumber)
	assert.Equal(t, "", c.StreetName)

	c = Parse("somewhere vague")
	assert.Equal(t, "", c.StreetNumber)
	assert.Equal(t, "somewhere vague", c.StreetName)
}

func TestStreetSegment(t *testing.T) {
	assert.Equal(t, "400 Andrews St", StreetSegment("400 Andrews St, Rochester, NY 14604"))
	assert.Equal(t, "400 Andrews St", StreetSegment("400 Andrews St"))
	assert.Equal(t, "", StreetSegment(""))
}

func TestBaseAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "suite", in: "100 Main St Suite 4", want: "100 Main St"},
		{name: "ste with hash", in: "100 Main St Ste #4", want: "100 Main St"},
		{name: "unit", in: "100 Main St Unit B", want: "100 Main St"},
		{name: "floor", in: "100 Main St Floor 2", want: "100 Main St"},
		{name: "no marker", in: "100 Main St", want: "100 Main St"},
		{name: "marker inside word", in: "12 Floral Ave", want: "12 Floral Ave"},
		{name: "apartment", in: "100 Main St Apt 3", want: "100 Main St"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseAddress(tt.in))
		})
	}
}

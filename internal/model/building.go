package model

import "sort"

// PipelineState tracks how far a record has progressed through enrichment.
// Transitions are strictly forward: raw → dedup_checked → identity_resolved →
// classified → scored.
type PipelineState string

const (
	StateRaw              PipelineState = "raw"
	StateDedupChecked     PipelineState = "dedup_checked"
	StateIdentityResolved PipelineState = "identity_resolved"
	StateClassified       PipelineState = "classified"
	StateScored           PipelineState = "scored"
)

// BuildingType is the coarse use classification of a building. Values other
// than the listed constants are treated as unknown by the scorer.
type BuildingType string

const (
	TypeIndustrial    BuildingType = "industrial"
	TypeWarehouse     BuildingType = "warehouse"
	TypeCommercial    BuildingType = "commercial"
	TypeRetail        BuildingType = "retail"
	TypeOffice        BuildingType = "office"
	TypeMixedUse      BuildingType = "mixed_use"
	TypeInstitutional BuildingType = "institutional"
	TypeUnknown       BuildingType = "unknown"
)

// AddressComponents holds the parsed parts of a US street address.
// All fields are optional; a failed parse leaves them empty.
type AddressComponents struct {
	StreetNumber string `json:"street_number,omitempty"`
	StreetName   string `json:"street_name,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Unit         string `json:"unit,omitempty"`
}

// StreetLine returns "number name" for street-level comparisons, or "" when
// neither part is known.
func (a AddressComponents) StreetLine() string {
	switch {
	case a.StreetNumber == "" && a.StreetName == "":
		return ""
	case a.StreetNumber == "":
		return a.StreetName
	case a.StreetName == "":
		return a.StreetNumber
	}
	return a.StreetNumber + " " + a.StreetName
}

// PlaceCandidate is a business occupant candidate returned by a place lookup.
type PlaceCandidate struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Types       []string `json:"types,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
	Status      string   `json:"status,omitempty"`
	Website     string   `json:"website,omitempty"`
	Phone       string   `json:"phone,omitempty"`
}

// SolarData holds measured solar potential from the Solar API. All fields are
// absent (zero pointers) when no imagery coverage exists for the building.
type SolarData struct {
	MaxPanels         *int     `json:"max_panels,omitempty"`
	MaxArrayAreaM2    *float64 `json:"max_array_area_m2,omitempty"`
	RoofAreaM2        *float64 `json:"roof_area_m2,omitempty"`
	SunshineHours     *float64 `json:"sunshine_hours_year,omitempty"`
	YearlyEnergyKWh   *float64 `json:"yearly_energy_kwh,omitempty"`
	PanelCapacityW    int      `json:"panel_capacity_watts,omitempty"`
	FinanciallyViable bool     `json:"financially_viable,omitempty"`
	PaybackYears      *float64 `json:"payback_years,omitempty"`
	MonthlySavings    *float64 `json:"monthly_savings,omitempty"`
	CarbonOffsetKgMWh *float64 `json:"carbon_offset_kg_mwh,omitempty"`
}

// BuildingRecord is a candidate solar lead. Records are created by ingestion
// and enriched stage by stage; stages add fields, they never remove prior
// ones. Exclusion is a flag, not a deletion, so filtered-out leads stay
// auditable downstream.
type BuildingRecord struct {
	ID                string            `json:"building_id"`
	Address           string            `json:"address"`
	NormalizedAddress string            `json:"normalized_address,omitempty"`
	Components        AddressComponents `json:"components,omitempty"`

	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
	Geocoded  bool     `json:"geocoded,omitempty"`

	BuildingType      BuildingType `json:"building_type"`
	BuildingAreaSqft  float64      `json:"building_area_sqft,omitempty"`
	Stories           int          `json:"num_stories,omitempty"`
	EstimatedRoofSqft float64      `json:"estimated_roof_area,omitempty"`

	// Business identity, populated by the resolver.
	BusinessName    string   `json:"business_name,omitempty"`
	BusinessTypes   []string `json:"business_types,omitempty"`
	BusinessRating  *float64 `json:"business_rating,omitempty"`
	BusinessReviews int      `json:"business_reviews_count,omitempty"`
	BusinessStatus  string   `json:"business_status,omitempty"`
	BusinessWebsite string   `json:"business_website,omitempty"`
	BusinessPhone   string   `json:"business_phone,omitempty"`
	PlaceID         string   `json:"place_id,omitempty"`

	Solar *SolarData `json:"solar,omitempty"`

	// Classification and scoring outputs.
	ICPBucket      string         `json:"icp_bucket,omitempty"`
	Score          int            `json:"enriched_score"`
	ScoreBreakdown map[string]int `json:"enriched_score_breakdown,omitempty"`
	Eligible       bool           `json:"eligible"`
	Disqualified   string         `json:"disqualified_reason,omitempty"`

	// Proxy solar estimate, derived when no measured data exists.
	ProxyEstimate      bool    `json:"proxy_estimate,omitempty"`
	EstimatedPanels    int     `json:"estimated_panels,omitempty"`
	EstimatedEnergyKWh float64 `json:"estimated_energy_kwh,omitempty"`

	State   PipelineState `json:"pipeline_state,omitempty"`
	Sources []string      `json:"sources,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (b *BuildingRecord) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// ApplyPlace copies a resolved place candidate onto the record.
func (b *BuildingRecord) ApplyPlace(p *PlaceCandidate) {
	if p == nil {
		return
	}
	b.BusinessName = p.Name
	b.BusinessTypes = p.Types
	if p.Rating > 0 {
		r := p.Rating
		b.BusinessRating = &r
	}
	b.BusinessReviews = p.ReviewCount
	b.BusinessStatus = p.Status
	b.BusinessWebsite = p.Website
	b.BusinessPhone = p.Phone
	b.PlaceID = p.PlaceID
}

// QualifiedLeads returns the eligible subset ranked by score descending.
// Ties keep input order.
func QualifiedLeads(records []BuildingRecord) []BuildingRecord {
	var out []BuildingRecord
	for _, r := range records {
		if r.Eligible {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

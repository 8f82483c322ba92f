// Package scoring turns enriched building attributes into a bounded lead
// priority score with a per-factor breakdown.
package scoring

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/icp"
	"github.com/sells-group/solar-leads/internal/model"
)

// Config holds the scoring policy constants. The proxy panel constants
// (square feet per panel, usable factor, confidence discount) encode domain
// assumptions, not physics; they are replaceable policy values.
type Config struct {
	MinRoofSqft       float64 `yaml:"min_roof_sqft" mapstructure:"min_roof_sqft"`
	DisqualifiedScore int     `yaml:"disqualified_score" mapstructure:"disqualified_score"`
	SqftPerPanel      float64 `yaml:"sqft_per_panel" mapstructure:"sqft_per_panel"`
	UsableRoofFactor  float64 `yaml:"usable_roof_factor" mapstructure:"usable_roof_factor"`
	ProxyDiscount     float64 `yaml:"proxy_discount" mapstructure:"proxy_discount"`
	PanelWatts        float64 `yaml:"panel_watts" mapstructure:"panel_watts"`
}

// DefaultConfig returns the standard scoring policy.
func DefaultConfig() Config {
	return Config{
		MinRoofSqft:       3000,
		DisqualifiedScore: 12,
		SqftPerPanel:      17.5,
		UsableRoofFactor:  0.7,
		ProxyDiscount:     0.8,
		PanelWatts:        400,
	}
}

// sqmToSqft converts measured array area to square feet for the gate.
const sqmToSqft = 10.7639

// landmarkTokens trigger the small-roof disqualification override when they
// appear in a resolved business name.
var landmarkTokens = []string{"tower", "plaza", "building", "center", "square", "landing", "mall"}

// buildingTypePoints is the fixed building-type contribution table.
var buildingTypePoints = map[model.BuildingType]int{
	model.TypeIndustrial: 10,
	model.TypeWarehouse:  10,
	model.TypeCommercial: 8,
	model.TypeRetail:     5,
	model.TypeOffice:     4,
	model.TypeMixedUse:   3,
}

// Engine scores classified records. It reads the ICP bucket table for
// adjustments but never mutates it.
type Engine struct {
	cfg     Config
	buckets *icp.Table
}

// NewEngine creates a scoring engine.
func NewEngine(cfg Config, buckets *icp.Table) *Engine {
	return &Engine{cfg: cfg, buckets: buckets}
}

// RoofAreaSqft returns the roof area used for eligibility and proxy
// estimation, preferring the measured solar array area over the
// footprint-based estimate.
func (e *Engine) RoofAreaSqft(record *model.BuildingRecord) float64 {
	if record.Solar != nil && record.Solar.MaxArrayAreaM2 != nil {
		return *record.Solar.MaxArrayAreaM2 * sqmToSqft
	}
	return record.EstimatedRoofSqft
}

// Score computes the composite score for a record and returns an updated
// copy. It is a pure function of the record's current fields: scoring an
// already-scored record again yields an identical score and breakdown.
func (e *Engine) Score(record model.BuildingRecord) model.BuildingRecord {
	r := record
	breakdown := make(map[string]int)

	roofSqft := e.RoofAreaSqft(&r)
	if roofSqft < e.cfg.MinRoofSqft && !e.overrideApplies(&r) {
		r.Eligible = false
		r.Disqualified = "roof area below minimum threshold"
		r.Score = e.cfg.DisqualifiedScore
		r.ScoreBreakdown = map[string]int{"disqualified": e.cfg.DisqualifiedScore}
		r.State = model.StateScored
		zap.L().Debug("scoring: disqualified",
			zap.String("building_id", r.ID),
			zap.Float64("roof_sqft", roofSqft),
		)
		return r
	}

	total := 0

	// Solar potential, 0-40.
	panels, proxy := e.panelCount(&r, roofSqft)
	solarPts := panelPoints(panels)
	if proxy {
		r.ProxyEstimate = true
		r.EstimatedPanels = panels
		r.EstimatedEnergyKWh = float64(panels) * e.cfg.PanelWatts * 1.25
		solarPts = int(math.Floor(float64(solarPts) * e.cfg.ProxyDiscount))
	}
	total += solarPts
	breakdown["solar_potential"] = solarPts

	// ICP bucket adjustment, signed. The final clamp is the only floor.
	if bucket, ok := e.buckets.Lookup(r.ICPBucket); ok {
		total += bucket.Adjustment
		breakdown["icp_adjustment"] = bucket.Adjustment
	}

	// Financial viability, 0-20.
	viable := r.Solar != nil && r.Solar.FinanciallyViable
	switch {
	case viable && !proxy:
		total += 15
		breakdown["financial_viability"] = 15
		// The payback bonus rides on measured viability; a short payback
		// on a non-viable analysis earns nothing.
		if r.Solar.PaybackYears != nil && *r.Solar.PaybackYears < 7 {
			total += 5
			breakdown["quick_payback_bonus"] = 5
		}
	case proxy:
		total += 10
		breakdown["financial_viability"] = 10
	}

	// Building type, 0-10.
	typePts, ok := buildingTypePoints[r.BuildingType]
	if !ok {
		typePts = 2
	}
	total += typePts
	breakdown["building_type"] = typePts

	// Business identification, 0-10.
	if r.BusinessName != "" {
		total += 7
		breakdown["business_identified"] = 7
		if r.BusinessRating != nil && *r.BusinessRating >= 4.0 {
			total += 3
			breakdown["good_rating_bonus"] = 3
		}
	}

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	r.Score = total
	r.ScoreBreakdown = breakdown
	r.Eligible = true
	r.Disqualified = ""
	r.State = model.StateScored
	return r
}

// overrideApplies reports whether a small-roof record escapes
// disqualification: a resolved business name containing a landmark token, or
// a Tier-1 ICP bucket, signals a multi-tenant or high-load building whose
// true roof may exceed the mapped footprint.
func (e *Engine) overrideApplies(r *model.BuildingRecord) bool {
	if r.BusinessName == "" {
		return false
	}
	if icp.IsTier1(r.ICPBucket) {
		return true
	}
	name := strings.ToLower(r.BusinessName)
	for _, tok := range landmarkTokens {
		if strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

// panelCount returns the measured panel count, or a proxy estimate derived
// from roof area when no measurement exists.
func (e *Engine) panelCount(r *model.BuildingRecord, roofSqft float64) (panels int, proxy bool) {
	if r.Solar != nil && r.Solar.MaxPanels != nil {
		return *r.Solar.MaxPanels, false
	}
	est := int(math.Floor(roofSqft / e.cfg.SqftPerPanel * e.cfg.UsableRoofFactor))
	if est < 0 {
		est = 0
	}
	return est, true
}

// panelPoints awards the solar-potential tier points for a panel count.
func panelPoints(panels int) int {
	switch {
	case panels >= 250:
		return 40
	case panels >= 100:
		return 35
	case panels >= 50:
		return 25
	default:
		return 15
	}
}

package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/model"
)

// EnrichSolar attaches measured solar potential when the Solar API has
// coverage for the record's coordinates. Missing coverage or a transport
// failure leaves the record untouched; scoring falls back to the proxy
// estimate.
func (p *Pipeline) EnrichSolar(ctx context.Context, rec *model.BuildingRecord) {
	if p.solar == nil || !rec.HasCoordinates() || rec.Solar != nil {
		return
	}

	p.solarLookups.Add(1)
	insights, err := p.solar.FindClosest(ctx, *rec.Latitude, *rec.Longitude)
	if err != nil {
		zap.L().Warn("pipeline: solar enrichment failed",
			zap.String("id", rec.ID),
			zap.Error(err),
		)
		return
	}
	if insights == nil {
		return
	}

	data := &model.SolarData{
		PanelCapacityW:    insights.PanelCapacityW,
		FinanciallyViable: insights.FinanciallyViable,
	}
	if insights.MaxArrayPanels > 0 {
		data.MaxPanels = &insights.MaxArrayPanels
	}
	if insights.MaxArrayAreaM2 > 0 {
		data.MaxArrayAreaM2 = &insights.MaxArrayAreaM2
	}
	if insights.RoofAreaM2 > 0 {
		data.RoofAreaM2 = &insights.RoofAreaM2
	}
	if insights.SunshineHoursYear > 0 {
		data.SunshineHours = &insights.SunshineHoursYear
	}
	if insights.YearlyEnergyKWh > 0 {
		data.YearlyEnergyKWh = &insights.YearlyEnergyKWh
	}
	if insights.PaybackYears > 0 {
		data.PaybackYears = &insights.PaybackYears
	}
	if insights.CarbonOffsetKgMWh > 0 {
		data.CarbonOffsetKgMWh = &insights.CarbonOffsetKgMWh
	}
	rec.Solar = data
}

// Package ingest converts raw building sources (OSM extracts, footprint
// shapefiles, seed CSVs) into building records for the pipeline.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/address"
	geointernal "github.com/sells-group/solar-leads/internal/geo"
	"github.com/sells-group/solar-leads/internal/model"
	"github.com/sells-group/solar-leads/pkg/overpass"
)

// osmTypeMap translates OSM building tag values to our building types.
var osmTypeMap = map[string]model.BuildingType{
	"industrial":  model.TypeIndustrial,
	"factory":     model.TypeIndustrial,
	"manufacture": model.TypeIndustrial,
	"warehouse":   model.TypeWarehouse,
	"commercial":  model.TypeCommercial,
	"supermarket": model.TypeRetail,
	"retail":      model.TypeRetail,
	"shop":        model.TypeRetail,
	"office":      model.TypeOffice,
	"mixed_use":   model.TypeMixedUse,
	"mixed":       model.TypeMixedUse,
	"civic":       model.TypeInstitutional,
	"school":      model.TypeInstitutional,
	"university":  model.TypeInstitutional,
	"hospital":    model.TypeInstitutional,
	"church":      model.TypeInstitutional,
}

// residentialTags are building values dropped at ingest.
var residentialTags = map[string]struct{}{
	"house": {}, "residential": {}, "apartments": {}, "detached": {},
	"semidetached_house": {}, "terrace": {}, "bungalow": {}, "garage": {},
	"garages": {}, "shed": {}, "hut": {}, "cabin": {},
}

// FromOverpass fetches building ways inside the bounding box and converts
// them to records. Residential buildings are skipped at ingest since they can
// never become commercial leads.
func FromOverpass(ctx context.Context, client overpass.Client, bbox geointernal.BBox, city, state string) ([]model.BuildingRecord, error) {
	elements, err := client.BuildingsInBBox(ctx, bbox.South, bbox.West, bbox.North, bbox.East)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: overpass query")
	}

	var records []model.BuildingRecord
	var skipped int
	for _, el := range elements {
		rec, ok := recordFromElement(el, city, state)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	zap.L().Info("ingest: overpass extract",
		zap.Int("elements", len(elements)),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
	)
	return records, nil
}

func recordFromElement(el overpass.Element, city, state string) (model.BuildingRecord, bool) {
	if el.Type != "way" || len(el.Geometry) < 3 {
		return model.BuildingRecord{}, false
	}

	tag := el.Tag("building")
	if _, residential := residentialTags[tag]; residential {
		return model.BuildingRecord{}, false
	}

	ring := make([]geom.Coord, len(el.Geometry))
	for i, pt := range el.Geometry {
		ring[i] = geom.Coord{pt.Lon, pt.Lat}
	}
	fp, ok := geointernal.FootprintFromRing(ring)
	if !ok {
		return model.BuildingRecord{}, false
	}

	stories := 1
	if levels := el.Tag("building:levels"); levels != "" {
		if n, err := strconv.Atoi(levels); err == nil && n > 0 {
			stories = n
		}
	}

	rec := model.BuildingRecord{
		ID:               uuid.New().String(),
		Address:          elementAddress(el, city, state),
		BuildingType:     buildingTypeFromTags(el),
		BuildingAreaSqft: fp.AreaSqft * float64(stories),
		Stories:          stories,
		Latitude:         &fp.CenterLat,
		Longitude:        &fp.CenterLng,
		State:            model.StateRaw,
		Sources:          []string{fmt.Sprintf("osm:way/%d", el.ID)},
	}
	rec.EstimatedRoofSqft = geointernal.EstimateRoofArea(rec.BuildingAreaSqft, stories)
	if rec.Address != "" {
		rec.NormalizedAddress = address.Normalize(rec.Address)
		rec.Components = address.Parse(rec.Address)
	}
	if name := el.Tag("name"); name != "" {
		rec.BusinessName = name
	}
	return rec, true
}

func elementAddress(el overpass.Element, city, state string) string {
	num := el.Tag("addr:housenumber")
	street := el.Tag("addr:street")
	if num == "" || street == "" {
		return ""
	}

	parts := []string{num + " " + street}
	if c := el.Tag("addr:city"); c != "" {
		parts = append(parts, c)
	} else if city != "" {
		parts = append(parts, city)
	}
	if state != "" {
		st := state
		if zip := el.Tag("addr:postcode"); zip != "" {
			st += " " + zip
		}
		parts = append(parts, st)
	}
	return strings.Join(parts, ", ")
}

func buildingTypeFromTags(el overpass.Element) model.BuildingType {
	if bt, ok := osmTypeMap[el.Tag("building")]; ok {
		return bt
	}
	// Land use hints cover bare building=yes ways inside industrial zones.
	if el.Tag("landuse") == "industrial" || el.Tag("industrial") != "" {
		return model.TypeIndustrial
	}
	if el.Tag("shop") != "" {
		return model.TypeRetail
	}
	if el.Tag("office") != "" {
		return model.TypeOffice
	}
	return model.TypeUnknown
}

package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-leads/internal/address"
	geointernal "github.com/sells-group/solar-leads/internal/geo"
	"github.com/sells-group/solar-leads/internal/model"
)

// FromCSV reads a seed list. The header row names the columns; recognized
// names are address, building_type, area_sqft, stories, lat, lng, and
// business_name. Unknown columns are ignored, rows without an address are
// skipped.
func FromCSV(r io.Reader, source string) ([]model.BuildingRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []model.BuildingRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}

		addr := field(row, "address")
		if addr == "" {
			continue
		}

		rec := model.BuildingRecord{
			ID:                uuid.New().String(),
			Address:           addr,
			NormalizedAddress: address.Normalize(addr),
			Components:        address.Parse(addr),
			BuildingType:      normalizeType(field(row, "building_type")),
			BusinessName:      field(row, "business_name"),
			State:             model.StateRaw,
			Sources:           []string{source},
		}

		if v := field(row, "area_sqft"); v != "" {
			if area, parseErr := strconv.ParseFloat(v, 64); parseErr == nil && area > 0 {
				rec.BuildingAreaSqft = area
			}
		}
		rec.Stories = 1
		if v := field(row, "stories"); v != "" {
			if n, parseErr := parsePositiveInt(v); parseErr == nil {
				rec.Stories = n
			}
		}
		if rec.BuildingAreaSqft > 0 {
			rec.EstimatedRoofSqft = geointernal.EstimateRoofArea(rec.BuildingAreaSqft, rec.Stories)
		}

		lat := field(row, "lat")
		lng := field(row, "lng")
		if lat != "" && lng != "" {
			latF, latErr := strconv.ParseFloat(lat, 64)
			lngF, lngErr := strconv.ParseFloat(lng, 64)
			if latErr == nil && lngErr == nil {
				rec.Latitude = &latF
				rec.Longitude = &lngF
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

// normalizeType maps a free-text building type to the known enum, defaulting
// to unknown.
func normalizeType(s string) model.BuildingType {
	switch model.BuildingType(strings.ToLower(strings.TrimSpace(s))) {
	case model.TypeIndustrial:
		return model.TypeIndustrial
	case model.TypeWarehouse:
		return model.TypeWarehouse
	case model.TypeCommercial:
		return model.TypeCommercial
	case model.TypeRetail:
		return model.TypeRetail
	case model.TypeOffice:
		return model.TypeOffice
	case model.TypeMixedUse:
		return model.TypeMixedUse
	case model.TypeInstitutional:
		return model.TypeInstitutional
	default:
		return model.TypeUnknown
	}
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, eris.Errorf("ingest: value %d not positive", n)
	}
	return n, nil
}

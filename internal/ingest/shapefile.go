package ingest

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/address"
	geointernal "github.com/sells-group/solar-leads/internal/geo"
	"github.com/sells-group/solar-leads/internal/model"
)

// ShapefileOptions maps attribute field names to record fields. Field name
// matching is case-insensitive; empty names disable the mapping.
type ShapefileOptions struct {
	AddressField string
	TypeField    string
	StoriesField string
	City         string
	State        string
}

// FromShapefile reads building footprint polygons and converts them to
// records. Non-polygon shapes and degenerate rings are skipped.
func FromShapefile(path string, opts ShapefileOptions) ([]model.BuildingRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	attr := func(row int, name string) string {
		if name == "" {
			return ""
		}
		idx, ok := fieldIdx[strings.ToLower(name)]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.ReadAttribute(row, idx), "\x00"))
	}

	var records []model.BuildingRecord
	var skipped int
	row := 0
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) < 3 {
			skipped++
			row++
			continue
		}

		// Only the outer ring matters for roof area.
		end := len(poly.Points)
		if len(poly.Parts) > 1 {
			end = int(poly.Parts[1])
		}
		ring := make([]geom.Coord, 0, end)
		for _, pt := range poly.Points[:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}

		fp, ok := geointernal.FootprintFromRing(ring)
		if !ok {
			skipped++
			row++
			continue
		}

		stories := 1
		if s := attr(row, opts.StoriesField); s != "" {
			if n, parseErr := parsePositiveInt(s); parseErr == nil {
				stories = n
			}
		}

		rec := model.BuildingRecord{
			ID:               uuid.New().String(),
			Address:          shapefileAddress(attr(row, opts.AddressField), opts),
			BuildingType:     normalizeType(attr(row, opts.TypeField)),
			BuildingAreaSqft: fp.AreaSqft * float64(stories),
			Stories:          stories,
			Latitude:         &fp.CenterLat,
			Longitude:        &fp.CenterLng,
			State:            model.StateRaw,
			Sources:          []string{"shapefile:" + path},
		}
		rec.EstimatedRoofSqft = geointernal.EstimateRoofArea(rec.BuildingAreaSqft, stories)
		if rec.Address != "" {
			rec.NormalizedAddress = address.Normalize(rec.Address)
			rec.Components = address.Parse(rec.Address)
		}
		records = append(records, rec)
		row++
	}

	if skipped > 0 {
		zap.L().Debug("ingest: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return records, nil
}

func shapefileAddress(street string, opts ShapefileOptions) string {
	if street == "" {
		return ""
	}
	parts := []string{street}
	if opts.City != "" {
		parts = append(parts, opts.City)
	}
	if opts.State != "" {
		parts = append(parts, opts.State)
	}
	return strings.Join(parts, ", ")
}

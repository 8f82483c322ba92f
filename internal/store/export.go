package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/solar-leads/internal/model"
)

var exportHeader = []string{
	"id", "business_name", "address", "icp_bucket", "building_type",
	"score", "eligible", "roof_sqft", "estimated_panels", "proxy_estimate",
	"phone", "website",
}

func exportRow(r model.BuildingRecord) []string {
	return []string{
		r.ID,
		r.BusinessName,
		r.Address,
		r.ICPBucket,
		string(r.BuildingType),
		strconv.Itoa(r.Score),
		strconv.FormatBool(r.Eligible),
		fmt.Sprintf("%.0f", r.EstimatedRoofSqft),
		strconv.Itoa(r.EstimatedPanels),
		strconv.FormatBool(r.ProxyEstimate),
		r.BusinessPhone,
		r.BusinessWebsite,
	}
}

// ExportCSV writes ranked leads to a CSV file.
func ExportCSV(path string, records []model.BuildingRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range records {
		if err := w.Write(exportRow(r)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", r.ID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return eris.Wrap(f.Close(), "export: close csv file")
}

// ExportXLSX writes ranked leads to a single-sheet workbook.
func ExportXLSX(path string, records []model.BuildingRecord) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range exportHeader {
		header.AddCell().SetString(col)
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, val := range exportRow(r) {
			row.AddCell().SetString(val)
		}
	}

	return eris.Wrap(file.Save(path), "export: save xlsx")
}

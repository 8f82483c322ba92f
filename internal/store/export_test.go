package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/solar-leads/internal/model"
)

func exportRecords() []model.BuildingRecord {
	return []model.BuildingRecord{
		{
			ID:                "a",
			BusinessName:      "Acme Steel Works",
			Address:           "400 Andrews St, Rochester, NY",
			ICPBucket:         "TIER_1_INDUSTRIAL",
			BuildingType:      model.TypeIndustrial,
			Score:             88,
			Eligible:          true,
			EstimatedRoofSqft: 12400.6,
			EstimatedPanels:   300,
			ProxyEstimate:     true,
			BusinessPhone:     "(585) 555-0100",
		},
		{ID: "b", Address: "120 East Ave, Rochester, NY", Score: 40, Eligible: true},
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, ExportCSV(path, exportRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, []string{
		"a", "Acme Steel Works", "400 Andrews St, Rochester, NY",
		"TIER_1_INDUSTRIAL", "industrial", "88", "true", "12401", "300",
		"true", "(585) 555-0100", "",
	}, rows[1])
	assert.Equal(t, "b", rows[2][0])
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, ExportXLSX(path, exportRecords()))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Acme Steel Works", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "88", sheet.Rows[1].Cells[5].String())
}

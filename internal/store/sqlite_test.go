package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-leads/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.UpsertRecords(ctx, testRecords()))

	got, err := s.GetRecord(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "400 Andrews St", got.Address)
	assert.Equal(t, 80, got.Score)
	assert.True(t, got.Eligible)

	missing, err := s.GetRecord(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.UpsertRecords(ctx, testRecords()))
	require.NoError(t, s.UpsertRecords(ctx, []model.BuildingRecord{
		{ID: "a", Address: "400 Andrews St", Score: 99, Eligible: true},
	}))

	all, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := s.GetRecord(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 99, got.Score)
}

func TestSQLiteStore_QualifiedLeads(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	require.NoError(t, s.UpsertRecords(ctx, testRecords()))

	leads, err := s.QualifiedLeads(ctx, LeadFilter{EligibleOnly: true})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "a", leads[0].ID, "highest score first")

	leads, err = s.QualifiedLeads(ctx, LeadFilter{MinScore: 50, EligibleOnly: true})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "a", leads[0].ID)

	leads, err = s.QualifiedLeads(ctx, LeadFilter{Bucket: "TIER_1_INDUSTRIAL"})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	leads, err = s.QualifiedLeads(ctx, LeadFilter{EligibleOnly: true, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestSQLiteStore_SearchHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	missing, err := s.GetSearch(ctx, "cold storage", "Rochester")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ranAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordSearch(ctx, model.SearchRecord{
		Term: "cold storage", City: "Rochester", ResultCount: 4, LastRunAt: ranAt,
	}))

	sr, err := s.GetSearch(ctx, "cold storage", "Rochester")
	require.NoError(t, err)
	require.NotNil(t, sr)
	assert.Equal(t, 4, sr.ResultCount)
	assert.True(t, sr.LastRunAt.Equal(ranAt))

	// Re-recording the same term/city pair replaces the row.
	require.NoError(t, s.RecordSearch(ctx, model.SearchRecord{
		Term: "cold storage", City: "Rochester", ResultCount: 9, LastRunAt: ranAt.Add(24 * time.Hour),
	}))
	sr, err = s.GetSearch(ctx, "cold storage", "Rochester")
	require.NoError(t, err)
	assert.Equal(t, 9, sr.ResultCount)
}

func TestSQLiteStore_DeleteRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	require.NoError(t, s.UpsertRecords(ctx, testRecords()))

	require.NoError(t, s.DeleteRecords(ctx, []string{"a", "c"}))

	gone, err := s.GetRecord(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, gone)

	all, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)

	require.NoError(t, s.DeleteRecords(ctx, nil))
}

func TestSQLiteStore_RoundTripsDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	lat, lng := 43.1566, -77.6088
	rec := model.BuildingRecord{
		ID:                "full",
		Address:           "400 Andrews St",
		Latitude:          &lat,
		Longitude:         &lng,
		BuildingType:      model.TypeIndustrial,
		EstimatedRoofSqft: 12000,
		BusinessName:      "Acme Steel Works",
		ScoreBreakdown:    map[string]int{"solar_potential": 40},
		Sources:           []string{"osm:way/1"},
		State:             model.StateScored,
	}
	require.NoError(t, s.UpsertRecords(ctx, []model.BuildingRecord{rec}))

	got, err := s.GetRecord(ctx, "full")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.BusinessName, got.BusinessName)
	assert.Equal(t, rec.ScoreBreakdown, got.ScoreBreakdown)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, lat, *got.Latitude, 1e-9)
	assert.Equal(t, model.StateScored, got.State)
}

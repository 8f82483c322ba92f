package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-leads/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgres(t)

	doc := `{"building_id": "a", "address": "400 Andrews St", "enriched_score": 80, "eligible": true}`
	mock.ExpectQuery(`SELECT doc FROM buildings WHERE id = \$1`).
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(doc))

	got, err := s.GetRecord(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "400 Andrews St", got.Address)
	assert.Equal(t, 80, got.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecordMissing(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT doc FROM buildings WHERE id = \$1`).
		WithArgs("zzz").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}))

	got, err := s.GetRecord(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QualifiedLeads(t *testing.T) {
	s, mock := newMockPostgres(t)

	rows := pgxmock.NewRows([]string{"doc"}).
		AddRow(`{"building_id": "a", "enriched_score": 80, "eligible": true}`).
		AddRow(`{"building_id": "b", "enriched_score": 55, "eligible": true}`)

	mock.ExpectQuery(`SELECT doc FROM buildings WHERE score >= \$1 AND eligible AND icp_bucket = \$2 ORDER BY score DESC LIMIT 10`).
		WithArgs(50, "TIER_1_INDUSTRIAL").
		WillReturnRows(rows)

	leads, err := s.QualifiedLeads(context.Background(), LeadFilter{
		MinScore:     50,
		EligibleOnly: true,
		Bucket:       "TIER_1_INDUSTRIAL",
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "a", leads[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSearch(t *testing.T) {
	s, mock := newMockPostgres(t)

	ranAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT result_count, last_run_at FROM search_history`).
		WithArgs("cold storage", "Rochester").
		WillReturnRows(pgxmock.NewRows([]string{"result_count", "last_run_at"}).AddRow(4, ranAt))

	sr, err := s.GetSearch(context.Background(), "cold storage", "Rochester")
	require.NoError(t, err)
	require.NotNil(t, sr)
	assert.Equal(t, 4, sr.ResultCount)
	assert.True(t, sr.LastRunAt.Equal(ranAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSearchMissing(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT result_count, last_run_at FROM search_history`).
		WithArgs("never ran", "Rochester").
		WillReturnRows(pgxmock.NewRows([]string{"result_count", "last_run_at"}))

	sr, err := s.GetSearch(context.Background(), "never ran", "Rochester")
	require.NoError(t, err)
	assert.Nil(t, sr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSearch(t *testing.T) {
	s, mock := newMockPostgres(t)

	ranAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO search_history`).
		WithArgs("cold storage", "Rochester", 4, ranAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordSearch(context.Background(), model.SearchRecord{
		Term: "cold storage", City: "Rochester", ResultCount: 4, LastRunAt: ranAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteRecords(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM buildings WHERE id = ANY\(\$1\)`).
		WithArgs([]string{"a", "b"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, s.DeleteRecords(context.Background(), []string{"a", "b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteRecordsEmpty(t *testing.T) {
	s, mock := newMockPostgres(t)

	require.NoError(t, s.DeleteRecords(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertEmpty(t *testing.T) {
	s, mock := newMockPostgres(t)

	require.NoError(t, s.UpsertRecords(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

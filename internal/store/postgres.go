package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-leads/internal/db"
	"github.com/sells-group/solar-leads/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS buildings (
	id         TEXT PRIMARY KEY,
	address    TEXT NOT NULL,
	icp_bucket TEXT NOT NULL DEFAULT '',
	score      INTEGER NOT NULL DEFAULT 0,
	eligible   BOOLEAN NOT NULL DEFAULT FALSE,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_history (
	term         TEXT NOT NULL,
	city         TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	last_run_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (term, city)
);

CREATE INDEX IF NOT EXISTS idx_buildings_score ON buildings(score DESC);
CREATE INDEX IF NOT EXISTS idx_buildings_eligible ON buildings(eligible);
CREATE INDEX IF NOT EXISTS idx_buildings_bucket ON buildings(icp_bucket);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// UpsertRecords bulk-upserts via a temp table and INSERT ... ON CONFLICT,
// so large ingest batches avoid per-row round trips.
func (s *PostgresStore) UpsertRecords(ctx context.Context, records []model.BuildingRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal record %s", r.ID)
		}
		rows = append(rows, []any{r.ID, r.Address, r.ICPBucket, r.Score, r.Eligible, string(doc), now})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "buildings",
		Columns:      []string{"id", "address", "icp_bucket", "score", "eligible", "doc", "updated_at"},
		ConflictKeys: []string{"id"},
	}, rows)
	return eris.Wrap(err, "postgres: upsert records")
}

func (s *PostgresStore) DeleteRecords(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM buildings WHERE id = ANY($1)`, ids)
	return eris.Wrap(err, "postgres: delete records")
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.BuildingRecord, error) {
	var doc string
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM buildings WHERE id = $1`, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return unmarshalRecord(doc)
}

func (s *PostgresStore) ListRecords(ctx context.Context) ([]model.BuildingRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM buildings ORDER BY updated_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()
	return scanPgxRecords(rows)
}

func (s *PostgresStore) QualifiedLeads(ctx context.Context, filter LeadFilter) ([]model.BuildingRecord, error) {
	query := `SELECT doc FROM buildings WHERE score >= $1`
	args := []any{filter.MinScore}

	if filter.EligibleOnly {
		query += ` AND eligible`
	}
	if filter.Bucket != "" {
		args = append(args, filter.Bucket)
		query += ` AND icp_bucket = $2`
	}
	query += ` ORDER BY score DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: qualified leads")
	}
	defer rows.Close()
	return scanPgxRecords(rows)
}

func (s *PostgresStore) GetSearch(ctx context.Context, term, city string) (*model.SearchRecord, error) {
	sr := model.SearchRecord{Term: term, City: city}
	err := s.pool.QueryRow(ctx,
		`SELECT result_count, last_run_at FROM search_history WHERE term = $1 AND city = $2`,
		term, city,
	).Scan(&sr.ResultCount, &sr.LastRunAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get search %s/%s", term, city)
	}
	return &sr, nil
}

func (s *PostgresStore) RecordSearch(ctx context.Context, search model.SearchRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO search_history (term, city, result_count, last_run_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (term, city) DO UPDATE SET
			result_count = EXCLUDED.result_count,
			last_run_at = EXCLUDED.last_run_at`,
		search.Term, search.City, search.ResultCount, search.LastRunAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: record search %s/%s", search.Term, search.City)
}

func scanPgxRecords(rows pgx.Rows) ([]model.BuildingRecord, error) {
	var out []model.BuildingRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r, err := unmarshalRecord(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

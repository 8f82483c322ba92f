package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/solar-leads/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The full record is
// stored as a JSON document alongside extracted columns for filtering.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS buildings (
	id         TEXT PRIMARY KEY,
	address    TEXT NOT NULL,
	icp_bucket TEXT NOT NULL DEFAULT '',
	score      INTEGER NOT NULL DEFAULT 0,
	eligible   INTEGER NOT NULL DEFAULT 0,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS search_history (
	term         TEXT NOT NULL,
	city         TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	last_run_at  DATETIME NOT NULL,
	PRIMARY KEY (term, city)
);

CREATE INDEX IF NOT EXISTS idx_buildings_score ON buildings(score DESC);
CREATE INDEX IF NOT EXISTS idx_buildings_eligible ON buildings(eligible);
CREATE INDEX IF NOT EXISTS idx_buildings_bucket ON buildings(icp_bucket);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertRecords(ctx context.Context, records []model.BuildingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO buildings (id, address, icp_bucket, score, eligible, doc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			address = excluded.address,
			icp_bucket = excluded.icp_bucket,
			score = excluded.score,
			eligible = excluded.eligible,
			doc = excluded.doc,
			updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal record %s", r.ID)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Address, r.ICPBucket, r.Score, boolToInt(r.Eligible), string(doc), now); err != nil {
			return eris.Wrapf(err, "sqlite: upsert record %s", r.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

func (s *SQLiteStore) DeleteRecords(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM buildings WHERE id = ?`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare delete")
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return eris.Wrapf(err, "sqlite: delete record %s", id)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.BuildingRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM buildings WHERE id = ?`, id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return unmarshalRecord(doc)
}

func (s *SQLiteStore) ListRecords(ctx context.Context) ([]model.BuildingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM buildings ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *SQLiteStore) QualifiedLeads(ctx context.Context, filter LeadFilter) ([]model.BuildingRecord, error) {
	query := `SELECT doc FROM buildings WHERE score >= ?`
	args := []any{filter.MinScore}

	if filter.EligibleOnly {
		query += ` AND eligible = 1`
	}
	if filter.Bucket != "" {
		query += ` AND icp_bucket = ?`
		args = append(args, filter.Bucket)
	}
	query += ` ORDER BY score DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: qualified leads")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *SQLiteStore) GetSearch(ctx context.Context, term, city string) (*model.SearchRecord, error) {
	sr := model.SearchRecord{Term: term, City: city}
	err := s.db.QueryRowContext(ctx,
		`SELECT result_count, last_run_at FROM search_history WHERE term = ? AND city = ?`,
		term, city,
	).Scan(&sr.ResultCount, &sr.LastRunAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get search %s/%s", term, city)
	}
	return &sr, nil
}

func (s *SQLiteStore) RecordSearch(ctx context.Context, search model.SearchRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (term, city, result_count, last_run_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (term, city) DO UPDATE SET
			result_count = excluded.result_count,
			last_run_at = excluded.last_run_at`,
		search.Term, search.City, search.ResultCount, search.LastRunAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: record search %s/%s", search.Term, search.City)
}

func scanRecords(rows *sql.Rows) ([]model.BuildingRecord, error) {
	var out []model.BuildingRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		r, err := unmarshalRecord(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func unmarshalRecord(doc string) (*model.BuildingRecord, error) {
	var r model.BuildingRecord
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal record")
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

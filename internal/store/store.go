// Package store persists building records and discovery search history
// across JSON file, SQLite, and Postgres backends.
package store

import (
	"context"

	"github.com/sells-group/solar-leads/internal/model"
)

// LeadFilter specifies criteria for listing qualified leads.
type LeadFilter struct {
	MinScore     int    `json:"min_score,omitempty"`
	Bucket       string `json:"bucket,omitempty"`
	EligibleOnly bool   `json:"eligible_only,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Records
	UpsertRecords(ctx context.Context, records []model.BuildingRecord) error
	DeleteRecords(ctx context.Context, ids []string) error
	GetRecord(ctx context.Context, id string) (*model.BuildingRecord, error)
	ListRecords(ctx context.Context) ([]model.BuildingRecord, error)
	QualifiedLeads(ctx context.Context, filter LeadFilter) ([]model.BuildingRecord, error)

	// Discovery search history
	GetSearch(ctx context.Context, term, city string) (*model.SearchRecord, error)
	RecordSearch(ctx context.Context, search model.SearchRecord) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// applyFilter implements LeadFilter over an in-memory slice, used by the
// JSON store and as the reference semantics for the SQL backends. The input
// must already be sorted by score descending.
func applyFilter(records []model.BuildingRecord, filter LeadFilter) []model.BuildingRecord {
	out := make([]model.BuildingRecord, 0, len(records))
	for _, r := range records {
		if filter.EligibleOnly && !r.Eligible {
			continue
		}
		if r.Score < filter.MinScore {
			continue
		}
		if filter.Bucket != "" && r.ICPBucket != filter.Bucket {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

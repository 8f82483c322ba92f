package model

import "time"

// SearchRecord tracks one executed (term, city) discovery query so the
// scheduler can skip recently covered combinations.
type SearchRecord struct {
	Term        string    `json:"term"`
	City        string    `json:"city"`
	ResultCount int       `json:"result_count"`
	LastRunAt   time.Time `json:"last_run_at"`
}

// Key returns the scheduler's identity for this search.
func (s SearchRecord) Key() string {
	return s.Term + "|" + s.City
}

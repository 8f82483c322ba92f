package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-leads/internal/model"
)

// JSONStore keeps records in memory and flushes the full set to a single
// JSON file on every write. Suited to demo-scale batches, not concurrency
// across processes.
type JSONStore struct {
	path string

	mu       sync.RWMutex
	records  map[string]model.BuildingRecord
	order    []string // insertion order, stable across save/load
	searches map[string]model.SearchRecord
}

// jsonDocument is the on-disk shape.
type jsonDocument struct {
	Records  []model.BuildingRecord `json:"records"`
	Searches []model.SearchRecord   `json:"searches,omitempty"`
}

// NewJSON opens a JSON store at path, loading existing contents if present.
func NewJSON(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:     path,
		records:  make(map[string]model.BuildingRecord),
		searches: make(map[string]model.SearchRecord),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "json store: read file")
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "json store: parse file")
	}
	for _, r := range doc.Records {
		s.records[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	for _, sr := range doc.Searches {
		s.searches[sr.Key()] = sr
	}
	return s, nil
}

func (s *JSONStore) UpsertRecords(_ context.Context, records []model.BuildingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if _, exists := s.records[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	return s.flushLocked()
}

func (s *JSONStore) DeleteRecords(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(s.records, id)
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return s.flushLocked()
}

func (s *JSONStore) GetRecord(_ context.Context, id string) (*model.BuildingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *JSONStore) ListRecords(_ context.Context) ([]model.BuildingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.BuildingRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *JSONStore) QualifiedLeads(ctx context.Context, filter LeadFilter) ([]model.BuildingRecord, error) {
	records, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	return applyFilter(records, filter), nil
}

func (s *JSONStore) GetSearch(_ context.Context, term, city string) (*model.SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.searches[model.SearchRecord{Term: term, City: city}.Key()]
	if !ok {
		return nil, nil
	}
	return &sr, nil
}

func (s *JSONStore) RecordSearch(_ context.Context, search model.SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches[search.Key()] = search
	return s.flushLocked()
}

// Migrate is a no-op for the file backend.
func (s *JSONStore) Migrate(context.Context) error { return nil }

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked writes the document atomically via a temp file rename.
// Callers must hold s.mu.
func (s *JSONStore) flushLocked() error {
	doc := jsonDocument{
		Records: make([]model.BuildingRecord, 0, len(s.order)),
	}
	for _, id := range s.order {
		doc.Records = append(doc.Records, s.records[id])
	}
	for _, sr := range s.searches {
		doc.Searches = append(doc.Searches, sr)
	}
	sort.Slice(doc.Searches, func(i, j int) bool {
		return doc.Searches[i].Key() < doc.Searches[j].Key()
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "json store: marshal")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".leads-*.json")
	if err != nil {
		return eris.Wrap(err, "json store: create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "json store: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "json store: close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "json store: rename temp file")
	}
	return nil
}

package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"goanova/domain/core"
	"goanova/domain/table"
	"goanova/internal/errors"
	"goanova/ports"
)

// Store is a process-local ports.TableStore: a single shared namespace with
// no persistence. Tables are cloned on the way in and out, so a stored
// snapshot can only change through Replace.
type Store struct {
	mu      sync.RWMutex
	entries map[core.TableID]*entry
}

type entry struct {
	info ports.TableInfo
	tbl  table.Table
}

var _ ports.TableStore = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{entries: make(map[core.TableID]*entry)}
}

// Put registers a new table under a fresh ID
func (s *Store) Put(ctx context.Context, name string, tbl table.Table) (core.TableID, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.InvalidInput("table name is required")
	}
	if err := tbl.Validate(); err != nil {
		return "", errors.Newf(errors.CodeInvalidInput, "invalid table: %v", err)
	}

	id := core.TableID(core.NewID())
	now := core.Now()
	stored := tbl.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry{
		info: ports.TableInfo{
			ID:        id,
			Name:      name,
			Rows:      stored.NumRows(),
			Cols:      stored.NumCols(),
			Hash:      stored.Fingerprint(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		tbl: stored,
	}
	return id, nil
}

// Get returns a snapshot of the stored table
func (s *Store) Get(ctx context.Context, id core.TableID) (table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return table.Table{}, errors.TableNotFound(id.String())
	}
	return e.tbl.Clone(), nil
}

// Replace swaps the stored table for an existing ID, keeping its identity
// and creation time
func (s *Store) Replace(ctx context.Context, id core.TableID, tbl table.Table) error {
	if err := tbl.Validate(); err != nil {
		return errors.Newf(errors.CodeInvalidInput, "invalid table: %v", err)
	}
	stored := tbl.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return errors.TableNotFound(id.String())
	}
	e.tbl = stored
	e.info.Rows = stored.NumRows()
	e.info.Cols = stored.NumCols()
	e.info.Hash = stored.Fingerprint()
	e.info.UpdatedAt = core.Now()
	return nil
}

// List returns the stored table infos in creation order. IDs are UUIDv7, so
// sorting by ID sorts by creation time.
func (s *Store) List(ctx context.Context) ([]ports.TableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.TableInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a table
func (s *Store) Delete(ctx context.Context, id core.TableID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return errors.TableNotFound(id.String())
	}
	delete(s.entries, id)
	return nil
}

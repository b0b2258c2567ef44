// Package store holds the flat set of file records received for the active root.
package store

import (
	"fmt"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// Store is an append-only set of records keyed by path.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	byPath map[string]int
	order  []domain.FileRecord
	total  int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		byPath: make(map[string]int),
	}
}

// Insert appends a record.
// Returns domain.ErrDuplicateRecord if the path is already present.
func (s *Store) Insert(rec domain.FileRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if _, ok := s.byPath[rec.Path]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, rec.Path)
	}
	s.byPath[rec.Path] = len(s.order)
	s.order = append(s.order, rec)
	s.total += rec.Size
	return nil
}

// Contains reports whether a record with this path exists
func (s *Store) Contains(path string) bool {
	_, ok := s.byPath[path]
	return ok
}

// Get returns the record for a path
func (s *Store) Get(path string) (domain.FileRecord, bool) {
	i, ok := s.byPath[path]
	if !ok {
		return domain.FileRecord{}, false
	}
	return s.order[i], true
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.order)
}

// TotalSize returns the sum of all record sizes
func (s *Store) TotalSize() int64 {
	return s.total
}

// First returns the first record received
func (s *Store) First() (domain.FileRecord, bool) {
	if len(s.order) == 0 {
		return domain.FileRecord{}, false
	}
	return s.order[0], true
}

// Each calls fn for every record in arrival order until fn returns false
func (s *Store) Each(fn func(domain.FileRecord) bool) {
	for _, rec := range s.order {
		if !fn(rec) {
			return
		}
	}
}

// Records returns a copy of all records in arrival order
func (s *Store) Records() []domain.FileRecord {
	out := make([]domain.FileRecord, len(s.order))
	copy(out, s.order)
	return out
}

// Reset discards every record (root change)
func (s *Store) Reset() {
	s.byPath = make(map[string]int)
	s.order = nil
	s.total = 0
}

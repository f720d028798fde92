// Package metadata holds the ordered paper records that run parallel to the vector index.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hyperjump/paperindex/internal/models"
)

var (
	// ErrOutOfRange is returned by Get for a position with no record.
	ErrOutOfRange = errors.New("metadata position out of range")
	// ErrDuplicateID is returned by Append when the id is already stored.
	ErrDuplicateID = errors.New("duplicate paper id")
	// ErrEmptyID is returned by Append for a record without an id.
	ErrEmptyID = errors.New("empty paper id")
)

// Store is an ordered, append-only list of papers with an id index.
// The id index maps each id to the position of its first occurrence.
type Store struct {
	papers []models.Paper
	byID   map[string]int
	mu     sync.RWMutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		papers: make([]models.Paper, 0),
		byID:   make(map[string]int),
	}
}

// Contains reports whether a paper with id is stored.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Append adds p at the next position and returns that position.
func (s *Store) Append(p models.Paper) (int, error) {
	if p.ID == "" {
		return 0, ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	s.papers = append(s.papers, p)
	pos := len(s.papers) - 1
	s.byID[p.ID] = pos
	return pos, nil
}

// Get returns the paper at pos.
func (s *Store) Get(pos int) (models.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 0 || pos >= len(s.papers) {
		return models.Paper{}, fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, pos, len(s.papers))
	}
	return s.papers[pos], nil
}

// Find returns the paper with id and its position.
func (s *Store) Find(id string) (models.Paper, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.byID[id]
	if !ok {
		return models.Paper{}, -1, false
	}
	return s.papers[pos], pos, true
}

// Len returns the number of stored papers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.papers)
}

// All returns a copy of the papers in position order.
func (s *Store) All() []models.Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Paper, len(s.papers))
	copy(out, s.papers)
	return out
}

// Encode writes the papers as one indented JSON array.
func (s *Store) Encode(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.papers); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return nil
}

// Decode reads a JSON array of papers into a new store. Every record keeps its
// position; a repeated id is only indexed at its first position.
func Decode(r io.Reader) (*Store, error) {
	var papers []models.Paper
	if err := json.NewDecoder(r).Decode(&papers); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	s := NewStore()
	for i, p := range papers {
		s.papers = append(s.papers, p)
		if _, ok := s.byID[p.ID]; !ok {
			s.byID[p.ID] = i
		}
	}
	return s, nil
}

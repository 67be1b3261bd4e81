package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
)

// Store implements ports.ChangeLogStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]ports.Commit
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]ports.Commit),
	}
}

// Append stores changes as the next version of docID.
func (s *Store) Append(ctx context.Context, docID string, expectedVersion int, changes []history.Descriptor, message string) (ports.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.data[docID]
	if err := ports.CheckAppend(docID, len(log), expectedVersion, changes); err != nil {
		return ports.Commit{}, err
	}

	commit, err := ports.NewCommit(docID, len(log)+1, changes, message)
	if err != nil {
		return ports.Commit{}, err
	}
	s.data[docID] = append(log, commit)
	return domain.Copy(commit), nil
}

// Load returns a copy of the commits of docID so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, docID string) ([]ports.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.Commit, 0, len(s.data[docID]))
	for _, c := range s.data[docID] {
		out = append(out, domain.Copy(c))
	}
	return out, nil
}

// Version returns the number of commits of docID.
func (s *Store) Version(ctx context.Context, docID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[docID]), nil
}

// List returns the documents with commits.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]string, 0, len(s.data))
	for id := range s.data {
		docs = append(docs, id)
	}
	sort.Strings(docs)
	return docs, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Source implements ports.GraphSource over documents held in memory.
type Source struct {
	mu   sync.RWMutex
	docs map[string]ports.GraphDocument
}

// NewSource creates a source serving the given documents.
func NewSource(docs map[string]ports.GraphDocument) *Source {
	s := &Source{docs: make(map[string]ports.GraphDocument, len(docs))}
	for id, doc := range docs {
		s.docs[id] = domain.Copy(doc)
	}
	return s
}

// Put adds or replaces a document.
func (s *Source) Put(docID string, doc ports.GraphDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docID] = domain.Copy(doc)
}

// Load returns a copy of the document.
func (s *Source) Load(ctx context.Context, docID string) (ports.GraphDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return ports.GraphDocument{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docID)
	}
	return domain.Copy(doc), nil
}

// List returns all document IDs.
func (s *Source) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}

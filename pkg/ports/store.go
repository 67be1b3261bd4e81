package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/google/uuid"
)

// Commit is one saved change list. Applying the commits of a document in
// version order on top of its baseline graph reproduces the latest version.
type Commit struct {
	ID        string               `json:"id"`
	DocID     string               `json:"doc_id"`
	Version   int                  `json:"version"`
	Message   string               `json:"message"`
	Changes   []history.Descriptor `json:"changes"`
	CreatedAt time.Time            `json:"created_at"`
}

// ChangeLogStore persists the change lists of documents.
// Version 0 is the baseline; the first commit creates version 1.
type ChangeLogStore interface {
	// Append stores changes as the next version of docID. expectedVersion is the
	// version the caller edited; if the document has moved on since,
	// domain.ErrVersionConflict is returned and nothing is stored.
	Append(ctx context.Context, docID string, expectedVersion int, changes []history.Descriptor, message string) (Commit, error)

	// Load returns every commit of docID in version order.
	// A document with no commits yields an empty list.
	Load(ctx context.Context, docID string) ([]Commit, error)

	// Version returns the latest version of docID (0 if never committed).
	Version(ctx context.Context, docID string) (int, error)

	// List returns the ids of all documents with at least one commit, sorted.
	List(ctx context.Context) ([]string, error)
}

// CheckAppend validates an append request against the current version.
func CheckAppend(docID string, current, expected int, changes []history.Descriptor) error {
	if expected < 0 {
		return fmt.Errorf("%w: a version must be specified when saving %s", domain.ErrInvalidVersion, docID)
	}
	if expected > current {
		return fmt.Errorf("%w: %s is at version %d, cannot save from version %d", domain.ErrInvalidVersion, docID, current, expected)
	}
	if expected < current {
		return fmt.Errorf("%w: Trying to update version %d of %s from version %d, which is too old. Please reload the page and try again.",
			domain.ErrVersionConflict, current, docID, expected)
	}
	if len(changes) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoChanges, docID)
	}
	return nil
}

// NewCommit stamps a change list with a time-ordered id and the current time.
func NewCommit(docID string, version int, changes []history.Descriptor, message string) (Commit, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Commit{}, fmt.Errorf("failed to generate commit id: %w", err)
	}
	return Commit{
		ID:        id.String(),
		DocID:     docID,
		Version:   version,
		Message:   message,
		Changes:   domain.Copy(changes),
		CreatedAt: time.Now().UTC(),
	}, nil
}

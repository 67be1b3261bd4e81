// Package sqlite implements ports.ChangeLogStore on SQLite (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
)

//go:embed schema.sql
var schemaSQL string

// Store keeps every commit as a row of the commits table.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (and creates if needed) the database at path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores changes as the next version of docID inside one transaction.
func (s *Store) Append(ctx context.Context, docID string, expectedVersion int, changes []history.Descriptor, message string) (ports.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.Commit{}, err
	}
	defer tx.Rollback()

	current, err := version(ctx, tx, docID)
	if err != nil {
		return ports.Commit{}, err
	}
	if err := ports.CheckAppend(docID, current, expectedVersion, changes); err != nil {
		return ports.Commit{}, err
	}

	commit, err := ports.NewCommit(docID, current+1, changes, message)
	if err != nil {
		return ports.Commit{}, err
	}
	payload, err := json.Marshal(commit.Changes)
	if err != nil {
		return ports.Commit{}, fmt.Errorf("failed to marshal changes: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO commits (doc_id, version, id, message, changes, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		commit.DocID, commit.Version, commit.ID, commit.Message, string(payload), commit.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return ports.Commit{}, fmt.Errorf("failed to insert commit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return ports.Commit{}, err
	}
	return commit, nil
}

// Load returns the commits of docID ordered by version.
func (s *Store) Load(ctx context.Context, docID string) ([]ports.Commit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, version, message, changes, created_at FROM commits WHERE doc_id = ? ORDER BY version", docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commits := []ports.Commit{}
	for rows.Next() {
		var (
			c         = ports.Commit{DocID: docID}
			payload   string
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.Version, &c.Message, &payload, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &c.Changes); err != nil {
			return nil, fmt.Errorf("commit %s: failed to unmarshal changes: %w", c.ID, err)
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("commit %s: %w", c.ID, err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// Version returns the latest version of docID.
func (s *Store) Version(ctx context.Context, docID string) (int, error) {
	return version(ctx, s.db, docID)
}

// List returns the documents with commits.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT doc_id FROM commits ORDER BY doc_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		docs = append(docs, id)
	}
	return docs, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func version(ctx context.Context, q querier, docID string) (int, error) {
	var v int
	err := q.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM commits WHERE doc_id = ?", docID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to read version of %s: %w", docID, err)
	}
	return v, nil
}

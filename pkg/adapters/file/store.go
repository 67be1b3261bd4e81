package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
)

const logExt = ".jsonl"

// Store implements ports.ChangeLogStore using the local filesystem.
// Each document's commits are stored one JSON object per line in <BasePath>/<docID>.jsonl.
// Writers in one process are serialized; the log is rewritten atomically on every append.
type Store struct {
	BasePath string

	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".lattice/changes".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".lattice", "changes")
	}
	return &Store{BasePath: basePath}
}

// Append stores changes as the next version of docID.
func (s *Store) Append(ctx context.Context, docID string, expectedVersion int, changes []history.Descriptor, message string) (ports.Commit, error) {
	path, err := s.path(docID)
	if err != nil {
		return ports.Commit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	commits, err := readLog(path)
	if err != nil {
		return ports.Commit{}, err
	}
	if err := ports.CheckAppend(docID, len(commits), expectedVersion, changes); err != nil {
		return ports.Commit{}, err
	}

	commit, err := ports.NewCommit(docID, len(commits)+1, changes, message)
	if err != nil {
		return ports.Commit{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range append(commits, commit) {
		if err := enc.Encode(c); err != nil {
			return ports.Commit{}, fmt.Errorf("failed to marshal commit: %w", err)
		}
	}
	if err := writeAtomic(s.BasePath, path, buf.Bytes()); err != nil {
		return ports.Commit{}, err
	}
	return commit, nil
}

// Load reads the commits of docID.
func (s *Store) Load(ctx context.Context, docID string) ([]ports.Commit, error) {
	path, err := s.path(docID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return readLog(path)
}

// Version returns the number of commits of docID.
func (s *Store) Version(ctx context.Context, docID string) (int, error) {
	commits, err := s.Load(ctx, docID)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}

// List returns all documents with a change log.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list change logs: %w", err)
	}

	docs := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == logExt {
			docs = append(docs, strings.TrimSuffix(entry.Name(), logExt))
		}
	}
	sort.Strings(docs)
	return docs, nil
}

func (s *Store) path(docID string) (string, error) {
	if err := validateDocID(docID); err != nil {
		return "", err
	}
	return filepath.Join(s.BasePath, docID+logExt), nil
}

func validateDocID(docID string) error {
	if docID == "" {
		return fmt.Errorf("docID cannot be empty")
	}
	if strings.ContainsAny(docID, `/\`) || docID == "." || docID == ".." {
		return fmt.Errorf("invalid docID %q", docID)
	}
	return nil
}

func readLog(path string) ([]ports.Commit, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ports.Commit{}, nil
		}
		return nil, fmt.Errorf("failed to open change log: %w", err)
	}
	defer f.Close()

	commits := []ports.Commit{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var c ports.Commit
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal commit at %s:%d: %w", path, line, err)
		}
		commits = append(commits, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}
	return commits, nil
}

// writeAtomic writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func writeAtomic(dir, destPath string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure change log directory: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing change log for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to change log: %w", err)
	}
	return nil
}

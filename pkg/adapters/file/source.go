package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"gopkg.in/yaml.v3"
)

var sourceExts = []string{".yaml", ".yml", ".json"}

// Source implements ports.GraphSource over a directory of graph files.
// A document named "intro" is read from intro.yaml, intro.yml or intro.json.
type Source struct {
	Dir string
}

// NewSource creates a source reading from dir.
func NewSource(dir string) *Source {
	return &Source{Dir: dir}
}

// Load parses the document file.
func (s *Source) Load(ctx context.Context, docID string) (ports.GraphDocument, error) {
	if err := validateDocID(docID); err != nil {
		return ports.GraphDocument{}, err
	}
	for _, ext := range sourceExts {
		path := filepath.Join(s.Dir, docID+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return ports.GraphDocument{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return ParseDocument(path, data)
	}
	return ports.GraphDocument{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docID)
}

// List returns the documents in the directory.
func (s *Source) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list graph files: %w", err)
	}

	seen := make(map[string]bool)
	docs := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !slices.Contains(sourceExts, ext) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if !seen[id] {
			seen[id] = true
			docs = append(docs, id)
		}
	}
	sort.Strings(docs)
	return docs, nil
}

// ParseDocument decodes a graph file; the format is chosen by extension.
func ParseDocument(path string, data []byte) (ports.GraphDocument, error) {
	var doc ports.GraphDocument
	var err error
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return ports.GraphDocument{}, fmt.Errorf("%w: %s: %w", domain.ErrMalformedStateData, path, err)
	}
	if doc.States == nil {
		doc.States = map[string]any{}
	}
	return doc, nil
}

package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/loam"
)

// Source adapts a Loam repository to ports.GraphSource.
// Each document is a directory and each state a file inside it, so the
// state "Start" of document "intro" lives in intro/Start.md.
type Source struct {
	Repo *loam.TypedRepository[StateMetadata]
}

// New creates a new Loam source.
func New(repo *loam.TypedRepository[StateMetadata]) *Source {
	return &Source{
		Repo: repo,
	}
}

type entry struct {
	path  string
	state string
	meta  StateMetadata
	body  string
}

// Load assembles the state dicts of docID from its files.
func (s *Source) Load(ctx context.Context, docID string) (ports.GraphDocument, error) {
	byDoc, err := s.scan(ctx)
	if err != nil {
		return ports.GraphDocument{}, err
	}
	entries, ok := byDoc[docID]
	if !ok {
		return ports.GraphDocument{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docID)
	}

	doc := ports.GraphDocument{States: make(map[string]any, len(entries))}
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		// Collision Detection
		if existing, ok := seen[e.state]; ok {
			return ports.GraphDocument{}, fmt.Errorf("%w: state %q is defined in both '%s' and '%s'",
				domain.ErrMalformedStateData, e.state, existing, e.path)
		}
		seen[e.state] = e.path

		if e.meta.Init {
			if doc.InitStateName != "" {
				return ports.GraphDocument{}, fmt.Errorf("%w: %s: both %q and %q are marked init",
					domain.ErrMalformedStateData, docID, doc.InitStateName, e.state)
			}
			doc.InitStateName = e.state
		}
		doc.States[e.state] = stateDict(e.meta, e.body)
	}
	return doc, nil
}

// List returns the document directories in the repository.
func (s *Source) List(ctx context.Context) ([]string, error) {
	byDoc, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(byDoc))
	for id := range byDoc {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Source) scan(ctx context.Context) (map[string][]entry, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	byDoc := make(map[string][]entry)
	for _, doc := range docs {
		docID, state, ok := splitID(doc.ID)
		if !ok {
			continue
		}
		if doc.Data.Name != "" {
			state = doc.Data.Name
		}
		byDoc[docID] = append(byDoc[docID], entry{
			path:  doc.ID,
			state: state,
			meta:  doc.Data,
			body:  doc.Content,
		})
	}
	for _, entries := range byDoc {
		sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	}
	return byDoc, nil
}

// splitID maps "intro/Start.md" to ("intro", "Start").
// Files outside a document directory are ignored.
func splitID(id string) (docID, state string, ok bool) {
	id = trimExtension(id)
	docID, state, ok = strings.Cut(id, "/")
	if !ok || docID == "" || state == "" || strings.Contains(state, "/") {
		return "", "", false
	}
	return docID, state, true
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func stateDict(meta StateMetadata, body string) map[string]any {
	audio := meta.AudioTranslations
	if audio == nil {
		audio = map[string]any{}
	}
	interaction := meta.Interaction
	if interaction == nil {
		interaction = map[string]any{
			"id":                 "",
			"customization_args": map[string]any{},
			"answer_groups":      []any{},
			"default_outcome":    nil,
			"fallbacks":          []any{},
		}
	}
	paramChanges := meta.ParamChanges
	if paramChanges == nil {
		paramChanges = []any{}
	}
	var classifier any
	if meta.ClassifierModelID != nil {
		classifier = *meta.ClassifierModelID
	}
	return map[string]any{
		"content": map[string]any{
			"html":               strings.TrimSpace(body),
			"audio_translations": audio,
		},
		"interaction":         interaction,
		"param_changes":       paramChanges,
		"classifier_model_id": classifier,
	}
}

package lattice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/analyzer"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
)

// ErrNoStore is returned by Commit when the editor has no change log.
var ErrNoStore = errors.New("no change log configured")

// Editor is the high-level entry point for editing one document.
// It owns the graph, its history and the link to the change log.
// It is not safe for concurrent use; see session.Manager for shared access.
type Editor struct {
	docID   string
	graph   *graph.Graph
	history *history.History[*graph.Graph]
	version int
	// baseline is the graph as of the last load or commit.
	baseline map[string]domain.State

	store     ports.ChangeLogStore
	analyzers *analyzer.Registry
	logger    *slog.Logger
	hooks     history.Hooks
	graphOpts []graph.Option
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithStore sets the change log used by Open and Commit.
func WithStore(store ports.ChangeLogStore) Option {
	return func(e *Editor) {
		e.store = store
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHooks registers command observability hooks.
func WithHooks(hooks history.Hooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithDeletePolicy sets how deletes repair outcomes pointing at the deleted state.
func WithDeletePolicy(p graph.DeletePolicy) Option {
	return func(e *Editor) {
		e.graphOpts = append(e.graphOpts, graph.WithDeletePolicy(p))
	}
}

// WithInteractions sets the interaction registry states are validated against.
func WithInteractions(r *registry.Registry) Option {
	return func(e *Editor) {
		e.graphOpts = append(e.graphOpts, graph.WithRegistry(r))
	}
}

// WithTemplate sets the provider of states created by AddState.
func WithTemplate(t graph.TemplateProvider) Option {
	return func(e *Editor) {
		e.graphOpts = append(e.graphOpts, graph.WithTemplate(t))
	}
}

// WithAnalyzers replaces the rule analyzers used by Warnings.
func WithAnalyzers(r *analyzer.Registry) Option {
	return func(e *Editor) {
		e.analyzers = r
	}
}

// New starts editing doc as version 0 of docID.
func New(docID string, doc ports.GraphDocument, opts ...Option) (*Editor, error) {
	e := &Editor{docID: docID}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.analyzers == nil {
		e.analyzers = analyzer.Default()
	}
	e.logger = e.logger.With("doc", docID)

	graphOpts := append([]graph.Option{}, e.graphOpts...)
	if doc.InitStateName != "" {
		graphOpts = append(graphOpts, graph.WithInitState(doc.InitStateName))
	}
	g, err := graph.FromDict(doc.States, graphOpts...)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", docID, err)
	}

	e.graph = g
	e.history = history.New[*graph.Graph](history.WithLogger(e.logger), history.WithHooks(e.hooks))
	e.baseline = g.States()
	return e, nil
}

// Open loads the baseline of docID from src and replays its committed change
// lists from the store, so the editor starts at the latest version.
func Open(ctx context.Context, docID string, src ports.GraphSource, opts ...Option) (*Editor, error) {
	doc, err := src.Load(ctx, docID)
	if err != nil {
		return nil, err
	}
	e, err := New(docID, doc, opts...)
	if err != nil {
		return nil, err
	}
	if e.store == nil {
		return e, nil
	}

	commits, err := e.store.Load(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load change log of %s: %w", docID, err)
	}
	for _, c := range commits {
		if err := e.replay(c.Changes); err != nil {
			return nil, fmt.Errorf("document %s version %d: %w", docID, c.Version, err)
		}
		e.version = c.Version
	}
	e.baseline = e.graph.States()
	e.logger.Debug("document opened", "version", e.version, "commits", len(commits))
	return e, nil
}

// replay applies committed changes without recording them.
func (e *Editor) replay(changes []history.Descriptor) error {
	for i, d := range changes {
		c, err := graph.ChangeFromDescriptor(e.graph, d)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		if err := c.Forward(e.graph, c.Params); err != nil {
			return fmt.Errorf("change %d (%s): %w", i, c.Cmd, err)
		}
	}
	return nil
}

func (e *Editor) DocID() string { return e.docID }

// Version is the committed version the editor builds on.
func (e *Editor) Version() int { return e.version }

// InitState returns the entry state of the document.
func (e *Editor) InitState() string { return e.graph.InitState() }

// AddState creates a state from the template.
func (e *Editor) AddState(name string) error {
	return e.Apply(graph.NewAddStateChange(name))
}

// RenameState renames a state and every outcome pointing at it.
func (e *Editor) RenameState(oldName, newName string) error {
	return e.Apply(graph.NewRenameStateChange(oldName, newName))
}

// DeleteState removes a state and repairs the outcomes pointing at it.
func (e *Editor) DeleteState(name string) error {
	c, err := graph.NewDeleteStateChange(e.graph, name)
	if err != nil {
		return err
	}
	return e.Apply(c)
}

// EditStateProperty sets one property of a state. newValue may be the typed
// value or its decoded JSON form.
func (e *Editor) EditStateProperty(stateName, propertyName string, newValue any) error {
	c, err := graph.NewEditStatePropertyChange(e.graph, stateName, propertyName, newValue)
	if err != nil {
		return err
	}
	return e.Apply(c)
}

// Apply executes c and records it for undo.
func (e *Editor) Apply(c graph.Change) error {
	return e.history.Apply(e.graph, c)
}

// ApplyDescriptors replays serialized changes, e.g. a change list posted by a
// client. Either all of them apply or none do.
func (e *Editor) ApplyDescriptors(descriptors []history.Descriptor) error {
	cp := e.history.Checkpoint()
	for i, d := range descriptors {
		c, err := graph.ChangeFromDescriptor(e.graph, d)
		if err == nil {
			err = e.history.Apply(e.graph, c)
		}
		if err != nil {
			if rerr := e.history.Rollback(e.graph, cp); rerr != nil {
				return fmt.Errorf("change %d: %w (rollback failed: %w)", i, err, rerr)
			}
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

func (e *Editor) Undo() error { return e.history.Undo(e.graph) }
func (e *Editor) Redo() error { return e.history.Redo(e.graph) }

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// State returns a copy of one state.
func (e *Editor) State(name string) (domain.State, error) {
	return e.graph.State(name)
}

// States returns a copy of every state.
func (e *Editor) States() map[string]domain.State {
	return e.graph.States()
}

// Names returns the state names, sorted.
func (e *Editor) Names() []string {
	return e.graph.Names()
}

// ToDict serializes the current graph.
func (e *Editor) ToDict() map[string]any {
	return e.graph.ToDict()
}

// Document returns the current graph as a baseline document.
func (e *Editor) Document() ports.GraphDocument {
	return ports.GraphDocument{InitStateName: e.graph.InitState(), States: e.graph.ToDict()}
}

// ChangeList returns the descriptors of the unsaved applied changes.
func (e *Editor) ChangeList() []history.Descriptor {
	return e.history.AppliedChanges()
}

func (e *Editor) HasUnsavedChanges() bool {
	return e.history.HasUnsavedChanges()
}

// Diff reports which states differ from the last committed version.
func (e *Editor) Diff() *domain.GraphDiff {
	return domain.Diff(e.baseline, e.graph.States())
}

// Warnings runs the analyzer of the state's interaction.
func (e *Editor) Warnings(stateName string) ([]analyzer.Warning, error) {
	st, err := e.graph.State(stateName)
	if err != nil {
		return nil, err
	}
	return e.analyzers.Analyze(stateName, st.Interaction), nil
}

// AllWarnings returns the warnings of every state that has any.
func (e *Editor) AllWarnings() map[string][]analyzer.Warning {
	out := make(map[string][]analyzer.Warning)
	for name, st := range e.graph.States() {
		if w := e.analyzers.Analyze(name, st.Interaction); len(w) > 0 {
			out[name] = w
		}
	}
	return out
}

// Validate checks referential integrity of the whole graph.
func (e *Editor) Validate() error {
	return graph.CheckIntegrity(e.graph.States())
}

// Unreachable lists states that cannot be reached from the initial state.
func (e *Editor) Unreachable() []string {
	return e.graph.Unreachable()
}

// Mermaid renders the graph, highlighting states with warnings and, if
// current is set, the state being edited.
func (e *Editor) Mermaid(current string) string {
	overlay := &graph.Overlay{Current: current}
	warnings := e.AllWarnings()
	for _, name := range e.graph.Names() {
		if _, ok := warnings[name]; ok {
			overlay.Flagged = append(overlay.Flagged, name)
		}
	}
	return e.graph.Mermaid(overlay)
}

// Commit saves the unsaved changes as the next version of the document.
// On success the history is cleared and the changes become part of the baseline.
func (e *Editor) Commit(ctx context.Context, message string) (ports.Commit, error) {
	if e.store == nil {
		return ports.Commit{}, fmt.Errorf("%w: %s", ErrNoStore, e.docID)
	}
	commit, err := e.store.Append(ctx, e.docID, e.version, e.ChangeList(), message)
	if err != nil {
		return ports.Commit{}, err
	}
	e.version = commit.Version
	e.history.MarkSaved()
	e.baseline = e.graph.States()
	e.logger.Info("document committed", "version", commit.Version, "changes", len(commit.Changes), "commit", commit.ID)
	return commit, nil
}

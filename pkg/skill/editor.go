package skill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
)

// Editor owns one skill and its undo/redo history.
// It is not safe for concurrent use.
type Editor struct {
	skill   *Skill
	history *history.History[*Skill]
	store   ports.ChangeLogStore
	logger  *slog.Logger
}

// Option configures an Editor.
type Option func(*editorOptions)

type editorOptions struct {
	store  ports.ChangeLogStore
	logger *slog.Logger
	hooks  history.Hooks
}

// WithStore sets the change log used by Commit.
func WithStore(store ports.ChangeLogStore) Option {
	return func(o *editorOptions) { o.store = store }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *editorOptions) { o.logger = logger }
}

// WithHooks registers command hooks.
func WithHooks(h history.Hooks) Option {
	return func(o *editorOptions) { o.hooks = h }
}

// NewEditor starts editing a copy of s.
func NewEditor(s *Skill, opts ...Option) *Editor {
	o := editorOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("doc", DocID(s.ID))
	return &Editor{
		skill:   s.Clone(),
		history: history.New[*Skill](history.WithLogger(logger), history.WithHooks(o.hooks)),
		store:   o.store,
		logger:  logger,
	}
}

// Open replays the committed change lists of the skill on top of baseline.
func Open(ctx context.Context, baseline *Skill, opts ...Option) (*Editor, error) {
	e := NewEditor(baseline, opts...)
	if e.store == nil {
		return e, nil
	}
	commits, err := e.store.Load(ctx, DocID(baseline.ID))
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		for i, d := range c.Changes {
			change, err := ChangeFromDescriptor(e.skill, d)
			if err != nil {
				return nil, fmt.Errorf("version %d change %d: %w", c.Version, i, err)
			}
			if err := change.Forward(e.skill, change.Params); err != nil {
				return nil, fmt.Errorf("version %d change %d: %w", c.Version, i, err)
			}
		}
		e.skill.Version = c.Version
	}
	return e, nil
}

// DocID is the change-log document id of a skill.
func DocID(skillID string) string {
	return "skill-" + skillID
}

// Skill returns a copy of the edited skill.
func (e *Editor) Skill() *Skill {
	return e.skill.Clone()
}

// Apply executes c and records it for undo.
func (e *Editor) Apply(c Change) error {
	return e.history.Apply(e.skill, c)
}

// ApplyDescriptors replays serialized changes. Either all of them apply or none do.
func (e *Editor) ApplyDescriptors(descriptors []history.Descriptor) error {
	cp := e.history.Checkpoint()
	for i, d := range descriptors {
		c, err := ChangeFromDescriptor(e.skill, d)
		if err == nil {
			err = e.history.Apply(e.skill, c)
		}
		if err != nil {
			if rerr := e.history.Rollback(e.skill, cp); rerr != nil {
				return fmt.Errorf("change %d: %w (rollback failed: %w)", i, err, rerr)
			}
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

func (e *Editor) Undo() error { return e.history.Undo(e.skill) }
func (e *Editor) Redo() error { return e.history.Redo(e.skill) }

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// ChangeList returns the descriptors of the unsaved applied changes.
func (e *Editor) ChangeList() []history.Descriptor {
	return e.history.AppliedChanges()
}

func (e *Editor) HasUnsavedChanges() bool {
	return e.history.HasUnsavedChanges()
}

// Commit saves the unsaved changes as the next version of the skill.
func (e *Editor) Commit(ctx context.Context, message string) (ports.Commit, error) {
	if e.store == nil {
		return ports.Commit{}, fmt.Errorf("skill %s: no change log configured", e.skill.ID)
	}
	commit, err := e.store.Append(ctx, DocID(e.skill.ID), e.skill.Version, e.ChangeList(), message)
	if err != nil {
		return ports.Commit{}, err
	}
	e.skill.Version = commit.Version
	e.history.MarkSaved()
	e.logger.Info("skill committed", "version", commit.Version, "changes", len(commit.Changes))
	return commit, nil
}

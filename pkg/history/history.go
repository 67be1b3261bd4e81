package history

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
)

// Action names the direction a change was executed in.
type Action string

const (
	ActionApply Action = "apply"
	ActionUndo  Action = "undo"
	ActionRedo  Action = "redo"
)

// Event describes one execution of a change.
type Event struct {
	Action Action
	Cmd    string
	Err    error
}

// Hooks defines callbacks for command observability.
type Hooks struct {
	OnCommand func(Event)
}

// History is an ordered list of changes plus a cursor splitting it into an
// applied prefix and an undone suffix.
// It is not safe for concurrent use; one editing session owns it.
type History[A any] struct {
	records []Change[A]
	cursor  int

	hooks  Hooks
	logger *slog.Logger
}

// Option configures a History.
type Option func(*options)

type options struct {
	hooks  Hooks
	logger *slog.Logger
}

// WithHooks registers observability hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an empty history.
func New[A any](opts ...Option) *History[A] {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &History[A]{hooks: o.hooks, logger: o.logger}
}

// Apply runs the forward operation of c against agg and records it.
// Any undone suffix is discarded. If the forward operation fails nothing is
// recorded and the cursor does not move.
func (h *History[A]) Apply(agg A, c Change[A]) error {
	if c.Forward == nil || c.Reverse == nil {
		return fmt.Errorf("%w: change %q is missing an operation", domain.ErrUnknownCommand, c.Cmd)
	}
	if err := c.Forward(agg, domain.Copy(c.Params)); err != nil {
		h.observe(ActionApply, c.Cmd, err)
		return err
	}

	h.records = append(h.records[:h.cursor], c)
	h.cursor++
	h.observe(ActionApply, c.Cmd, nil)
	return nil
}

// Undo reverses the change immediately before the cursor.
func (h *History[A]) Undo(agg A) error {
	if h.cursor == 0 {
		return domain.ErrNothingToUndo
	}
	c := h.records[h.cursor-1]
	if err := c.Reverse(agg, domain.Copy(c.Params)); err != nil {
		h.observe(ActionUndo, c.Cmd, err)
		return fmt.Errorf("undo %s: %w", c.Cmd, err)
	}
	h.cursor--
	h.observe(ActionUndo, c.Cmd, nil)
	return nil
}

// Redo replays the change at the cursor.
func (h *History[A]) Redo(agg A) error {
	if h.cursor == len(h.records) {
		return domain.ErrNothingToRedo
	}
	c := h.records[h.cursor]
	if err := c.Forward(agg, domain.Copy(c.Params)); err != nil {
		h.observe(ActionRedo, c.Cmd, err)
		return fmt.Errorf("redo %s: %w", c.Cmd, err)
	}
	h.cursor++
	h.observe(ActionRedo, c.Cmd, nil)
	return nil
}

// AppliedChanges returns the descriptors of the applied prefix, in application order.
func (h *History[A]) AppliedChanges() []Descriptor {
	out := make([]Descriptor, 0, h.cursor)
	for _, c := range h.records[:h.cursor] {
		out = append(out, c.Descriptor())
	}
	return out
}

// HasUnsavedChanges reports whether any change has been applied since the last MarkSaved.
func (h *History[A]) HasUnsavedChanges() bool {
	return h.cursor > 0
}

// MarkSaved records a save checkpoint. The saved changes become part of the
// document's baseline: they are dropped from the history and can no longer be undone.
func (h *History[A]) MarkSaved() {
	h.records = nil
	h.cursor = 0
}

// Checkpoint is a snapshot of a history taken before a batch of applies.
type Checkpoint[A any] struct {
	records []Change[A]
	cursor  int
}

// Checkpoint captures the records and cursor, including the undone suffix
// that the next Apply would discard.
func (h *History[A]) Checkpoint() Checkpoint[A] {
	return Checkpoint[A]{records: slices.Clone(h.records), cursor: h.cursor}
}

// Rollback reverses every change applied since cp and restores the history
// exactly as it was, undone suffix included. The rolled back changes are not
// reported to hooks and cannot be redone.
func (h *History[A]) Rollback(agg A, cp Checkpoint[A]) error {
	for h.cursor > cp.cursor {
		c := h.records[h.cursor-1]
		if err := c.Reverse(agg, domain.Copy(c.Params)); err != nil {
			return fmt.Errorf("rollback %s: %w", c.Cmd, err)
		}
		h.cursor--
		h.logger.Debug("command rolled back", "cmd", c.Cmd)
	}
	h.records = cp.records
	h.cursor = cp.cursor
	return nil
}

func (h *History[A]) CanUndo() bool { return h.cursor > 0 }
func (h *History[A]) CanRedo() bool { return h.cursor < len(h.records) }

// Len returns the number of recorded changes, applied and undone.
func (h *History[A]) Len() int { return len(h.records) }

func (h *History[A]) observe(action Action, cmd string, err error) {
	if err != nil {
		h.logger.Debug("command failed", "action", action, "cmd", cmd, "err", err)
	} else {
		h.logger.Debug("command executed", "action", action, "cmd", cmd)
	}
	if h.hooks.OnCommand != nil {
		h.hooks.OnCommand(Event{Action: action, Cmd: cmd, Err: err})
	}
}

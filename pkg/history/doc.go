/*
Package history implements the command engine: an apply/undo/redo stack of
reversible changes over any aggregate.

A Change pairs a data-only Descriptor (command tag plus parameters) with two
operations, Forward and Reverse, that are pure functions of (aggregate, params).
Both operations receive the same parameters the Descriptor exports, so the
serialized change list can never drift from what was executed.

	h := history.New[*graph.Graph]()
	if err := h.Apply(g, graph.NewRenameStateChange("Intro", "Welcome")); err != nil {
	    return err
	}
	_ = h.Undo(g)
	_ = h.Redo(g)
	changes := h.AppliedChanges() // []Descriptor, ready for a change log

A History holds no aggregate. Callers own both and pass the aggregate explicitly,
so several documents can be edited in one process without sharing state.
*/
package history

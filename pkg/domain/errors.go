package domain

import "errors"

// ErrUnknownState is returned when a state name does not exist in the graph.
var ErrUnknownState = errors.New("unknown state")

// ErrDuplicateStateName is returned when adding or renaming onto an existing name.
var ErrDuplicateStateName = errors.New("duplicate state name")

// ErrInvalidStateName is returned for empty or reserved state names.
var ErrInvalidStateName = errors.New("invalid state name")

// ErrMalformedStateData is returned when a serialized state cannot be decoded.
var ErrMalformedStateData = errors.New("malformed state data")

// ErrHasIncomingReferences is returned by the reject-on-delete policy while other
// states still point at the state being deleted.
var ErrHasIncomingReferences = errors.New("state has incoming references")

// ErrInitialState is returned when deleting the initial state of a graph.
var ErrInitialState = errors.New("cannot delete the initial state")

// ErrUnknownInteraction is returned when an interaction id is not registered.
var ErrUnknownInteraction = errors.New("unknown interaction")

// ErrUnknownProperty is returned when editing a property that does not exist.
var ErrUnknownProperty = errors.New("unknown property")

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ErrUnknownCommand is returned when replaying a descriptor with an unsupported cmd.
var ErrUnknownCommand = errors.New("unknown command")

// ErrVersionConflict is returned when a change list targets a stale document version.
var ErrVersionConflict = errors.New("version conflict")

// ErrInvalidVersion is returned when a commit does not carry a usable version.
var ErrInvalidVersion = errors.New("invalid version")

// ErrNoChanges is returned when committing an empty change list.
var ErrNoChanges = errors.New("no changes to commit")

// ErrDocumentNotFound is returned when a graph source or change log has no such document.
var ErrDocumentNotFound = errors.New("document not found")

// ErrInvalidValue is returned when a property value fails validation.
var ErrInvalidValue = errors.New("invalid value")

// ErrUnknownMisconception is returned when a misconception id does not exist in a skill.
var ErrUnknownMisconception = errors.New("unknown misconception")

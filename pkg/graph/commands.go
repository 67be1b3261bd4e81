package graph

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/property"
)

// Command tags of graph changes.
const (
	CmdAddState          = "add_state"
	CmdRenameState       = "rename_state"
	CmdDeleteState       = "delete_state"
	CmdEditStateProperty = "edit_state_property"
)

// Descriptor parameter keys.
const (
	KeyStateName    = "state_name"
	KeyOldStateName = "old_state_name"
	KeyNewStateName = "new_state_name"
	KeyOldState     = "old_state"
	KeyIncoming     = "incoming"
)

// Editable state properties.
const (
	PropContent                 = "content"
	PropWidgetID                = "widget_id"
	PropWidgetCustomizationArgs = "widget_customization_args"
	PropAnswerGroups            = "answer_groups"
	PropDefaultOutcome          = "default_outcome"
	PropFallbacks               = "fallbacks"
	PropParamChanges            = "param_changes"
	PropClassifierModelID       = "classifier_model_id"
)

// Change is a reversible graph mutation.
type Change = history.Change[*Graph]

// NewAddStateChange adds a template state; undo removes it again.
func NewAddStateChange(name string) Change {
	return history.NewChange(CmdAddState, history.Params{KeyStateName: name},
		func(g *Graph, p history.Params) error {
			name, err := p.String(KeyStateName)
			if err != nil {
				return err
			}
			return g.AddState(name)
		},
		func(g *Graph, p history.Params) error {
			name, err := p.String(KeyStateName)
			if err != nil {
				return err
			}
			return g.removeState(name)
		},
	)
}

// NewRenameStateChange renames a state; undo renames it back.
func NewRenameStateChange(oldName, newName string) Change {
	return history.NewChange(CmdRenameState, history.Params{KeyOldStateName: oldName, KeyNewStateName: newName},
		func(g *Graph, p history.Params) error {
			return renameWith(g, p, KeyOldStateName, KeyNewStateName)
		},
		func(g *Graph, p history.Params) error {
			return renameWith(g, p, KeyNewStateName, KeyOldStateName)
		},
	)
}

func renameWith(g *Graph, p history.Params, fromKey, toKey string) error {
	from, err := p.String(fromKey)
	if err != nil {
		return err
	}
	to, err := p.String(toKey)
	if err != nil {
		return err
	}
	return g.RenameState(from, to)
}

// NewDeleteStateChange captures the state and the outcomes pointing at it so
// undo can restore both. The capture reflects g at construction time.
func NewDeleteStateChange(g *Graph, name string) (Change, error) {
	st, ok := g.states[name]
	if !ok {
		return Change{}, g.unknownState(name)
	}

	params := history.Params{
		KeyStateName: name,
		KeyOldState:  StateToDict(st),
		KeyIncoming:  g.IncomingReferences(name),
	}
	return history.NewChange(CmdDeleteState, params,
		func(g *Graph, p history.Params) error {
			name, err := p.String(KeyStateName)
			if err != nil {
				return err
			}
			return g.DeleteState(name)
		},
		func(g *Graph, p history.Params) error {
			name, err := p.String(KeyStateName)
			if err != nil {
				return err
			}
			st, err := decodeState(name, p[KeyOldState])
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrMalformedStateData, err)
			}
			refs, err := coerce[[]domain.OutcomeRef](p[KeyIncoming])
			if err != nil {
				return err
			}
			return g.restoreState(st, refs)
		},
	), nil
}

// NewEditStatePropertyChange sets one property of a state. newValue may be the
// typed value or its decoded JSON form; the old value is read from g.
func NewEditStatePropertyChange(g *Graph, stateName, propertyName string, newValue any) (Change, error) {
	st, ok := g.states[stateName]
	if !ok {
		return Change{}, g.unknownState(stateName)
	}
	in := st.Interaction

	switch propertyName {
	case PropContent:
		return editChange(stateName, propertyName, newValue, st.Content, (*Graph).SetContent)
	case PropWidgetID:
		return editChange(stateName, propertyName, newValue, in.ID, (*Graph).SetInteractionID)
	case PropWidgetCustomizationArgs:
		return editChange(stateName, propertyName, newValue, in.CustomizationArgs, (*Graph).SetCustomizationArgs)
	case PropAnswerGroups:
		return editChange(stateName, propertyName, newValue, in.AnswerGroups, (*Graph).SetAnswerGroups)
	case PropDefaultOutcome:
		return editChange(stateName, propertyName, newValue, in.DefaultOutcome, (*Graph).SetDefaultOutcome)
	case PropFallbacks:
		return editChange(stateName, propertyName, newValue, in.Fallbacks, (*Graph).SetFallbacks)
	case PropParamChanges:
		return editChange(stateName, propertyName, newValue, st.ParamChanges, (*Graph).SetParamChanges)
	case PropClassifierModelID:
		return editChange(stateName, propertyName, newValue, st.ClassifierModelID, (*Graph).SetClassifierModelID)
	default:
		return Change{}, fmt.Errorf("%w: %q", domain.ErrUnknownProperty, propertyName)
	}
}

func editChange[V any](stateName, propertyName string, newValue any, oldValue V, set func(*Graph, string, V) error) (Change, error) {
	v, err := coerce[V](newValue)
	if err != nil {
		return Change{}, fmt.Errorf("%s.%s: %w", stateName, propertyName, err)
	}
	return property.NewChange[*Graph, V](CmdEditStateProperty, propertyName, v, oldValue,
		func(g *Graph, v V) error {
			return set(g, stateName, v)
		},
		property.WithParam(KeyStateName, stateName),
	), nil
}

// ChangeFromDescriptor rebuilds an executable change from its serialized
// form against the current graph. Only forward data (names and new values) is
// read from the descriptor; anything needed for undo is captured from g.
func ChangeFromDescriptor(g *Graph, d history.Descriptor) (Change, error) {
	switch d.Cmd {
	case CmdAddState:
		name, err := d.Params.String(KeyStateName)
		if err != nil {
			return Change{}, err
		}
		return NewAddStateChange(name), nil
	case CmdRenameState:
		oldName, err := d.Params.String(KeyOldStateName)
		if err != nil {
			return Change{}, err
		}
		newName, err := d.Params.String(KeyNewStateName)
		if err != nil {
			return Change{}, err
		}
		return NewRenameStateChange(oldName, newName), nil
	case CmdDeleteState:
		name, err := d.Params.String(KeyStateName)
		if err != nil {
			return Change{}, err
		}
		return NewDeleteStateChange(g, name)
	case CmdEditStateProperty:
		name, err := d.Params.String(KeyStateName)
		if err != nil {
			return Change{}, err
		}
		prop, err := d.Params.String(property.KeyPropertyName)
		if err != nil {
			return Change{}, err
		}
		return NewEditStatePropertyChange(g, name, prop, d.Params[property.KeyNewValue])
	default:
		return Change{}, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, d.Cmd)
	}
}

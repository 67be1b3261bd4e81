package skill

import (
	"fmt"
	"slices"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/property"
)

// Command tags.
const (
	CmdUpdateSkillProperty               = "update_skill_property"
	CmdUpdateSkillContentsProperty       = "update_skill_contents_property"
	CmdUpdateSkillMisconceptionsProperty = "update_skill_misconceptions_property"
	CmdAddSkillMisconception             = "add_skill_misconception"
	CmdDeleteSkillMisconception          = "delete_skill_misconception"
)

// Property names.
const (
	PropDescription    = "description"
	PropLanguageCode   = "language_code"
	PropExplanation    = "explanation"
	PropWorkedExamples = "worked_examples"
	PropName           = "name"
	PropNotes          = "notes"
	PropFeedback       = "feedback"
)

// Descriptor keys.
const (
	KeyMisconceptionID      = "id"
	KeyNewMisconceptionDict = "new_misconception_dict"
	KeyDeletedMisconception = "misconception_id"
	KeyOldNextID            = "old_next_misconception_id"
	KeyMisconceptionIndex   = "misconception_index"
	KeyOldMisconceptionDict = "old_misconception_dict"
)

// Change is an edit of a skill.
type Change = history.Change[*Skill]

// NewUpdatePropertyChange edits description or language_code.
func NewUpdatePropertyChange(s *Skill, propertyName, newValue string) (Change, error) {
	switch propertyName {
	case PropDescription:
		return property.NewChange[*Skill, string](CmdUpdateSkillProperty, propertyName, newValue, s.Description, (*Skill).SetDescription), nil
	case PropLanguageCode:
		return property.NewChange[*Skill, string](CmdUpdateSkillProperty, propertyName, newValue, s.LanguageCode, (*Skill).SetLanguageCode), nil
	default:
		return Change{}, fmt.Errorf("%w: skill property %q", domain.ErrUnknownProperty, propertyName)
	}
}

// NewSetExplanationChange replaces the concept card explanation.
func NewSetExplanationChange(s *Skill, explanation string) Change {
	return property.NewChange[*Skill, string](CmdUpdateSkillContentsProperty, PropExplanation,
		explanation, s.ConceptCard.Explanation, (*Skill).SetExplanation)
}

// NewSetWorkedExamplesChange replaces the whole worked example list.
func NewSetWorkedExamplesChange(s *Skill, examples []string) Change {
	return property.NewChange[*Skill, []string](CmdUpdateSkillContentsProperty, PropWorkedExamples,
		examples, s.ConceptCard.WorkedExamples, (*Skill).SetWorkedExamples)
}

// NewAddWorkedExampleChange appends a worked example.
func NewAddWorkedExampleChange(s *Skill, example string) Change {
	examples := slices.Clone(s.ConceptCard.WorkedExamples)
	return NewSetWorkedExamplesChange(s, append(examples, example))
}

// NewUpdateWorkedExampleChange replaces the worked example at index.
func NewUpdateWorkedExampleChange(s *Skill, index int, example string) (Change, error) {
	if index < 0 || index >= len(s.ConceptCard.WorkedExamples) {
		return Change{}, fmt.Errorf("%w: worked example %d out of range", domain.ErrInvalidValue, index)
	}
	examples := slices.Clone(s.ConceptCard.WorkedExamples)
	examples[index] = example
	return NewSetWorkedExamplesChange(s, examples), nil
}

// NewDeleteWorkedExampleChange removes the worked example at index.
func NewDeleteWorkedExampleChange(s *Skill, index int) (Change, error) {
	if index < 0 || index >= len(s.ConceptCard.WorkedExamples) {
		return Change{}, fmt.Errorf("%w: worked example %d out of range", domain.ErrInvalidValue, index)
	}
	examples := slices.Delete(slices.Clone(s.ConceptCard.WorkedExamples), index, index+1)
	return NewSetWorkedExamplesChange(s, examples), nil
}

// NewAddMisconceptionChange appends a misconception with the next free id.
func NewAddMisconceptionChange(s *Skill, name, notes, feedback string) Change {
	m := Misconception{ID: s.NextMisconceptionID, Name: name, Notes: notes, Feedback: feedback}
	return addMisconception(s, m)
}

// addMisconception records the misconception and the next id it replaces;
// undo restores that id even when m.ID was above it.
func addMisconception(s *Skill, m Misconception) Change {
	params := history.Params{
		KeyNewMisconceptionDict: misconceptionToDict(m),
		KeyOldNextID:            s.NextMisconceptionID,
	}
	return history.NewChange(CmdAddSkillMisconception, params,
		func(s *Skill, p history.Params) error {
			m, err := coerce[Misconception](p[KeyNewMisconceptionDict])
			if err != nil {
				return err
			}
			if m.Name == "" {
				return fmt.Errorf("%w: misconception name must not be empty", domain.ErrInvalidValue)
			}
			return s.insertMisconception(len(s.Misconceptions), m)
		},
		func(s *Skill, p history.Params) error {
			m, err := coerce[Misconception](p[KeyNewMisconceptionDict])
			if err != nil {
				return err
			}
			next, err := coerce[int](p[KeyOldNextID])
			if err != nil {
				return err
			}
			if err := s.removeMisconception(m.ID); err != nil {
				return err
			}
			s.NextMisconceptionID = next
			return nil
		},
	)
}

// NewDeleteMisconceptionChange removes a misconception; undo puts it back at the same index.
func NewDeleteMisconceptionChange(s *Skill, id int) (Change, error) {
	index := s.misconceptionIndex(id)
	if index < 0 {
		return Change{}, fmt.Errorf("%w: %d", domain.ErrUnknownMisconception, id)
	}
	params := history.Params{
		KeyDeletedMisconception: id,
		KeyMisconceptionIndex:   index,
		KeyOldMisconceptionDict: misconceptionToDict(s.Misconceptions[index]),
	}
	return history.NewChange(CmdDeleteSkillMisconception, params,
		func(s *Skill, p history.Params) error {
			id, err := coerce[int](p[KeyDeletedMisconception])
			if err != nil {
				return err
			}
			return s.removeMisconception(id)
		},
		func(s *Skill, p history.Params) error {
			index, err := coerce[int](p[KeyMisconceptionIndex])
			if err != nil {
				return err
			}
			deleted, err := coerce[Misconception](p[KeyOldMisconceptionDict])
			if err != nil {
				return err
			}
			return s.insertMisconception(index, deleted)
		},
	), nil
}

// NewUpdateMisconceptionChange edits name, notes or feedback of misconception id.
func NewUpdateMisconceptionChange(s *Skill, id int, propertyName, newValue string) (Change, error) {
	m, err := s.Misconception(id)
	if err != nil {
		return Change{}, err
	}
	var oldValue string
	switch propertyName {
	case PropName:
		oldValue = m.Name
	case PropNotes:
		oldValue = m.Notes
	case PropFeedback:
		oldValue = m.Feedback
	default:
		return Change{}, fmt.Errorf("%w: misconception property %q", domain.ErrUnknownProperty, propertyName)
	}
	return property.NewChange[*Skill, string](CmdUpdateSkillMisconceptionsProperty, propertyName, newValue, oldValue,
		func(s *Skill, v string) error {
			return s.setMisconceptionField(id, propertyName, v)
		},
		property.WithParam(KeyMisconceptionID, id),
	), nil
}

// ChangeFromDescriptor rebuilds an executable change from its serialized form
// against the current skill.
func ChangeFromDescriptor(s *Skill, d history.Descriptor) (Change, error) {
	switch d.Cmd {
	case CmdUpdateSkillProperty:
		prop, value, err := stringEdit(d)
		if err != nil {
			return Change{}, err
		}
		return NewUpdatePropertyChange(s, prop, value)
	case CmdUpdateSkillContentsProperty:
		prop, err := d.Params.String(property.KeyPropertyName)
		if err != nil {
			return Change{}, err
		}
		switch prop {
		case PropExplanation:
			v, err := coerce[string](d.Params[property.KeyNewValue])
			if err != nil {
				return Change{}, err
			}
			return NewSetExplanationChange(s, v), nil
		case PropWorkedExamples:
			v, err := coerce[[]string](d.Params[property.KeyNewValue])
			if err != nil {
				return Change{}, err
			}
			return NewSetWorkedExamplesChange(s, v), nil
		default:
			return Change{}, fmt.Errorf("%w: skill contents property %q", domain.ErrUnknownProperty, prop)
		}
	case CmdUpdateSkillMisconceptionsProperty:
		prop, value, err := stringEdit(d)
		if err != nil {
			return Change{}, err
		}
		id, err := coerce[int](d.Params[KeyMisconceptionID])
		if err != nil {
			return Change{}, err
		}
		return NewUpdateMisconceptionChange(s, id, prop, value)
	case CmdAddSkillMisconception:
		m, err := coerce[Misconception](d.Params[KeyNewMisconceptionDict])
		if err != nil {
			return Change{}, err
		}
		return addMisconception(s, m), nil
	case CmdDeleteSkillMisconception:
		id, err := coerce[int](d.Params[KeyDeletedMisconception])
		if err != nil {
			return Change{}, err
		}
		return NewDeleteMisconceptionChange(s, id)
	default:
		return Change{}, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, d.Cmd)
	}
}

func stringEdit(d history.Descriptor) (string, string, error) {
	prop, err := d.Params.String(property.KeyPropertyName)
	if err != nil {
		return "", "", err
	}
	value, err := coerce[string](d.Params[property.KeyNewValue])
	if err != nil {
		return "", "", err
	}
	return prop, value, nil
}

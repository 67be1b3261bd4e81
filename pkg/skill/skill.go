package skill

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/language"
)

// Skill is a unit of knowledge taught by one or more explorations.
type Skill struct {
	ID                  string          `json:"id" mapstructure:"id"`
	Description         string          `json:"description" mapstructure:"description"`
	LanguageCode        string          `json:"language_code" mapstructure:"language_code"`
	ConceptCard         ConceptCard     `json:"skill_contents" mapstructure:"skill_contents"`
	Misconceptions      []Misconception `json:"misconceptions" mapstructure:"misconceptions"`
	NextMisconceptionID int             `json:"next_misconception_id" mapstructure:"next_misconception_id"`
	Version             int             `json:"version" mapstructure:"version"`
}

// ConceptCard is the review material of a skill. Worked examples are HTML.
type ConceptCard struct {
	Explanation    string   `json:"explanation" mapstructure:"explanation"`
	WorkedExamples []string `json:"worked_examples" mapstructure:"worked_examples"`
}

// Misconception is a common mistake learners make, with the feedback shown when it is detected.
type Misconception struct {
	ID       int    `json:"id" mapstructure:"id"`
	Name     string `json:"name" mapstructure:"name"`
	Notes    string `json:"notes" mapstructure:"notes"`
	Feedback string `json:"feedback" mapstructure:"feedback"`
}

// SupportedLanguages are the language codes a skill may be written in.
var SupportedLanguages = []string{"ar", "bn", "de", "en", "es", "fr", "hi", "id", "pt", "ru", "sw", "zh"}

// New creates an empty skill.
func New(id, description, languageCode string) (*Skill, error) {
	s := &Skill{ID: id, ConceptCard: ConceptCard{WorkedExamples: []string{}}, Misconceptions: []Misconception{}}
	if err := s.SetDescription(description); err != nil {
		return nil, err
	}
	if err := s.SetLanguageCode(languageCode); err != nil {
		return nil, err
	}
	return s, nil
}

// FromDict decodes a serialized skill. Unknown keys are rejected.
func FromDict(dict map[string]any) (*Skill, error) {
	s := &Skill{}
	if err := decode(domain.Copy(dict), s); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedStateData, err)
	}
	if s.ConceptCard.WorkedExamples == nil {
		s.ConceptCard.WorkedExamples = []string{}
	}
	if s.Misconceptions == nil {
		s.Misconceptions = []Misconception{}
	}
	for _, m := range s.Misconceptions {
		if m.ID >= s.NextMisconceptionID {
			return nil, fmt.Errorf("%w: misconception id %d is not below next_misconception_id %d",
				domain.ErrMalformedStateData, m.ID, s.NextMisconceptionID)
		}
	}
	return s, nil
}

// ToDict serializes the skill.
func (s *Skill) ToDict() map[string]any {
	misconceptions := make([]any, 0, len(s.Misconceptions))
	for _, m := range s.Misconceptions {
		misconceptions = append(misconceptions, misconceptionToDict(m))
	}
	examples := make([]any, 0, len(s.ConceptCard.WorkedExamples))
	for _, ex := range s.ConceptCard.WorkedExamples {
		examples = append(examples, ex)
	}
	return map[string]any{
		"id":            s.ID,
		"description":   s.Description,
		"language_code": s.LanguageCode,
		"skill_contents": map[string]any{
			"explanation":     s.ConceptCard.Explanation,
			"worked_examples": examples,
		},
		"misconceptions":        misconceptions,
		"next_misconception_id": s.NextMisconceptionID,
		"version":               s.Version,
	}
}

func misconceptionToDict(m Misconception) map[string]any {
	return map[string]any{
		"id":       m.ID,
		"name":     m.Name,
		"notes":    m.Notes,
		"feedback": m.Feedback,
	}
}

// Clone returns a deep copy of the skill.
func (s *Skill) Clone() *Skill {
	return domain.Copy(s)
}

// SetDescription rejects blank descriptions.
func (s *Skill) SetDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description must not be empty", domain.ErrInvalidValue)
	}
	s.Description = description
	return nil
}

// SetLanguageCode accepts a well-formed tag whose base language is supported.
func (s *Skill) SetLanguageCode(code string) error {
	tag, err := language.Parse(code)
	if err != nil {
		return fmt.Errorf("%w: language code %q: %w", domain.ErrInvalidValue, code, err)
	}
	base, _ := tag.Base()
	if base.String() != code || !slices.Contains(SupportedLanguages, code) {
		return fmt.Errorf("%w: unsupported language code %q", domain.ErrInvalidValue, code)
	}
	s.LanguageCode = code
	return nil
}

// SetExplanation replaces the concept card explanation.
func (s *Skill) SetExplanation(explanation string) error {
	s.ConceptCard.Explanation = explanation
	return nil
}

// SetWorkedExamples replaces the worked examples.
func (s *Skill) SetWorkedExamples(examples []string) error {
	if examples == nil {
		examples = []string{}
	}
	s.ConceptCard.WorkedExamples = domain.Copy(examples)
	return nil
}

// Misconception returns a copy of the misconception with the given id.
func (s *Skill) Misconception(id int) (Misconception, error) {
	i := s.misconceptionIndex(id)
	if i < 0 {
		return Misconception{}, fmt.Errorf("%w: %d", domain.ErrUnknownMisconception, id)
	}
	return s.Misconceptions[i], nil
}

func (s *Skill) misconceptionIndex(id int) int {
	return slices.IndexFunc(s.Misconceptions, func(m Misconception) bool { return m.ID == id })
}

// insertMisconception places m at index, clamped to the list bounds.
func (s *Skill) insertMisconception(index int, m Misconception) error {
	if s.misconceptionIndex(m.ID) >= 0 {
		return fmt.Errorf("%w: misconception id %d already exists", domain.ErrInvalidValue, m.ID)
	}
	index = max(0, min(index, len(s.Misconceptions)))
	s.Misconceptions = slices.Insert(s.Misconceptions, index, m)
	if m.ID >= s.NextMisconceptionID {
		s.NextMisconceptionID = m.ID + 1
	}
	return nil
}

func (s *Skill) removeMisconception(id int) error {
	i := s.misconceptionIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", domain.ErrUnknownMisconception, id)
	}
	s.Misconceptions = slices.Delete(s.Misconceptions, i, i+1)
	return nil
}

func (s *Skill) setMisconceptionField(id int, field, value string) error {
	i := s.misconceptionIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", domain.ErrUnknownMisconception, id)
	}
	m := &s.Misconceptions[i]
	switch field {
	case PropName:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: misconception name must not be empty", domain.ErrInvalidValue)
		}
		m.Name = value
	case PropNotes:
		m.Notes = value
	case PropFeedback:
		m.Feedback = value
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownProperty, field)
	}
	return nil
}

func decode(input, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      result,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// coerce converts a decoded parameter (typically JSON data) into V.
func coerce[V any](raw any) (V, error) {
	var v V
	if raw == nil {
		return v, nil
	}
	if typed, ok := raw.(V); ok {
		return domain.Copy(typed), nil
	}
	if err := decode(domain.Copy(raw), &v); err != nil {
		return v, fmt.Errorf("%w: %w", domain.ErrMalformedStateData, err)
	}
	return v, nil
}

package domain

import "github.com/mohae/deepcopy"

// State is a named node of the content graph.
// Name is the map key in the graph; it is not part of the serialized dict.
type State struct {
	Name              string        `json:"-" mapstructure:"-"`
	Content           Content       `json:"content" mapstructure:"content"`
	Interaction       Interaction   `json:"interaction" mapstructure:"interaction"`
	ParamChanges      []ParamChange `json:"param_changes" mapstructure:"param_changes"`
	ClassifierModelID *string       `json:"classifier_model_id" mapstructure:"classifier_model_id"`
}

// Content is rich text plus references to audio translation assets, keyed by language code.
type Content struct {
	HTML              string                      `json:"html" mapstructure:"html"`
	AudioTranslations map[string]AudioTranslation `json:"audio_translations" mapstructure:"audio_translations"`
}

type AudioTranslation struct {
	Filename      string `json:"filename" mapstructure:"filename"`
	FileSizeBytes int    `json:"file_size_bytes" mapstructure:"file_size_bytes"`
	NeedsUpdate   bool   `json:"needs_update" mapstructure:"needs_update"`
}

// ParamChange is a parameter-change directive evaluated when a state (or outcome) is entered.
type ParamChange struct {
	Name              string         `json:"name" mapstructure:"name"`
	GeneratorID       string         `json:"generator_id" mapstructure:"generator_id"`
	CustomizationArgs map[string]any `json:"customization_args" mapstructure:"customization_args"`
}

// Clone returns an independent deep copy of the state.
func (s State) Clone() State {
	return Copy(s)
}

// EachOutcome calls fn with a pointer to every Outcome of the state:
// answer group outcomes first, then the default outcome, then fallbacks.
func (s *State) EachOutcome(fn func(ref OutcomeRef, o *Outcome)) {
	s.Interaction.EachOutcome(func(ref OutcomeRef, o *Outcome) {
		ref.State = s.Name
		fn(ref, o)
	})
}

// Copy deep-copies any value so the result shares no maps, slices or pointers with v.
func Copy[T any](v T) T {
	c, _ := deepcopy.Copy(v).(T)
	return c
}

package loam

// StateMetadata is the frontmatter of a state document.
// The markdown body becomes the state content.
type StateMetadata struct {
	// Name overrides the state name derived from the file name.
	Name string `json:"name" mapstructure:"name"`
	// Init marks the entry state of the document.
	Init bool `json:"init" mapstructure:"init"`

	Interaction       map[string]any `json:"interaction" mapstructure:"interaction"`
	ParamChanges      []any          `json:"param_changes" mapstructure:"param_changes"`
	ClassifierModelID *string        `json:"classifier_model_id" mapstructure:"classifier_model_id"`
	AudioTranslations map[string]any `json:"audio_translations" mapstructure:"audio_translations"`
}

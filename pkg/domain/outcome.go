package domain

// Outcome is the destination and feedback produced by a match.
// Dest is either the name of an existing state or TerminalDest.
type Outcome struct {
	Dest         string        `json:"dest" mapstructure:"dest"`
	Feedback     Content       `json:"feedback" mapstructure:"feedback"`
	ParamChanges []ParamChange `json:"param_changes" mapstructure:"param_changes"`
}

// IsTerminal reports whether the outcome ends the document.
func (o Outcome) IsTerminal() bool {
	return o.Dest == TerminalDest
}

// HasFeedback reports whether the outcome says anything to the learner.
func (o Outcome) HasFeedback() bool {
	return o.Feedback.HTML != ""
}

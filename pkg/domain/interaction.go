package domain

// Interaction is the typed input mechanism attached to a state.
// ID selects the interaction type; an empty ID means no interaction is configured yet.
type Interaction struct {
	ID                string         `json:"id" mapstructure:"id"`
	CustomizationArgs map[string]any `json:"customization_args" mapstructure:"customization_args"`
	AnswerGroups      []AnswerGroup  `json:"answer_groups" mapstructure:"answer_groups"`
	DefaultOutcome    *Outcome       `json:"default_outcome" mapstructure:"default_outcome"`
	Fallbacks         []Fallback     `json:"fallbacks" mapstructure:"fallbacks"`
}

// AnswerGroup pairs an ordered rule list with the outcome taken when any rule matches.
type AnswerGroup struct {
	Rules   []Rule  `json:"rules" mapstructure:"rules"`
	Outcome Outcome `json:"outcome" mapstructure:"outcome"`
	Correct bool    `json:"correct" mapstructure:"correct"`
}

// Rule is a typed predicate over learner input.
type Rule struct {
	Type   string         `json:"rule_type" mapstructure:"rule_type"`
	Inputs map[string]any `json:"inputs" mapstructure:"inputs"`
}

// Fallback is a lower-priority outcome fired by a trigger when no answer group matches.
type Fallback struct {
	Trigger Trigger `json:"trigger" mapstructure:"trigger"`
	Outcome Outcome `json:"outcome" mapstructure:"outcome"`
}

type Trigger struct {
	Type              string         `json:"trigger_type" mapstructure:"trigger_type"`
	CustomizationArgs map[string]any `json:"customization_args" mapstructure:"customization_args"`
}

// OutcomeKind identifies where an Outcome lives inside an Interaction.
type OutcomeKind string

const (
	OutcomeAnswerGroup OutcomeKind = "answer_group"
	OutcomeDefault     OutcomeKind = "default_outcome"
	OutcomeFallback    OutcomeKind = "fallback"
)

// OutcomeRef locates a single Outcome in the graph.
// Index is the answer group or fallback index; it is zero for the default outcome.
type OutcomeRef struct {
	State string      `json:"state" mapstructure:"state"`
	Kind  OutcomeKind `json:"kind" mapstructure:"kind"`
	Index int         `json:"index" mapstructure:"index"`
}

// EachOutcome visits every Outcome of the interaction in a stable order.
func (i *Interaction) EachOutcome(fn func(ref OutcomeRef, o *Outcome)) {
	for idx := range i.AnswerGroups {
		fn(OutcomeRef{Kind: OutcomeAnswerGroup, Index: idx}, &i.AnswerGroups[idx].Outcome)
	}
	if i.DefaultOutcome != nil {
		fn(OutcomeRef{Kind: OutcomeDefault}, i.DefaultOutcome)
	}
	for idx := range i.Fallbacks {
		fn(OutcomeRef{Kind: OutcomeFallback, Index: idx}, &i.Fallbacks[idx].Outcome)
	}
}

// Outcome returns the Outcome at ref, or nil if the interaction has no such slot.
func (i *Interaction) Outcome(ref OutcomeRef) *Outcome {
	switch ref.Kind {
	case OutcomeAnswerGroup:
		if ref.Index >= 0 && ref.Index < len(i.AnswerGroups) {
			return &i.AnswerGroups[ref.Index].Outcome
		}
	case OutcomeDefault:
		return i.DefaultOutcome
	case OutcomeFallback:
		if ref.Index >= 0 && ref.Index < len(i.Fallbacks) {
			return &i.Fallbacks[ref.Index].Outcome
		}
	}
	return nil
}

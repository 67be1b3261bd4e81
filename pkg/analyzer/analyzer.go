package analyzer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// WarningType is the severity of a Warning.
type WarningType string

const (
	// Error marks content that is saved but behaves incorrectly.
	Error WarningType = "error"
	// Critical marks content that cannot be played at all.
	Critical WarningType = "critical"
)

// Warning is one finding about a state.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}

// Func analyzes the answer groups of a state using one interaction type's rules.
type Func func(stateName string, customizationArgs map[string]any, groups []domain.AnswerGroup, defaultOutcome *domain.Outcome) []Warning

// Registry maps interaction ids to their analyzers.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Func)}
}

// Default returns a registry with the built-in analyzers.
func Default() *Registry {
	r := NewRegistry()
	r.Register("FractionInput", FractionInput)
	r.Register("NumericInput", NumericInput)
	return r
}

// Register installs fn for an interaction id, replacing any previous one.
func (r *Registry) Register(interactionID string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[interactionID] = fn
}

// Analyze runs the analyzer registered for the interaction. Interactions
// without one still get the outcome checks.
func (r *Registry) Analyze(stateName string, in domain.Interaction) []Warning {
	r.mu.RLock()
	fn, ok := r.analyzers[in.ID]
	r.mu.RUnlock()

	if ok {
		return fn(stateName, in.CustomizationArgs, in.AnswerGroups, in.DefaultOutcome)
	}
	return OutcomeWarnings(stateName, in.AnswerGroups, in.DefaultOutcome)
}

// OutcomeWarnings flags outcomes that send the learner back to the same state
// without saying anything.
func OutcomeWarnings(stateName string, groups []domain.AnswerGroup, defaultOutcome *domain.Outcome) []Warning {
	var warnings []Warning
	for i, g := range groups {
		if isConfusing(g.Outcome, stateName) {
			warnings = append(warnings, Warning{
				Type:    Error,
				Message: fmt.Sprintf("Please specify what should happen in answer group %d.", i+1),
			})
		}
	}
	if defaultOutcome != nil && isConfusing(*defaultOutcome, stateName) {
		warnings = append(warnings, Warning{
			Type:    Error,
			Message: "Please add feedback for the user in the [All other answers] rule.",
		})
	}
	return warnings
}

func isConfusing(o domain.Outcome, stateName string) bool {
	return o.Dest == stateName && strings.TrimSpace(o.Feedback.HTML) == ""
}

// position identifies a rule by its 1-based index inside its 1-based answer group.
type position struct {
	group, rule int
}

// classification is what a rule classifier learned about one rule.
type classification struct {
	// problem is a message suffix reported instead of folding the rule.
	problem string
	// Exactly one of span or key is set for classified rules.
	span *interval
	key  string
}

type classifier func(rule domain.Rule, customizationArgs map[string]any) (classification, bool)

// scan walks the rules in evaluation order and reports invalid and redundant ones.
func scan(groups []domain.AnswerGroup, customizationArgs map[string]any, classify classifier) []Warning {
	var (
		warnings []Warning
		spans    []foldedSpan
		keys     = make(map[string]position)
	)

	for gi, g := range groups {
		for ri, rule := range g.Rules {
			pos := position{group: gi + 1, rule: ri + 1}
			c, ok := classify(rule, customizationArgs)
			if !ok {
				continue
			}
			if c.problem != "" {
				warnings = append(warnings, Warning{
					Type:    Error,
					Message: fmt.Sprintf("Rule %d from answer group %d %s", pos.rule, pos.group, c.problem),
				})
				continue
			}

			var by *position
			switch {
			case c.span != nil:
				by = coveredBy(spans, *c.span)
				if by == nil {
					spans = append(spans, foldedSpan{span: *c.span, pos: pos})
				}
			case c.key != "":
				if earlier, seen := keys[c.key]; seen {
					by = &earlier
				} else {
					keys[c.key] = pos
				}
			}

			if by != nil {
				warnings = append(warnings, Warning{
					Type: Error,
					Message: fmt.Sprintf(
						"Rule %d from answer group %d will never be matched because it is made redundant by rule %d from answer group %d.",
						pos.rule, pos.group, by.rule, by.group),
				})
			}
		}
	}
	return warnings
}

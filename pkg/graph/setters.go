package graph

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

// update applies fn to a copy of the named state and stores the copy only if
// the result still satisfies the interaction registry and graph integrity.
func (g *Graph) update(name string, fn func(st *domain.State)) error {
	st, ok := g.states[name]
	if !ok {
		return g.unknownState(name)
	}
	st = st.Clone()
	fn(&st)
	normalize(&st)
	if err := g.checkState(st); err != nil {
		return fmt.Errorf("state %q: %w", name, err)
	}
	g.states[name] = st
	return nil
}

func (g *Graph) SetContent(name string, content domain.Content) error {
	return g.update(name, func(st *domain.State) {
		st.Content = domain.Copy(content)
	})
}

// SetInteractionID switches the interaction type. Existing rules must be valid
// for the new type, so callers usually clear answer groups first.
func (g *Graph) SetInteractionID(name, id string) error {
	return g.update(name, func(st *domain.State) {
		st.Interaction.ID = id
	})
}

func (g *Graph) SetCustomizationArgs(name string, args map[string]any) error {
	return g.update(name, func(st *domain.State) {
		st.Interaction.CustomizationArgs = domain.Copy(args)
	})
}

func (g *Graph) SetAnswerGroups(name string, groups []domain.AnswerGroup) error {
	return g.update(name, func(st *domain.State) {
		st.Interaction.AnswerGroups = domain.Copy(groups)
	})
}

// SetDefaultOutcome replaces the default outcome; nil removes it.
func (g *Graph) SetDefaultOutcome(name string, outcome *domain.Outcome) error {
	return g.update(name, func(st *domain.State) {
		st.Interaction.DefaultOutcome = domain.Copy(outcome)
	})
}

func (g *Graph) SetFallbacks(name string, fallbacks []domain.Fallback) error {
	return g.update(name, func(st *domain.State) {
		st.Interaction.Fallbacks = domain.Copy(fallbacks)
	})
}

func (g *Graph) SetParamChanges(name string, changes []domain.ParamChange) error {
	return g.update(name, func(st *domain.State) {
		st.ParamChanges = domain.Copy(changes)
	})
}

func (g *Graph) SetClassifierModelID(name string, id *string) error {
	return g.update(name, func(st *domain.State) {
		st.ClassifierModelID = domain.Copy(id)
	})
}

// checkState validates one state against the registry and the current graph.
// The state's own name counts as an existing destination.
func (g *Graph) checkState(st domain.State) error {
	if err := g.checkRules(st); err != nil {
		return err
	}

	var dangling []DanglingRef
	st.EachOutcome(func(ref domain.OutcomeRef, o *domain.Outcome) {
		if o.Dest == domain.TerminalDest || o.Dest == st.Name || g.Has(o.Dest) {
			return
		}
		dangling = append(dangling, DanglingRef{OutcomeRef: ref, Dest: o.Dest})
	})
	if len(dangling) > 0 {
		return &IntegrityError{Dangling: dangling}
	}
	return nil
}

// checkRules validates the interaction type and every rule against the registry.
func (g *Graph) checkRules(st domain.State) error {
	if st.Interaction.ID != "" {
		spec, err := g.interactions.Lookup(st.Interaction.ID)
		if err != nil {
			return err
		}
		if spec.Terminal && len(st.Interaction.AnswerGroups) > 0 {
			return fmt.Errorf("%w: terminal interaction %s cannot have answer groups", domain.ErrMalformedStateData, spec.ID)
		}
		for gi, group := range st.Interaction.AnswerGroups {
			for ri, rule := range group.Rules {
				if err := g.interactions.ValidateRule(st.Interaction.ID, rule); err != nil {
					return fmt.Errorf("%w: %w", domain.ErrMalformedStateData,
						&schema.RuleError{Group: gi + 1, Rule: ri + 1, RuleType: rule.Type, Err: err})
				}
			}
		}
	} else if len(st.Interaction.AnswerGroups) > 0 {
		return fmt.Errorf("%w: answer groups require an interaction id", domain.ErrMalformedStateData)
	}
	return nil
}

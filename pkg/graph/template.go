package graph

import "github.com/aretw0/lattice/pkg/domain"

// TemplateProvider creates the initial value of a newly added state.
type TemplateProvider interface {
	NewTemplate(name string) domain.State
}

// TemplateFunc adapts a function to TemplateProvider.
type TemplateFunc func(name string) domain.State

func (f TemplateFunc) NewTemplate(name string) domain.State {
	return f(name)
}

// DefaultTemplate returns an empty state with no interaction whose default
// outcome loops back to itself.
func DefaultTemplate(name string) domain.State {
	return domain.State{
		Name: name,
		Interaction: domain.Interaction{
			DefaultOutcome: &domain.Outcome{Dest: name},
		},
	}
}

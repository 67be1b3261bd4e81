package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
)

// DeletePolicy decides how DeleteState repairs outcomes that point at the deleted state.
type DeletePolicy int

const (
	// RepointToTerminal rewrites dangling destinations to domain.TerminalDest.
	RepointToTerminal DeletePolicy = iota
	// RejectIfReferenced refuses the delete while any other state points at it.
	RejectIfReferenced
)

func (p DeletePolicy) String() string {
	switch p {
	case RejectIfReferenced:
		return "reject"
	default:
		return "repoint"
	}
}

// ParseDeletePolicy reads a policy from configuration ("repoint" or "reject").
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "repoint", "repoint_to_terminal":
		return RepointToTerminal, nil
	case "reject", "reject_if_referenced":
		return RejectIfReferenced, nil
	default:
		return 0, fmt.Errorf("unknown delete policy %q", s)
	}
}

// Graph is the in-memory state graph of one document.
// It is not safe for concurrent use.
type Graph struct {
	states       map[string]domain.State
	initState    string
	policy       DeletePolicy
	templates    TemplateProvider
	interactions *registry.Registry
}

// Option configures a Graph.
type Option func(*Graph)

// WithDeletePolicy sets the repair policy used by DeleteState.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(g *Graph) {
		g.policy = p
	}
}

// WithTemplate sets the provider of new states.
func WithTemplate(t TemplateProvider) Option {
	return func(g *Graph) {
		g.templates = t
	}
}

// WithRegistry sets the interaction registry used to decode and validate states.
func WithRegistry(r *registry.Registry) Option {
	return func(g *Graph) {
		g.interactions = r
	}
}

// WithInitState marks the entry state of the document.
// The initial state cannot be deleted and is followed through renames.
func WithInitState(name string) Option {
	return func(g *Graph) {
		g.initState = name
	}
}

func newGraph(opts ...Option) *Graph {
	g := &Graph{
		states:       make(map[string]domain.State),
		templates:    TemplateFunc(DefaultTemplate),
		interactions: registry.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// New creates a graph. If an initial state was configured, it is created from the template.
func New(opts ...Option) (*Graph, error) {
	g := newGraph(opts...)
	if g.initState != "" {
		if err := g.AddState(g.initState); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// InitState returns the name of the entry state, or "" if none is configured.
func (g *Graph) InitState() string {
	return g.initState
}

// Policy returns the configured delete policy.
func (g *Graph) Policy() DeletePolicy {
	return g.policy
}

// Has reports whether a state exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.states[name]
	return ok
}

// Len returns the number of states.
func (g *Graph) Len() int {
	return len(g.states)
}

// Names returns all state names, sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.states))
	for name := range g.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State returns an independent copy of the named state.
func (g *Graph) State(name string) (domain.State, error) {
	st, ok := g.states[name]
	if !ok {
		return domain.State{}, g.unknownState(name)
	}
	return st.Clone(), nil
}

// States returns an independent copy of every state.
func (g *Graph) States() map[string]domain.State {
	out := make(map[string]domain.State, len(g.states))
	for name, st := range g.states {
		out[name] = st.Clone()
	}
	return out
}

// AddState inserts a new state built from the template.
func (g *Graph) AddState(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if g.Has(name) {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateStateName, name)
	}

	st := g.templates.NewTemplate(name)
	st.Name = name
	normalize(&st)
	if err := g.checkState(st); err != nil {
		return fmt.Errorf("template for %q: %w", name, err)
	}

	g.states[name] = st
	return nil
}

// RenameState moves a state to newName and rewrites every outcome that pointed
// at oldName, including the state's own self-loops.
func (g *Graph) RenameState(oldName, newName string) error {
	st, ok := g.states[oldName]
	if !ok {
		return g.unknownState(oldName)
	}
	if newName == oldName {
		return nil
	}
	if err := validateName(newName); err != nil {
		return err
	}
	if g.Has(newName) {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateStateName, newName)
	}

	delete(g.states, oldName)
	st.Name = newName
	g.states[newName] = st

	for name, s := range g.states {
		s.EachOutcome(func(_ domain.OutcomeRef, o *domain.Outcome) {
			if o.Dest == oldName {
				o.Dest = newName
			}
		})
		g.states[name] = s
	}

	if g.initState == oldName {
		g.initState = newName
	}
	return nil
}

// DeleteState removes a state and repairs every outcome that pointed at it,
// according to the configured DeletePolicy.
func (g *Graph) DeleteState(name string) error {
	_, err := g.deleteState(name)
	return err
}

func (g *Graph) deleteState(name string) ([]domain.OutcomeRef, error) {
	if !g.Has(name) {
		return nil, g.unknownState(name)
	}
	if name == g.initState {
		return nil, fmt.Errorf("%w: %q", domain.ErrInitialState, name)
	}

	refs := g.IncomingReferences(name)
	if g.policy == RejectIfReferenced && len(refs) > 0 {
		return nil, fmt.Errorf("%w: %q is targeted by %s", domain.ErrHasIncomingReferences, name, describeRefs(refs))
	}

	delete(g.states, name)
	for _, ref := range refs {
		st := g.states[ref.State]
		if o := st.Interaction.Outcome(ref); o != nil {
			o.Dest = domain.TerminalDest
		}
		g.states[ref.State] = st
	}
	return refs, nil
}

// restoreState re-inserts a deleted state and points refs back at it.
func (g *Graph) restoreState(st domain.State, refs []domain.OutcomeRef) error {
	if g.Has(st.Name) {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateStateName, st.Name)
	}
	for _, ref := range refs {
		owner, ok := g.states[ref.State]
		if !ok || owner.Interaction.Outcome(ref) == nil {
			return fmt.Errorf("%w: cannot restore reference %s/%s[%d]", domain.ErrUnknownState, ref.State, ref.Kind, ref.Index)
		}
	}

	normalize(&st)
	g.states[st.Name] = st
	if err := g.checkState(st); err != nil {
		delete(g.states, st.Name)
		return err
	}

	for _, ref := range refs {
		owner := g.states[ref.State]
		owner.Interaction.Outcome(ref).Dest = st.Name
		g.states[ref.State] = owner
	}
	return nil
}

// removeState deletes a state that nothing else points at.
func (g *Graph) removeState(name string) error {
	if !g.Has(name) {
		return g.unknownState(name)
	}
	if refs := g.IncomingReferences(name); len(refs) > 0 {
		return fmt.Errorf("%w: %q is targeted by %s", domain.ErrHasIncomingReferences, name, describeRefs(refs))
	}
	delete(g.states, name)
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidStateName)
	}
	if name == domain.TerminalDest {
		return fmt.Errorf("%w: %q is reserved", domain.ErrInvalidStateName, name)
	}
	return nil
}

func describeRefs(refs []domain.OutcomeRef) string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !seen[ref.State] {
			seen[ref.State] = true
			names = append(names, fmt.Sprintf("%q", ref.State))
		}
	}
	return strings.Join(names, ", ")
}

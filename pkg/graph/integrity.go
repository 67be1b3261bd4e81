package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// DanglingRef is an outcome whose destination does not exist.
type DanglingRef struct {
	domain.OutcomeRef
	Dest string `json:"dest"`
}

func (r DanglingRef) String() string {
	if r.Kind == domain.OutcomeDefault {
		return fmt.Sprintf("%q default outcome -> %q", r.State, r.Dest)
	}
	return fmt.Sprintf("%q %s %d -> %q", r.State, strings.ReplaceAll(string(r.Kind), "_", " "), r.Index+1, r.Dest)
}

// IntegrityError lists every dangling destination found in a graph.
// It matches domain.ErrUnknownState with errors.Is.
type IntegrityError struct {
	Dangling []DanglingRef
}

func (e *IntegrityError) Error() string {
	if len(e.Dangling) == 1 {
		return "dangling destination: " + e.Dangling[0].String()
	}
	msg := fmt.Sprintf("%d dangling destinations:\n", len(e.Dangling))
	for i, d := range e.Dangling {
		msg += fmt.Sprintf("  %d. %s\n", i+1, d)
	}
	return msg
}

func (e *IntegrityError) Is(target error) bool {
	return target == domain.ErrUnknownState
}

// CheckIntegrity reports every outcome in states that points at neither
// domain.TerminalDest nor an existing state. Findings are ordered by state name.
func CheckIntegrity(states map[string]domain.State) error {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	var dangling []DanglingRef
	for _, name := range names {
		st := states[name]
		st.Name = name
		st.EachOutcome(func(ref domain.OutcomeRef, o *domain.Outcome) {
			if o.Dest == domain.TerminalDest {
				return
			}
			if _, ok := states[o.Dest]; !ok {
				dangling = append(dangling, DanglingRef{OutcomeRef: ref, Dest: o.Dest})
			}
		})
	}

	if len(dangling) > 0 {
		return &IntegrityError{Dangling: dangling}
	}
	return nil
}

// IncomingReferences lists the outcomes of other states that point at name,
// ordered by state name and then by position inside the interaction.
func (g *Graph) IncomingReferences(name string) []domain.OutcomeRef {
	var refs []domain.OutcomeRef
	for _, other := range g.Names() {
		if other == name {
			continue
		}
		st := g.states[other]
		st.EachOutcome(func(ref domain.OutcomeRef, o *domain.Outcome) {
			if o.Dest == name {
				refs = append(refs, ref)
			}
		})
	}
	return refs
}

// Unreachable crawls the graph from the initial state and returns the states
// that cannot be reached, sorted. It returns nil when no initial state is set.
func (g *Graph) Unreachable() []string {
	if g.initState == "" || !g.Has(g.initState) {
		return nil
	}

	visited := map[string]bool{g.initState: true}
	queue := []string{g.initState}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		st := g.states[current]
		st.EachOutcome(func(_ domain.OutcomeRef, o *domain.Outcome) {
			if o.Dest == domain.TerminalDest || visited[o.Dest] {
				return
			}
			visited[o.Dest] = true
			queue = append(queue, o.Dest)
		})
	}

	var unreachable []string
	for _, name := range g.Names() {
		if !visited[name] {
			unreachable = append(unreachable, name)
		}
	}
	return unreachable
}

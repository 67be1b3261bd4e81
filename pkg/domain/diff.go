package domain

import (
	"reflect"
	"sort"
)

// GraphDiff represents the state-level changes between two graph snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type GraphDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	// Changed lists states present in both snapshots whose data differs.
	Changed []string `json:"changed,omitempty"`
}

// Empty reports whether the snapshots were identical.
func (d *GraphDiff) Empty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0)
}

// Diff calculates the difference between oldStates and newStates.
// A rename shows up as one removal plus one addition, and every state whose
// outcomes were rewritten by it shows up as changed.
// If oldStates is nil, every state of newStates is reported as added.
// Returns nil when nothing changed.
func Diff(oldStates, newStates map[string]State) *GraphDiff {
	diff := &GraphDiff{}

	for name, newState := range newStates {
		oldState, exists := oldStates[name]
		if !exists {
			diff.Added = append(diff.Added, name)
			continue
		}
		if !sameState(oldState, newState) {
			diff.Changed = append(diff.Changed, name)
		}
	}

	for name := range oldStates {
		if _, exists := newStates[name]; !exists {
			diff.Removed = append(diff.Removed, name)
		}
	}

	if diff.Empty() {
		return nil
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff
}

func sameState(a, b State) bool {
	a.Name, b.Name = "", ""
	return reflect.DeepEqual(a, b)
}

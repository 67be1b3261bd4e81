// Package registry holds the catalog of interaction types and the rule types
// each one accepts, keyed by their tag strings.
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

// Interaction describes one interaction type.
type Interaction struct {
	ID string `json:"id"`
	// Rules maps each rule type to the schema of its inputs.
	Rules map[string]schema.Schema `json:"rules"`
	// Terminal interactions end the document and take no answer groups.
	Terminal bool `json:"terminal,omitempty"`
}

// RuleSchema returns the input schema of a rule type.
func (i Interaction) RuleSchema(ruleType string) (schema.Schema, error) {
	s, ok := i.Rules[ruleType]
	if !ok {
		return nil, fmt.Errorf("%w: rule type %q is not supported by %s", schema.ErrInvalidInput, ruleType, i.ID)
	}
	return s, nil
}

// Registry manages the available interaction types.
type Registry struct {
	mu           sync.RWMutex
	interactions map[string]Interaction
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		interactions: make(map[string]Interaction),
	}
}

// Register adds an interaction type.
// If one with the same id exists, it is overwritten.
func (r *Registry) Register(spec Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions[spec.ID] = spec
}

// Lookup returns the interaction registered under id.
// Returns domain.ErrUnknownInteraction if it is not found.
func (r *Registry) Lookup(id string) (Interaction, error) {
	r.mu.RLock()
	spec, ok := r.interactions[id]
	r.mu.RUnlock()

	if !ok {
		return Interaction{}, fmt.Errorf("%w: %q", domain.ErrUnknownInteraction, id)
	}
	return spec, nil
}

// IDs lists the registered interaction ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.interactions))
	for id := range r.interactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Catalog returns every registered interaction, sorted by id.
func (r *Registry) Catalog() []Interaction {
	ids := r.IDs()
	out := make([]Interaction, 0, len(ids))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range ids {
		out = append(out, r.interactions[id])
	}
	return out
}

// Load registers the interactions of a JSON catalog, the same shape Catalog
// marshals to: [{"id": ..., "rules": {ruleType: {input: typeName}}}].
// Nothing is registered if any entry is invalid.
func (r *Registry) Load(rd io.Reader) error {
	var specs []Interaction
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&specs); err != nil {
		return fmt.Errorf("failed to parse interaction catalog: %w", err)
	}
	for i, spec := range specs {
		if spec.ID == "" {
			return fmt.Errorf("interaction %d has no id", i)
		}
		if spec.Rules == nil {
			specs[i].Rules = map[string]schema.Schema{}
		}
	}
	for _, spec := range specs {
		r.Register(spec)
	}
	return nil
}

// ValidateRule checks that rule is known to the interaction and that its inputs match.
func (r *Registry) ValidateRule(interactionID string, rule domain.Rule) error {
	spec, err := r.Lookup(interactionID)
	if err != nil {
		return err
	}
	inputs, err := spec.RuleSchema(rule.Type)
	if err != nil {
		return err
	}
	return schema.ValidateExact(inputs, rule.Inputs)
}

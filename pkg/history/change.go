package history

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// KeyCmd is the descriptor field holding the command tag.
const KeyCmd = "cmd"

// Params are the named parameters of a command.
type Params map[string]any

// String returns the named parameter as a string.
func (p Params) String(key string) (string, error) {
	v, ok := p[key].(string)
	if !ok {
		return "", fmt.Errorf("param %q: expected string, got %T", key, p[key])
	}
	return v, nil
}

// Descriptor is the serializable, data-only view of a change.
// It marshals flat: {"cmd": ..., <params>...}.
type Descriptor struct {
	Cmd    string
	Params Params
}

// MarshalJSON flattens the descriptor into a single object.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToDict())
}

// UnmarshalJSON reads a flat {"cmd": ...} object.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := DescriptorFromDict(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ToDict returns the flat dict form of the descriptor.
func (d Descriptor) ToDict() map[string]any {
	out := make(map[string]any, len(d.Params)+1)
	for k, v := range d.Params {
		out[k] = v
	}
	out[KeyCmd] = d.Cmd
	return out
}

// DescriptorFromDict splits a flat change dict into its command tag and parameters.
func DescriptorFromDict(dict map[string]any) (Descriptor, error) {
	cmd, ok := dict[KeyCmd].(string)
	if !ok || cmd == "" {
		return Descriptor{}, fmt.Errorf("%w: change dict has no %q", domain.ErrUnknownCommand, KeyCmd)
	}
	params := make(Params, len(dict))
	for k, v := range dict {
		if k == KeyCmd {
			continue
		}
		params[k] = v
	}
	return Descriptor{Cmd: cmd, Params: params}, nil
}

// Op is one direction of a change.
type Op[A any] func(agg A, params Params) error

// Change is a reversible, parameterized unit of mutation over an aggregate A.
// Reverse(Forward(a, p), p) must leave a structurally equal to its starting value.
type Change[A any] struct {
	Cmd     string
	Params  Params
	Forward Op[A]
	Reverse Op[A]
}

// NewChange builds a change. Params are deep-copied so later mutation of the
// caller's map cannot alter what is replayed or exported.
func NewChange[A any](cmd string, params Params, forward, reverse Op[A]) Change[A] {
	return Change[A]{
		Cmd:     cmd,
		Params:  domain.Copy(params),
		Forward: forward,
		Reverse: reverse,
	}
}

// Descriptor returns the data-only projection of the change.
func (c Change[A]) Descriptor() Descriptor {
	return Descriptor{Cmd: c.Cmd, Params: domain.Copy(c.Params)}
}

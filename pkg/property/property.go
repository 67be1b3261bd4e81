// Package property builds generic property-set changes, so a new editable field
// only needs a setter on its aggregate to gain undo/redo and change-log support.
package property

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
)

// Parameter keys shared by every property change descriptor.
const (
	KeyPropertyName = "property_name"
	KeyNewValue     = "new_value"
	KeyOldValue     = "old_value"
)

// Setter applies a value through the aggregate's own validation.
type Setter[A, V any] func(agg A, value V) error

// Option adds command-specific parameters (e.g. the state name) to the descriptor.
type Option func(history.Params)

// WithParam sets an extra descriptor parameter.
func WithParam(key string, value any) Option {
	return func(p history.Params) {
		p[key] = value
	}
}

// NewChange returns a change whose forward operation sets the property to
// newValue and whose reverse sets it back to oldValue, both through set.
// Values are deep-copied when captured and again on every application.
func NewChange[A, V any](cmd, propertyName string, newValue, oldValue V, set Setter[A, V], opts ...Option) history.Change[A] {
	params := history.Params{
		KeyPropertyName: propertyName,
		KeyNewValue:     domain.Copy(newValue),
		KeyOldValue:     domain.Copy(oldValue),
	}
	for _, opt := range opts {
		opt(params)
	}

	return history.NewChange(cmd, params,
		func(agg A, p history.Params) error {
			v, err := Value[V](p, KeyNewValue)
			if err != nil {
				return err
			}
			return set(agg, v)
		},
		func(agg A, p history.Params) error {
			v, err := Value[V](p, KeyOldValue)
			if err != nil {
				return err
			}
			return set(agg, v)
		},
	)
}

// Value reads a typed parameter. A missing or nil entry yields the zero value.
func Value[V any](p history.Params, key string) (V, error) {
	var zero V
	raw, ok := p[key]
	if !ok || raw == nil {
		return zero, nil
	}
	v, ok := raw.(V)
	if !ok {
		return zero, fmt.Errorf("param %q: expected %T, got %T", key, zero, raw)
	}
	return domain.Copy(v), nil
}

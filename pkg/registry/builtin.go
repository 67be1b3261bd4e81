package registry

import "github.com/aretw0/lattice/pkg/schema"

// Default returns a registry preloaded with the built-in interaction types.
func Default() *Registry {
	r := NewRegistry()

	x := func(t schema.Type) schema.Schema { return schema.Schema{"x": t} }
	fraction := schema.Schema{"f": schema.Fraction()}

	r.Register(Interaction{ID: "Continue", Rules: map[string]schema.Schema{}})
	r.Register(Interaction{ID: "EndExploration", Rules: map[string]schema.Schema{}, Terminal: true})

	r.Register(Interaction{ID: "TextInput", Rules: map[string]schema.Schema{
		"Equals":              x(schema.String()),
		"CaseSensitiveEquals": x(schema.String()),
		"StartsWith":          x(schema.String()),
		"Contains":            x(schema.String()),
		"FuzzyEquals":         x(schema.String()),
	}})

	r.Register(Interaction{ID: "MultipleChoiceInput", Rules: map[string]schema.Schema{
		"Equals": x(schema.Int()),
	}})

	r.Register(Interaction{ID: "NumericInput", Rules: map[string]schema.Schema{
		"Equals":                 x(schema.Number()),
		"IsLessThan":             x(schema.Number()),
		"IsGreaterThan":          x(schema.Number()),
		"IsLessThanOrEqualTo":    x(schema.Number()),
		"IsGreaterThanOrEqualTo": x(schema.Number()),
		"IsInclusivelyBetween":   {"a": schema.Number(), "b": schema.Number()},
		"IsWithinTolerance":      {"x": schema.Number(), "tol": schema.Number()},
	}})

	r.Register(Interaction{ID: "FractionInput", Rules: map[string]schema.Schema{
		"IsExactlyEqualTo":                fraction,
		"IsEquivalentTo":                  fraction,
		"IsEquivalentToAndInSimplestForm": fraction,
		"IsLessThan":                      fraction,
		"IsGreaterThan":                   fraction,
		"HasNumeratorEqualTo":             x(schema.Number()),
		"HasDenominatorEqualTo":           x(schema.Number()),
		"HasIntegerPartEqualTo":           x(schema.Number()),
		"HasNoFractionalPart":             {},
		"HasFractionalPartExactlyEqualTo": fraction,
	}})

	return r
}

package analyzer

import (
	"math/big"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

// NumericInput analyzes NumericInput answer groups.
func NumericInput(stateName string, customizationArgs map[string]any, groups []domain.AnswerGroup, defaultOutcome *domain.Outcome) []Warning {
	warnings := scan(groups, customizationArgs, classifyNumber)
	return append(warnings, OutcomeWarnings(stateName, groups, defaultOutcome)...)
}

func classifyNumber(rule domain.Rule, _ map[string]any) (classification, bool) {
	var span interval
	switch rule.Type {
	case "Equals", "IsLessThan", "IsGreaterThan", "IsLessThanOrEqualTo", "IsGreaterThanOrEqualTo":
		x, ok := asRat(rule.Inputs["x"])
		if !ok {
			return classification{}, false
		}
		switch rule.Type {
		case "Equals":
			span = point(x)
		case "IsLessThan":
			span = below(x, false)
		case "IsGreaterThan":
			span = above(x, false)
		case "IsLessThanOrEqualTo":
			span = below(x, true)
		default:
			span = above(x, true)
		}

	case "IsInclusivelyBetween":
		a, okA := asRat(rule.Inputs["a"])
		b, okB := asRat(rule.Inputs["b"])
		if !okA || !okB {
			return classification{}, false
		}
		span = between(a, b)

	case "IsWithinTolerance":
		x, okX := asRat(rule.Inputs["x"])
		tol, okT := asRat(rule.Inputs["tol"])
		if !okX || !okT {
			return classification{}, false
		}
		span = between(new(big.Rat).Sub(x, tol), new(big.Rat).Add(x, tol))

	default:
		return classification{}, false
	}

	if span.empty() {
		return classification{}, false
	}
	return classification{span: &span}, true
}

func asRat(v any) (*big.Rat, bool) {
	f, ok := schema.AsFloat(v)
	if !ok {
		return nil, false
	}
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return nil, false
	}
	return r, true
}

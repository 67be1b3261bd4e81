package analyzer

import (
	"fmt"
	"math"
	"math/big"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

const (
	problemNotInteger      = "is invalid: input should be an integer."
	problemZeroDenom       = "is invalid: denominator should be greater than zero."
	problemNotSimplest     = "will never be matched because it is not in simplest form."
	argRequireSimplestForm = "requireSimplestForm"
)

// FractionInput analyzes FractionInput answer groups.
func FractionInput(stateName string, customizationArgs map[string]any, groups []domain.AnswerGroup, defaultOutcome *domain.Outcome) []Warning {
	warnings := scan(groups, customizationArgs, classifyFraction)
	return append(warnings, OutcomeWarnings(stateName, groups, defaultOutcome)...)
}

func classifyFraction(rule domain.Rule, args map[string]any) (classification, bool) {
	switch rule.Type {
	case "HasNumeratorEqualTo", "HasIntegerPartEqualTo", "HasDenominatorEqualTo":
		if !integral(rule.Inputs["x"]) {
			return classification{problem: problemNotInteger}, true
		}
		x, ok := asInteger(rule.Inputs["x"])
		if !ok {
			return classification{}, false
		}
		if rule.Type == "HasDenominatorEqualTo" && x <= 0 {
			return classification{problem: problemZeroDenom}, true
		}
		return classification{key: fmt.Sprintf("%s:%d", rule.Type, x)}, true

	case "IsExactlyEqualTo":
		f, ok := parseFraction(rule.Inputs["f"])
		if !ok {
			return classification{}, false
		}
		if requireSimplestForm(args) && !f.simplest() {
			return classification{problem: problemNotSimplest}, true
		}
		span := point(f.value())
		return classification{span: &span}, true

	case "IsEquivalentTo", "IsEquivalentToAndInSimplestForm":
		f, ok := parseFraction(rule.Inputs["f"])
		if !ok {
			return classification{}, false
		}
		span := point(f.value())
		return classification{span: &span}, true

	case "IsGreaterThan", "IsLessThan":
		f, ok := parseFraction(rule.Inputs["f"])
		if !ok {
			return classification{}, false
		}
		span := above(f.value(), false)
		if rule.Type == "IsLessThan" {
			span = below(f.value(), false)
		}
		return classification{span: &span}, true

	case "HasNoFractionalPart":
		return classification{key: rule.Type}, true

	case "HasFractionalPartExactlyEqualTo":
		f, ok := parseFraction(rule.Inputs["f"])
		if !ok {
			return classification{}, false
		}
		return classification{key: fmt.Sprintf("%s:%d/%d", rule.Type, f.num, f.den)}, true
	}
	return classification{}, false
}

// requireSimplestForm accepts both {"value": true} and a bare boolean.
func requireSimplestForm(args map[string]any) bool {
	switch v := args[argRequireSimplestForm].(type) {
	case bool:
		return v
	case map[string]any:
		b, _ := v["value"].(bool)
		return b
	}
	return false
}

// fraction is a mixed number as entered by an author.
type fraction struct {
	negative        bool
	whole, num, den int64
}

func parseFraction(raw any) (fraction, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return fraction{}, false
	}
	var f fraction
	if neg, ok := m["isNegative"].(bool); ok {
		f.negative = neg
	}
	if f.whole, ok = asInteger(m["wholeNumber"]); !ok {
		return fraction{}, false
	}
	if f.num, ok = asInteger(m["numerator"]); !ok {
		return fraction{}, false
	}
	if f.den, ok = asInteger(m["denominator"]); !ok || f.den <= 0 {
		return fraction{}, false
	}
	return f, true
}

// value is the exact rational the fraction denotes, in lowest terms.
func (f fraction) value() *big.Rat {
	den := big.NewInt(f.den)
	num := new(big.Int).Mul(big.NewInt(f.whole), den)
	num.Add(num, big.NewInt(f.num))
	r := new(big.Rat).SetFrac(num, den)
	if f.negative {
		r.Neg(r)
	}
	return r
}

func (f fraction) simplest() bool {
	g := new(big.Int).GCD(nil, nil, big.NewInt(f.num), big.NewInt(f.den))
	return g.IsInt64() && g.Int64() == 1
}

func integral(v any) bool {
	f, ok := schema.AsFloat(v)
	return ok && !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// asInteger reports false for values that are not integers or do not fit in int64.
func asInteger(v any) (int64, bool) {
	if !integral(v) {
		return 0, false
	}
	f, _ := schema.AsFloat(v)
	if f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

package analyzer_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/lattice/pkg/analyzer"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
)

const currentState = "First State"

func fractionDict(negative bool, whole, num, den any) map[string]any {
	return map[string]any{
		"isNegative":  negative,
		"wholeNumber": whole,
		"numerator":   num,
		"denominator": den,
	}
}

func rule(ruleType string, inputs map[string]any) domain.Rule {
	return domain.Rule{Type: ruleType, Inputs: inputs}
}

var (
	goodOutcome = domain.Outcome{Dest: "Second State"}

	equalsOne           = rule("IsExactlyEqualTo", map[string]any{"f": fractionDict(false, 0, 1, 1)})
	greaterThanMinusOne = rule("IsGreaterThan", map[string]any{"f": fractionDict(true, 0, 1, 1)})
	greaterThanMinusTwo = rule("IsGreaterThan", map[string]any{"f": fractionDict(true, 0, 2, 1)})
	lessThanTwo         = rule("IsLessThan", map[string]any{"f": fractionDict(false, 0, 2, 1)})
	equivalentToOne     = rule("IsEquivalentTo", map[string]any{"f": fractionDict(false, 0, 10, 10)})
	equivalentSimplest  = rule("IsEquivalentToAndInSimplestForm", map[string]any{"f": fractionDict(false, 0, 10, 10)})
	exactlyTenTenths    = rule("IsExactlyEqualTo", map[string]any{"f": fractionDict(false, 0, 10, 10)})
	zeroDenominator     = rule("HasDenominatorEqualTo", map[string]any{"x": 0})

	simplestForm = map[string]any{"requireSimplestForm": map[string]any{"value": true}}
)

func groups(rules ...[]domain.Rule) []domain.AnswerGroup {
	out := make([]domain.AnswerGroup, 0, len(rules))
	for _, r := range rules {
		out = append(out, domain.AnswerGroup{Rules: r, Outcome: goodOutcome})
	}
	return out
}

func analyzeFraction(groups []domain.AnswerGroup) []analyzer.Warning {
	def := goodOutcome
	return analyzer.FractionInput(currentState, simplestForm, groups, &def)
}

func redundant(rule, group, byRule, byGroup int) analyzer.Warning {
	return analyzer.Warning{
		Type: analyzer.Error,
		Message: fmt.Sprintf("Rule %d from answer group %d will never be matched because it is made redundant by rule %d from answer group %d.",
			rule, group, byRule, byGroup),
	}
}

func TestFractionInput(t *testing.T) {
	tests := []struct {
		name   string
		groups []domain.AnswerGroup
		want   []analyzer.Warning
	}{
		{
			name:   "basic validation",
			groups: groups([]domain.Rule{equalsOne, lessThanTwo}),
		},
		{
			name:   "redundant rule",
			groups: groups([]domain.Rule{lessThanTwo, equalsOne}),
			want:   []analyzer.Warning{redundant(2, 1, 1, 1)},
		},
		{
			name:   "identical value, equivalent rule",
			groups: groups([]domain.Rule{equalsOne, equivalentToOne}),
			want:   []analyzer.Warning{redundant(2, 1, 1, 1)},
		},
		{
			name:   "identical value, equivalent in simplest form",
			groups: groups([]domain.Rule{equalsOne, equivalentSimplest}),
			want:   []analyzer.Warning{redundant(2, 1, 1, 1)},
		},
		{
			name:   "separate answer groups",
			groups: groups([]domain.Rule{greaterThanMinusOne}, []domain.Rule{equalsOne}),
			want:   []analyzer.Warning{redundant(1, 2, 1, 1)},
		},
		{
			name:   "greater than range",
			groups: groups([]domain.Rule{greaterThanMinusOne, equalsOne}),
			want:   []analyzer.Warning{redundant(2, 1, 1, 1)},
		},
		{
			name:   "not in simplest form",
			groups: groups([]domain.Rule{exactlyTenTenths}),
			want: []analyzer.Warning{{
				Type:    analyzer.Error,
				Message: "Rule 1 from answer group 1 will never be matched because it is not in simplest form.",
			}},
		},
		{
			name:   "zero denominator",
			groups: groups([]domain.Rule{zeroDenominator}),
			want: []analyzer.Warning{{
				Type:    analyzer.Error,
				Message: "Rule 1 from answer group 1 is invalid: denominator should be greater than zero.",
			}},
		},
		{
			name:   "covered only by the union",
			groups: groups([]domain.Rule{lessThanTwo, greaterThanMinusOne, greaterThanMinusTwo}),
			want:   []analyzer.Warning{redundant(3, 1, 1, 1)},
		},
		{
			name:   "invalid rules are not folded",
			groups: groups([]domain.Rule{exactlyTenTenths, equivalentToOne}),
			want: []analyzer.Warning{{
				Type:    analyzer.Error,
				Message: "Rule 1 from answer group 1 will never be matched because it is not in simplest form.",
			}},
		},
		{
			name: "repeated discrete predicate",
			groups: groups(
				[]domain.Rule{rule("HasNumeratorEqualTo", map[string]any{"x": 3})},
				[]domain.Rule{rule("HasNumeratorEqualTo", map[string]any{"x": 4}), rule("HasNumeratorEqualTo", map[string]any{"x": 3.0})},
			),
			want: []analyzer.Warning{redundant(2, 2, 1, 1)},
		},
		{
			name:   "unclassifiable rules pass through",
			groups: groups([]domain.Rule{rule("IsLessThan", map[string]any{"f": "two"}), rule("Mystery", nil), lessThanTwo}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeFraction(tt.groups))
		})
	}
}

func TestFractionInput_NonIntegerInputs(t *testing.T) {
	for _, ruleType := range []string{"HasNumeratorEqualTo", "HasIntegerPartEqualTo", "HasDenominatorEqualTo"} {
		t.Run(ruleType, func(t *testing.T) {
			got := analyzeFraction(groups([]domain.Rule{rule(ruleType, map[string]any{"x": 0.5})}))
			assert.Equal(t, []analyzer.Warning{{
				Type:    analyzer.Error,
				Message: "Rule 1 from answer group 1 is invalid: input should be an integer.",
			}}, got)
		})
	}
}

func TestFractionInput_SimplestFormNotRequired(t *testing.T) {
	def := goodOutcome
	for _, args := range []map[string]any{
		{"requireSimplestForm": map[string]any{"value": false}},
		{"requireSimplestForm": false},
		{},
	} {
		got := analyzer.FractionInput(currentState, args, groups([]domain.Rule{exactlyTenTenths}), &def)
		assert.Empty(t, got)
	}

	got := analyzer.FractionInput(currentState, map[string]any{"requireSimplestForm": true}, groups([]domain.Rule{exactlyTenTenths}), &def)
	assert.Len(t, got, 1)
}

func TestFractionInput_DecodedNumbers(t *testing.T) {
	// Numbers arrive as float64 from JSON and json.Number from strict loaders.
	lt := rule("IsLessThan", map[string]any{"f": fractionDict(false, 0.0, 2.0, 1.0)})
	eq := rule("IsExactlyEqualTo", map[string]any{"f": fractionDict(false, json.Number("0"), json.Number("1"), json.Number("1"))})

	got := analyzeFraction(groups([]domain.Rule{lt, eq}))
	assert.Equal(t, []analyzer.Warning{redundant(2, 1, 1, 1)}, got)
}

func TestFractionInput_MixedNumbers(t *testing.T) {
	// -1 1/2 == -3/2 < -1
	mixed := rule("IsExactlyEqualTo", map[string]any{"f": fractionDict(true, 1, 1, 2)})
	lessThanMinusOne := rule("IsLessThan", map[string]any{"f": fractionDict(true, 1, 0, 1)})

	got := analyzeFraction(groups([]domain.Rule{lessThanMinusOne, mixed}))
	assert.Equal(t, []analyzer.Warning{redundant(2, 1, 1, 1)}, got)

	got = analyzeFraction(groups([]domain.Rule{greaterThanMinusOne, mixed}))
	assert.Empty(t, got)
}

func TestFractionInput_LargeNumbers(t *testing.T) {
	// 4e18 * 4 does not fit in int64.
	huge := rule("IsGreaterThan", map[string]any{"f": fractionDict(false, 4e18, 0, 4)})
	hugeAndAQuarter := rule("IsExactlyEqualTo", map[string]any{"f": fractionDict(false, 4e18, 1, 4)})
	got := analyzeFraction(groups([]domain.Rule{huge, hugeAndAQuarter}))
	assert.Equal(t, []analyzer.Warning{redundant(2, 1, 1, 1)}, got)

	got = analyzeFraction(groups([]domain.Rule{hugeAndAQuarter, huge}))
	assert.Empty(t, got)

	outOfRange := rule("IsExactlyEqualTo", map[string]any{"f": fractionDict(false, 1e19, 0, 1)})
	hugeNumerator := rule("HasNumeratorEqualTo", map[string]any{"x": 1e30})
	got = analyzeFraction(groups([]domain.Rule{outOfRange}, []domain.Rule{hugeNumerator}, []domain.Rule{hugeNumerator}))
	assert.Empty(t, got)
}

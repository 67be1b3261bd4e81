package registry_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(registry.Interaction{ID: "Custom", Rules: map[string]schema.Schema{"Equals": {"x": schema.String()}}})

	spec, err := r.Lookup("Custom")
	require.NoError(t, err)
	assert.Equal(t, "Custom", spec.ID)

	_, err = r.Lookup("Missing")
	assert.ErrorIs(t, err, domain.ErrUnknownInteraction)
	assert.Equal(t, []string{"Custom"}, r.IDs())
}

func TestDefault_ValidateRule(t *testing.T) {
	r := registry.Default()

	tests := []struct {
		name        string
		interaction string
		rule        domain.Rule
		wantErr     bool
	}{
		{
			name:        "fraction rule",
			interaction: "FractionInput",
			rule: domain.Rule{Type: "IsLessThan", Inputs: map[string]any{
				"f": map[string]any{"isNegative": false, "wholeNumber": 0, "numerator": 2, "denominator": 1},
			}},
		},
		{
			name:        "non-integer numerator is still a valid shape",
			interaction: "FractionInput",
			rule:        domain.Rule{Type: "HasNumeratorEqualTo", Inputs: map[string]any{"x": 0.5}},
		},
		{
			name:        "unknown rule type",
			interaction: "FractionInput",
			rule:        domain.Rule{Type: "IsPrime", Inputs: map[string]any{"x": 3}},
			wantErr:     true,
		},
		{
			name:        "wrong input type",
			interaction: "TextInput",
			rule:        domain.Rule{Type: "Equals", Inputs: map[string]any{"x": 3}},
			wantErr:     true,
		},
		{
			name:        "unknown interaction",
			interaction: "Telepathy",
			rule:        domain.Rule{Type: "Equals"},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateRule(tt.interaction, tt.rule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_LoadCatalog(t *testing.T) {
	r := registry.Default()
	err := r.Load(strings.NewReader(`[
		{"id": "GraphInput", "rules": {"HasGraphOfSize": {"n": "int", "labels": "[string]"}}},
		{"id": "Farewell", "terminal": true}
	]`))
	require.NoError(t, err)

	spec, err := r.Lookup("GraphInput")
	require.NoError(t, err)
	inputs, err := spec.RuleSchema("HasGraphOfSize")
	require.NoError(t, err)
	assert.Equal(t, []string{"labels", "n"}, inputs.Fields())
	assert.NoError(t, r.ValidateRule("GraphInput", domain.Rule{Type: "HasGraphOfSize", Inputs: map[string]any{"n": 3, "labels": []any{"a"}}}))
	assert.Error(t, r.ValidateRule("GraphInput", domain.Rule{Type: "HasGraphOfSize", Inputs: map[string]any{"n": 0.5, "labels": []any{}}}))

	farewell, err := r.Lookup("Farewell")
	require.NoError(t, err)
	assert.True(t, farewell.Terminal)
	assert.NotNil(t, farewell.Rules)
}

func TestRegistry_LoadRejectsBadCatalog(t *testing.T) {
	tests := map[string]string{
		"unknown type":  `[{"id": "X", "rules": {"Equals": {"x": "complex"}}}]`,
		"missing id":    `[{"rules": {}}]`,
		"unknown field": `[{"id": "X", "widget": true}]`,
		"not a list":    `{"id": "X"}`,
	}
	for name, catalog := range tests {
		t.Run(name, func(t *testing.T) {
			r := registry.NewRegistry()
			assert.Error(t, r.Load(strings.NewReader(catalog)))
			assert.Empty(t, r.IDs())
		})
	}
}

func TestRegistry_CatalogJSON(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(registry.Interaction{ID: "B", Rules: map[string]schema.Schema{"Equals": {"x": schema.Number()}}})
	r.Register(registry.Interaction{ID: "A", Rules: map[string]schema.Schema{"Is": {"f": schema.Fraction()}}})

	data, err := json.Marshal(r.Catalog())
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id": "A", "rules": {"Is": {"f": "fraction"}}},
		{"id": "B", "rules": {"Equals": {"x": "number"}}}
	]`, string(data))

	back := registry.NewRegistry()
	require.NoError(t, back.Load(strings.NewReader(string(data))))
	assert.Equal(t, []string{"A", "B"}, back.IDs())
}

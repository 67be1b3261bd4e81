package graph_test

import (
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/aretw0/lattice/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(dest string) map[string]any {
	return map[string]any{
		"dest":          dest,
		"feedback":      map[string]any{"html": "", "audio_translations": map[string]any{}},
		"param_changes": []any{},
	}
}

func textState(html string, def map[string]any, groups ...any) map[string]any {
	id := any("TextInput")
	return map[string]any{
		"content": map[string]any{"html": html, "audio_translations": map[string]any{}},
		"interaction": map[string]any{
			"id":                 id,
			"customization_args": map[string]any{},
			"answer_groups":      append([]any{}, groups...),
			"default_outcome":    def,
			"fallbacks":          []any{},
		},
		"param_changes":       []any{},
		"classifier_model_id": nil,
	}
}

func group(dest string, answer string) map[string]any {
	return map[string]any{
		"rules": []any{
			map[string]any{"rule_type": "Equals", "inputs": map[string]any{"x": answer}},
		},
		"outcome": outcome(dest),
		"correct": false,
	}
}

// fixture: Intro -> Middle -> End (END), Middle has a self-loop default outcome.
func fixture() map[string]any {
	return map[string]any{
		"Intro":  textState("<p>Hi</p>", outcome("Middle"), group("Middle", "yes"), group("Intro", "no")),
		"Middle": textState("<p>Mid</p>", outcome("Middle"), group("End", "go")),
		"End":    textState("<p>Bye</p>", outcome(domain.TerminalDest)),
	}
}

func load(t *testing.T, opts ...graph.Option) *graph.Graph {
	t.Helper()
	g, err := graph.FromDict(fixture(), opts...)
	require.NoError(t, err)
	return g
}

func TestFromDict_RoundTrip(t *testing.T) {
	in := fixture()
	g, err := graph.FromDict(in)
	require.NoError(t, err)

	assert.Equal(t, in, g.ToDict())

	again, err := graph.FromDict(g.ToDict())
	require.NoError(t, err)
	assert.Equal(t, g.States(), again.States())
}

func TestFromDict_LegacyRuleKey(t *testing.T) {
	in := fixture()
	st := in["Intro"].(map[string]any)
	groups := st["interaction"].(map[string]any)["answer_groups"].([]any)
	rule := groups[0].(map[string]any)["rules"].([]any)[0].(map[string]any)
	rule["type"] = rule["rule_type"]
	delete(rule, "rule_type")

	g, err := graph.FromDict(in)
	require.NoError(t, err)

	intro, err := g.State("Intro")
	require.NoError(t, err)
	assert.Equal(t, "Equals", intro.Interaction.AnswerGroups[0].Rules[0].Type)

	_, stillLegacy := rule["rule_type"]
	assert.False(t, stillLegacy, "input dict must not be mutated")
}

func TestFromDict_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"not a dict", func(d map[string]any) { d["Intro"] = "nope" }},
		{"missing content", func(d map[string]any) { delete(d["Intro"].(map[string]any), "content") }},
		{"missing interaction", func(d map[string]any) { delete(d["Intro"].(map[string]any), "interaction") }},
		{"unknown field", func(d map[string]any) { d["Intro"].(map[string]any)["extra"] = 1 }},
		{"unknown interaction", func(d map[string]any) {
			d["End"].(map[string]any)["interaction"].(map[string]any)["id"] = "Teleport"
		}},
		{"bad rule input", func(d map[string]any) {
			d["Middle"].(map[string]any)["interaction"].(map[string]any)["answer_groups"] = []any{group("End", "x")}
			rules := d["Middle"].(map[string]any)["interaction"].(map[string]any)["answer_groups"].([]any)[0].(map[string]any)["rules"].([]any)
			rules[0].(map[string]any)["inputs"] = map[string]any{"x": 42}
		}},
		{"dangling destination", func(d map[string]any) {
			d["End"].(map[string]any)["interaction"].(map[string]any)["default_outcome"] = outcome("Nowhere")
		}},
		{"reserved name", func(d map[string]any) { d[domain.TerminalDest] = d["End"] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fixture()
			tt.mutate(in)
			_, err := graph.FromDict(in)
			assert.ErrorIs(t, err, domain.ErrMalformedStateData)
		})
	}
}

func TestFromDict_RuleErrorLocatesRule(t *testing.T) {
	in := fixture()
	interaction := in["Middle"].(map[string]any)["interaction"].(map[string]any)
	interaction["answer_groups"] = []any{group("End", "x"), group("End", "y")}
	rules := interaction["answer_groups"].([]any)[1].(map[string]any)["rules"].([]any)
	rules[0].(map[string]any)["inputs"] = map[string]any{"x": 42}

	_, err := graph.FromDict(in)
	assert.ErrorIs(t, err, domain.ErrMalformedStateData)
	assert.ErrorIs(t, err, schema.ErrInvalidInput)

	var re *schema.RuleError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, re.Group)
	assert.Equal(t, 1, re.Rule)
	require.Len(t, schema.FieldErrors(err), 1)
	assert.Equal(t, "x", schema.FieldErrors(err)[0].Field)
}

func TestFromDict_InitStateMustExist(t *testing.T) {
	_, err := graph.FromDict(fixture(), graph.WithInitState("Ghost"))
	assert.ErrorIs(t, err, domain.ErrMalformedStateData)
}

func TestState_ReturnsCopy(t *testing.T) {
	g := load(t)

	st, err := g.State("Intro")
	require.NoError(t, err)
	st.Content.HTML = "changed"
	st.Interaction.AnswerGroups[0].Outcome.Dest = "End"

	again, err := g.State("Intro")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", again.Content.HTML)
	assert.Equal(t, "Middle", again.Interaction.AnswerGroups[0].Outcome.Dest)
}

func TestState_UnknownSuggestsName(t *testing.T) {
	g := load(t)
	_, err := g.State("Midle")
	assert.ErrorIs(t, err, domain.ErrUnknownState)
	assert.Contains(t, err.Error(), `did you mean "Middle"`)

	_, err = g.State("Zebra")
	assert.ErrorIs(t, err, domain.ErrUnknownState)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestAddState(t *testing.T) {
	g := load(t)
	require.NoError(t, g.AddState("New"))

	st, err := g.State("New")
	require.NoError(t, err)
	assert.Equal(t, "New", st.Name)
	assert.Empty(t, st.Content.HTML)
	assert.Empty(t, st.Interaction.AnswerGroups)
	assert.Empty(t, st.Interaction.Fallbacks)
	require.NotNil(t, st.Interaction.DefaultOutcome)
	assert.Equal(t, "New", st.Interaction.DefaultOutcome.Dest)

	assert.ErrorIs(t, g.AddState("New"), domain.ErrDuplicateStateName)
	assert.ErrorIs(t, g.AddState(""), domain.ErrInvalidStateName)
	assert.ErrorIs(t, g.AddState(domain.TerminalDest), domain.ErrInvalidStateName)
}

func TestAddState_CustomTemplate(t *testing.T) {
	tmpl := graph.TemplateFunc(func(name string) domain.State {
		st := graph.DefaultTemplate(name)
		st.Content.HTML = "<p>TODO</p>"
		st.Interaction.DefaultOutcome.Dest = domain.TerminalDest
		return st
	})
	g, err := graph.New(graph.WithTemplate(tmpl), graph.WithInitState("Start"))
	require.NoError(t, err)

	st, err := g.State("Start")
	require.NoError(t, err)
	assert.Equal(t, "<p>TODO</p>", st.Content.HTML)
	assert.Equal(t, domain.TerminalDest, st.Interaction.DefaultOutcome.Dest)
}

func TestRenameState_RewritesAllOutcomes(t *testing.T) {
	g := load(t, graph.WithInitState("Intro"))
	require.NoError(t, g.RenameState("Middle", "Center"))

	assert.False(t, g.Has("Middle"))
	assert.Equal(t, "Intro", g.InitState())

	intro, _ := g.State("Intro")
	assert.Equal(t, "Center", intro.Interaction.AnswerGroups[0].Outcome.Dest)
	assert.Equal(t, "Center", intro.Interaction.DefaultOutcome.Dest)

	center, err := g.State("Center")
	require.NoError(t, err)
	assert.Equal(t, "Center", center.Name)
	assert.Equal(t, "Center", center.Interaction.DefaultOutcome.Dest, "self-loop follows the rename")

	assert.NoError(t, graph.CheckIntegrity(g.States()))
}

func TestRenameState_InitState(t *testing.T) {
	g := load(t, graph.WithInitState("Intro"))
	require.NoError(t, g.RenameState("Intro", "Welcome"))
	assert.Equal(t, "Welcome", g.InitState())

	welcome, _ := g.State("Welcome")
	assert.Equal(t, "Welcome", welcome.Interaction.AnswerGroups[1].Outcome.Dest)
}

func TestRenameState_Errors(t *testing.T) {
	g := load(t)
	before := g.ToDict()

	assert.ErrorIs(t, g.RenameState("Ghost", "X"), domain.ErrUnknownState)
	assert.ErrorIs(t, g.RenameState("Intro", "End"), domain.ErrDuplicateStateName)
	assert.ErrorIs(t, g.RenameState("Intro", ""), domain.ErrInvalidStateName)
	assert.NoError(t, g.RenameState("Intro", "Intro"))

	assert.Equal(t, before, g.ToDict())
}

func TestDeleteState_RepointsEverySite(t *testing.T) {
	g := load(t)
	require.NoError(t, g.SetFallbacks("End", []domain.Fallback{
		{Trigger: domain.Trigger{Type: "NthResubmission"}, Outcome: domain.Outcome{Dest: "Middle"}},
	}))

	require.NoError(t, g.DeleteState("Middle"))
	assert.False(t, g.Has("Middle"))

	intro, _ := g.State("Intro")
	assert.Equal(t, domain.TerminalDest, intro.Interaction.AnswerGroups[0].Outcome.Dest)
	assert.Equal(t, "Intro", intro.Interaction.AnswerGroups[1].Outcome.Dest)
	assert.Equal(t, domain.TerminalDest, intro.Interaction.DefaultOutcome.Dest)

	end, _ := g.State("End")
	assert.Equal(t, domain.TerminalDest, end.Interaction.Fallbacks[0].Outcome.Dest)

	assert.NoError(t, graph.CheckIntegrity(g.States()))
}

func TestDeleteState_RejectPolicy(t *testing.T) {
	g := load(t, graph.WithDeletePolicy(graph.RejectIfReferenced))
	before := g.ToDict()

	err := g.DeleteState("Middle")
	assert.ErrorIs(t, err, domain.ErrHasIncomingReferences)
	assert.Contains(t, err.Error(), `"Intro"`)
	assert.Equal(t, before, g.ToDict())

	// Intro is only referenced by itself.
	require.NoError(t, g.SetAnswerGroups("Intro", nil))
	require.NoError(t, g.SetDefaultOutcome("Intro", &domain.Outcome{Dest: "Intro"}))
	assert.NoError(t, g.DeleteState("Intro"))
}

func TestDeleteState_Errors(t *testing.T) {
	g := load(t, graph.WithInitState("Intro"))
	assert.ErrorIs(t, g.DeleteState("Ghost"), domain.ErrUnknownState)
	assert.ErrorIs(t, g.DeleteState("Intro"), domain.ErrInitialState)
}

func TestSetters_KeepIntegrity(t *testing.T) {
	g := load(t)
	before := g.ToDict()

	err := g.SetDefaultOutcome("End", &domain.Outcome{Dest: "Nowhere"})
	assert.ErrorIs(t, err, domain.ErrUnknownState)

	var integrity *graph.IntegrityError
	require.True(t, errors.As(err, &integrity))
	require.Len(t, integrity.Dangling, 1)
	assert.Equal(t, "Nowhere", integrity.Dangling[0].Dest)

	assert.ErrorIs(t, g.SetInteractionID("End", "Teleport"), domain.ErrUnknownInteraction)
	assert.ErrorIs(t, g.SetInteractionID("Intro", "NumericInput"), domain.ErrMalformedStateData)
	assert.ErrorIs(t, g.SetContent("Ghost", domain.Content{}), domain.ErrUnknownState)

	assert.Equal(t, before, g.ToDict())
}

func TestSetters_CopyInput(t *testing.T) {
	g := load(t)
	args := map[string]any{"placeholder": "type here"}
	require.NoError(t, g.SetCustomizationArgs("Intro", args))
	args["placeholder"] = "mutated"

	intro, _ := g.State("Intro")
	assert.Equal(t, "type here", intro.Interaction.CustomizationArgs["placeholder"])
}

func TestCheckIntegrity_ReportsAll(t *testing.T) {
	states := map[string]domain.State{
		"A": {Interaction: domain.Interaction{DefaultOutcome: &domain.Outcome{Dest: "X"}}},
		"B": {Interaction: domain.Interaction{
			AnswerGroups: []domain.AnswerGroup{{Outcome: domain.Outcome{Dest: "Y"}}},
			Fallbacks:    []domain.Fallback{{Outcome: domain.Outcome{Dest: "A"}}},
		}},
	}

	err := graph.CheckIntegrity(states)
	var integrity *graph.IntegrityError
	require.True(t, errors.As(err, &integrity))
	require.Len(t, integrity.Dangling, 2)
	assert.Equal(t, "A", integrity.Dangling[0].State)
	assert.Equal(t, domain.OutcomeDefault, integrity.Dangling[0].Kind)
	assert.Equal(t, "B", integrity.Dangling[1].State)
	assert.Equal(t, domain.OutcomeAnswerGroup, integrity.Dangling[1].Kind)
	assert.Contains(t, err.Error(), "2 dangling destinations")
}

func TestUnreachable(t *testing.T) {
	g := load(t, graph.WithInitState("Intro"))
	assert.Empty(t, g.Unreachable())

	require.NoError(t, g.AddState("Island"))
	assert.Equal(t, []string{"Island"}, g.Unreachable())

	noInit := load(t)
	assert.Nil(t, noInit.Unreachable())
}

func TestIncomingReferences(t *testing.T) {
	g := load(t)
	refs := g.IncomingReferences("Middle")
	assert.Equal(t, []domain.OutcomeRef{
		{State: "Intro", Kind: domain.OutcomeAnswerGroup, Index: 0},
		{State: "Intro", Kind: domain.OutcomeDefault},
	}, refs)
}

func TestParseDeletePolicy(t *testing.T) {
	p, err := graph.ParseDeletePolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, graph.RejectIfReferenced, p)

	p, err = graph.ParseDeletePolicy("")
	require.NoError(t, err)
	assert.Equal(t, graph.RepointToTerminal, p)
	assert.Equal(t, "repoint", p.String())

	_, err = graph.ParseDeletePolicy("cascade")
	assert.Error(t, err)
}

package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/internal/testutils"
	latticeloam "github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startMD = `---
init: true
interaction:
  id: TextInput
  customization_args: {}
  answer_groups:
    - rules:
        - rule_type: Equals
          inputs: {x: hello}
      outcome:
        dest: End
        feedback: {html: <p>Hi</p>, audio_translations: {}}
        param_changes: []
      correct: true
  default_outcome:
    dest: Start
    feedback: {html: <p>Say hello</p>, audio_translations: {}}
    param_changes: []
  fallbacks: []
---
<p>Greet me</p>
`

const endMD = `---
interaction:
  id: EndExploration
  customization_args: {}
  answer_groups: []
  default_outcome: null
  fallbacks: []
---
<p>Bye</p>
`

func setup(t *testing.T, files map[string]string) *latticeloam.Source {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, files)
	return latticeloam.New(loam.NewTypedRepository[latticeloam.StateMetadata](repo))
}

func TestSource_Contract(t *testing.T) {
	src := setup(t, map[string]string{
		"greeting/Start.md": startMD,
		"greeting/End.md":   endMD,
		"farewell/Bye.md":   endMD,
	})

	tests.GraphSourceContractTest(t, src, map[string]ports.GraphDocument{
		"greeting": {InitStateName: "Start", States: map[string]any{"Start": nil, "End": nil}},
		"farewell": {InitStateName: "", States: map[string]any{"Bye": nil}},
	})
}

func TestSource_DecodesIntoGraph(t *testing.T) {
	src := setup(t, map[string]string{
		"greeting/Start.md": startMD,
		"greeting/End.md":   endMD,
	})

	doc, err := src.Load(context.Background(), "greeting")
	require.NoError(t, err)

	g, err := graph.FromDict(doc.States, graph.WithInitState(doc.InitStateName))
	require.NoError(t, err)

	start, err := g.State("Start")
	require.NoError(t, err)
	assert.Equal(t, "<p>Greet me</p>", start.Content.HTML)
	assert.Equal(t, "TextInput", start.Interaction.ID)
	require.Len(t, start.Interaction.AnswerGroups, 1)
	assert.Equal(t, "End", start.Interaction.AnswerGroups[0].Outcome.Dest)
	assert.Empty(t, g.Unreachable())
}

func TestSource_NameOverride(t *testing.T) {
	src := setup(t, map[string]string{
		"doc/first.md": "---\nname: Welcome\ninit: true\n---\nHello\n",
	})

	doc, err := src.Load(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", doc.InitStateName)
	assert.Contains(t, doc.States, "Welcome")
	assert.NotContains(t, doc.States, "first")
}

func TestSource_Malformed(t *testing.T) {
	t.Run("Two init states", func(t *testing.T) {
		src := setup(t, map[string]string{
			"doc/a.md": "---\ninit: true\n---\nA\n",
			"doc/b.md": "---\ninit: true\n---\nB\n",
		})
		_, err := src.Load(context.Background(), "doc")
		assert.ErrorIs(t, err, domain.ErrMalformedStateData)
	})

	t.Run("Name collision", func(t *testing.T) {
		src := setup(t, map[string]string{
			"doc/a.md": "---\nname: Same\n---\nA\n",
			"doc/b.md": "---\nname: Same\n---\nB\n",
		})
		_, err := src.Load(context.Background(), "doc")
		require.ErrorIs(t, err, domain.ErrMalformedStateData)
		assert.Contains(t, err.Error(), "Same")
	})
}

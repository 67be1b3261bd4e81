package property_test

import (
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	explanation string
	examples    []string
}

var errEmpty = errors.New("explanation cannot be empty")

func setExplanation(c *card, v string) error {
	if v == "" {
		return errEmpty
	}
	c.explanation = v
	return nil
}

func setExamples(c *card, v []string) error {
	c.examples = v
	return nil
}

func TestNewChange_ForwardAndReverse(t *testing.T) {
	c := &card{explanation: "old"}
	h := history.New[*card]()

	change := property.NewChange("update_skill_contents_property", "explanation", "new", "old", setExplanation)
	require.NoError(t, h.Apply(c, change))
	assert.Equal(t, "new", c.explanation)

	require.NoError(t, h.Undo(c))
	assert.Equal(t, "old", c.explanation)

	desc := h.AppliedChanges()
	assert.Empty(t, desc)
	require.NoError(t, h.Redo(c))
	desc = h.AppliedChanges()
	require.Len(t, desc, 1)
	assert.Equal(t, "update_skill_contents_property", desc[0].Cmd)
	assert.Equal(t, history.Params{
		"property_name": "explanation",
		"new_value":     "new",
		"old_value":     "old",
	}, desc[0].Params)
}

func TestNewChange_SetterValidationRuns(t *testing.T) {
	c := &card{explanation: "old"}
	h := history.New[*card]()

	err := h.Apply(c, property.NewChange("update_skill_contents_property", "explanation", "", "old", setExplanation))
	assert.ErrorIs(t, err, errEmpty)
	assert.Equal(t, "old", c.explanation)
	assert.False(t, h.HasUnsavedChanges())
}

func TestNewChange_CapturedValuesAreIsolated(t *testing.T) {
	c := &card{examples: []string{"a"}}
	h := history.New[*card]()

	newValue := []string{"a", "b"}
	oldValue := c.examples
	change := property.NewChange("update_skill_contents_property", "worked_examples", newValue, oldValue, setExamples)

	newValue[0] = "mutated"
	oldValue[0] = "mutated"

	require.NoError(t, h.Apply(c, change))
	assert.Equal(t, []string{"a", "b"}, c.examples)

	c.examples[1] = "mutated-through-aggregate"
	require.NoError(t, h.Undo(c))
	require.NoError(t, h.Redo(c))
	assert.Equal(t, []string{"a", "b"}, c.examples)

	require.NoError(t, h.Undo(c))
	assert.Equal(t, []string{"a"}, c.examples)
}

func TestNewChange_ExtraParams(t *testing.T) {
	change := property.NewChange("edit_state_property", "content", "x", "y",
		func(*card, string) error { return nil },
		property.WithParam("state_name", "Intro"),
	)

	assert.Equal(t, "Intro", change.Descriptor().Params["state_name"])
}

func TestValue_TypeMismatch(t *testing.T) {
	_, err := property.Value[int](history.Params{"new_value": "nope"}, "new_value")
	assert.Error(t, err)

	v, err := property.Value[*string](history.Params{}, "new_value")
	require.NoError(t, err)
	assert.Nil(t, v)
}

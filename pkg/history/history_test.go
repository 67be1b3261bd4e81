package history_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	title string
	tags  []string
}

func setTitle(newTitle, oldTitle string) history.Change[*note] {
	return history.NewChange("set_title",
		history.Params{"new_value": newTitle, "old_value": oldTitle},
		func(n *note, p history.Params) error {
			v, err := p.String("new_value")
			if err != nil {
				return err
			}
			n.title = v
			return nil
		},
		func(n *note, p history.Params) error {
			v, err := p.String("old_value")
			if err != nil {
				return err
			}
			n.title = v
			return nil
		},
	)
}

func addTag(tag string) history.Change[*note] {
	return history.NewChange("add_tag",
		history.Params{"tag": tag},
		func(n *note, p history.Params) error {
			n.tags = append(n.tags, p["tag"].(string))
			return nil
		},
		func(n *note, p history.Params) error {
			n.tags = n.tags[:len(n.tags)-1]
			return nil
		},
	)
}

func TestHistory_ApplyUndoRedo(t *testing.T) {
	n := &note{title: "a"}
	h := history.New[*note]()

	require.NoError(t, h.Apply(n, setTitle("b", "a")))
	require.NoError(t, h.Apply(n, addTag("x")))
	assert.Equal(t, "b", n.title)
	assert.Equal(t, []string{"x"}, n.tags)
	assert.True(t, h.HasUnsavedChanges())

	require.NoError(t, h.Undo(n))
	require.NoError(t, h.Undo(n))
	assert.Equal(t, "a", n.title)
	assert.Empty(t, n.tags)
	assert.False(t, h.HasUnsavedChanges())
	assert.ErrorIs(t, h.Undo(n), domain.ErrNothingToUndo)

	require.NoError(t, h.Redo(n))
	assert.Equal(t, "b", n.title)
	assert.True(t, h.CanRedo())
	require.NoError(t, h.Redo(n))
	assert.Equal(t, []string{"x"}, n.tags)
	assert.ErrorIs(t, h.Redo(n), domain.ErrNothingToRedo)
}

func TestHistory_NewApplyDiscardsRedo(t *testing.T) {
	n := &note{title: "a"}
	h := history.New[*note]()

	require.NoError(t, h.Apply(n, setTitle("b", "a")))
	require.NoError(t, h.Undo(n))
	require.NoError(t, h.Apply(n, setTitle("c", "a")))

	assert.ErrorIs(t, h.Redo(n), domain.ErrNothingToRedo)
	assert.Equal(t, "c", n.title)
	assert.Equal(t, 1, h.Len())

	changes := h.AppliedChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, "c", changes[0].Params["new_value"])
}

func TestHistory_RollbackKeepsRedo(t *testing.T) {
	n := &note{title: "a"}
	h := history.New[*note]()

	require.NoError(t, h.Apply(n, setTitle("b", "a")))
	require.NoError(t, h.Apply(n, addTag("x")))
	require.NoError(t, h.Undo(n))

	cp := h.Checkpoint()
	require.NoError(t, h.Apply(n, addTag("y")))
	require.NoError(t, h.Apply(n, setTitle("c", "b")))
	require.NoError(t, h.Rollback(n, cp))

	assert.Equal(t, "b", n.title)
	assert.Empty(t, n.tags)
	assert.Equal(t, 2, h.Len())
	assert.True(t, h.CanRedo())

	require.NoError(t, h.Redo(n))
	assert.Equal(t, []string{"x"}, n.tags)
	assert.ErrorIs(t, h.Redo(n), domain.ErrNothingToRedo)
}

func TestHistory_FailedForwardIsNotRecorded(t *testing.T) {
	n := &note{title: "a"}
	h := history.New[*note]()
	boom := errors.New("boom")

	failing := history.NewChange("explode", nil,
		func(*note, history.Params) error { return boom },
		func(*note, history.Params) error { return nil },
	)

	assert.ErrorIs(t, h.Apply(n, failing), boom)
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.HasUnsavedChanges())
}

func TestHistory_FailedReverseKeepsCursor(t *testing.T) {
	n := &note{}
	h := history.New[*note]()
	boom := errors.New("boom")

	stuck := history.NewChange("stuck", nil,
		func(*note, history.Params) error { return nil },
		func(*note, history.Params) error { return boom },
	)
	require.NoError(t, h.Apply(n, stuck))

	assert.ErrorIs(t, h.Undo(n), boom)
	assert.True(t, h.CanUndo())
	assert.Len(t, h.AppliedChanges(), 1)
}

func TestHistory_MarkSaved(t *testing.T) {
	n := &note{}
	h := history.New[*note]()
	require.NoError(t, h.Apply(n, addTag("x")))

	h.MarkSaved()

	assert.False(t, h.HasUnsavedChanges())
	assert.Empty(t, h.AppliedChanges())
	assert.ErrorIs(t, h.Undo(n), domain.ErrNothingToUndo)
	assert.Equal(t, []string{"x"}, n.tags)
}

func TestHistory_ParamsAreIsolated(t *testing.T) {
	n := &note{}
	h := history.New[*note]()
	params := history.Params{"tag": "x"}

	c := history.NewChange("add_tag", params,
		func(n *note, p history.Params) error {
			n.tags = append(n.tags, p["tag"].(string))
			p["tag"] = "mutated-by-op"
			return nil
		},
		func(n *note, p history.Params) error {
			n.tags = n.tags[:len(n.tags)-1]
			return nil
		},
	)
	params["tag"] = "mutated-by-caller"

	require.NoError(t, h.Apply(n, c))
	assert.Equal(t, []string{"x"}, n.tags)
	assert.Equal(t, "x", h.AppliedChanges()[0].Params["tag"])
}

func TestHistory_Hooks(t *testing.T) {
	var events []history.Event
	h := history.New[*note](history.WithHooks(history.Hooks{
		OnCommand: func(e history.Event) { events = append(events, e) },
	}))
	n := &note{}

	require.NoError(t, h.Apply(n, addTag("x")))
	require.NoError(t, h.Undo(n))

	require.Len(t, events, 2)
	assert.Equal(t, history.Event{Action: history.ActionApply, Cmd: "add_tag"}, events[0])
	assert.Equal(t, history.ActionUndo, events[1].Action)
}

func TestDescriptor_FlatJSON(t *testing.T) {
	d := history.Descriptor{
		Cmd:    "update_skill_property",
		Params: history.Params{"property_name": "description", "new_value": "b", "old_value": "a"},
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cmd":"update_skill_property","property_name":"description","new_value":"b","old_value":"a"}`, string(data))

	var back history.Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}

func TestDescriptorFromDict_RequiresCmd(t *testing.T) {
	_, err := history.DescriptorFromDict(map[string]any{"state_name": "a"})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
}

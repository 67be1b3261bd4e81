package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunChangeLogStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	changes := []history.Descriptor{{Cmd: "add_state", Params: history.Params{"state_name": "A"}}}
	_, err := store.Append(ctx, "doc", 0, changes, "")
	require.NoError(t, err)
	changes[0].Params["state_name"] = "mutated"

	commits, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	commits[0].Changes[0].Cmd = "mutated"

	again, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "add_state", again[0].Changes[0].Cmd)
	assert.Equal(t, "A", again[0].Changes[0].Params["state_name"])
}

func TestMemorySource_Contract(t *testing.T) {
	docs := map[string]ports.GraphDocument{
		"intro": {InitStateName: "Start", States: map[string]any{"Start": map[string]any{}, "Next": map[string]any{}}},
		"quiz":  {InitStateName: "Q1", States: map[string]any{"Q1": map[string]any{}}},
	}
	tests.GraphSourceContractTest(t, memory.NewSource(docs), docs)
}

package tests

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GraphSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphSource.
// Every document in want must be loadable with exactly the given init state and state names.
func GraphSourceContractTest(t *testing.T, src ports.GraphSource, want map[string]ports.GraphDocument) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for id, expected := range want {
			doc, err := src.Load(ctx, id)
			require.NoError(t, err, id)
			assert.Equal(t, expected.InitStateName, doc.InitStateName, id)

			names := make([]string, 0, len(doc.States))
			for name := range doc.States {
				names = append(names, name)
			}
			expectedNames := make([]string, 0, len(expected.States))
			for name := range expected.States {
				expectedNames = append(expectedNames, name)
			}
			assert.ElementsMatch(t, expectedNames, names, id)
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := src.Load(ctx, "non-existent-doc")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("List", func(t *testing.T) {
		docs, err := src.List(ctx)
		require.NoError(t, err)
		for id := range want {
			assert.Contains(t, docs, id)
		}
		assert.IsNonDecreasing(t, docs)
	})
}

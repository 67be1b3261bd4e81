package ports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunChangeLogStoreContract runs a suite of tests to verify that a ChangeLogStore
// implementation adheres to the defined interface contract.
func RunChangeLogStoreContract(t *testing.T, store ChangeLogStore) {
	ctx := context.Background()
	docID := "contract-doc-" + time.Now().Format("20060102150405.000000")

	first := []history.Descriptor{
		{Cmd: "add_state", Params: history.Params{"state_name": "Second"}},
		{Cmd: "rename_state", Params: history.Params{"old_state_name": "Second", "new_state_name": "Next"}},
	}
	second := []history.Descriptor{
		{Cmd: "delete_state", Params: history.Params{"state_name": "Next"}},
	}

	t.Run("Empty Document", func(t *testing.T) {
		commits, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Empty(t, commits)

		v, err := store.Version(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	})

	t.Run("Append and Load", func(t *testing.T) {
		c1, err := store.Append(ctx, docID, 0, first, "add a state")
		require.NoError(t, err)
		assert.NotEmpty(t, c1.ID)
		assert.Equal(t, docID, c1.DocID)
		assert.Equal(t, 1, c1.Version)
		assert.Equal(t, "add a state", c1.Message)
		assert.False(t, c1.CreatedAt.IsZero())

		c2, err := store.Append(ctx, docID, 1, second, "")
		require.NoError(t, err)
		assert.Equal(t, 2, c2.Version)
		assert.NotEqual(t, c1.ID, c2.ID)

		commits, err := store.Load(ctx, docID)
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, 1, commits[0].Version)
		assert.Equal(t, first, commits[0].Changes)
		assert.Equal(t, 2, commits[1].Version)
		assert.Equal(t, second, commits[1].Changes)
		assert.Equal(t, c1.ID, commits[0].ID)

		v, err := store.Version(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("Stale Version", func(t *testing.T) {
		_, err := store.Append(ctx, docID, 1, second, "stale")
		require.ErrorIs(t, err, domain.ErrVersionConflict)
		assert.Contains(t, err.Error(), "Trying to update version 2 of "+docID+" from version 1, which is too old.")

		v, err := store.Version(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, 2, v, "a rejected append must not store anything")
	})

	t.Run("Invalid Requests", func(t *testing.T) {
		_, err := store.Append(ctx, docID, -1, second, "")
		assert.ErrorIs(t, err, domain.ErrInvalidVersion)

		_, err = store.Append(ctx, docID, 7, second, "")
		assert.ErrorIs(t, err, domain.ErrInvalidVersion)

		_, err = store.Append(ctx, docID, 2, nil, "")
		assert.ErrorIs(t, err, domain.ErrNoChanges)
	})

	t.Run("Concurrent Appends", func(t *testing.T) {
		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Append(ctx, docID, 2, second, "race")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrVersionConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, writers-1, conflicts)

		v, err := store.Version(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("List", func(t *testing.T) {
		other := docID + "-other"
		_, err := store.Append(ctx, other, 0, first, "")
		require.NoError(t, err)

		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, docs, docID)
		assert.Contains(t, docs, other)
		assert.IsNonDecreasing(t, docs)
	})
}

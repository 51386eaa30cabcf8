package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltspan/feederflow/pkg/storage"
)

func newTestRevisions(t *testing.T) *RevisionStore {
	t.Helper()
	return NewRevisionStore(storage.NewLocalStore(t.TempDir()), "revisions")
}

func TestRevisionPushUndoRedo(t *testing.T) {
	rs := newTestRevisions(t)
	ctx := context.Background()

	for _, content := range []string{"rev a", "rev b", "rev c"} {
		_, err := rs.Push(ctx, "feeder.hcl", []byte(content))
		require.NoError(t, err)
	}

	revs, cursor, err := rs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, revs, 3)
	assert.Equal(t, 2, cursor)

	content, info, err := rs.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev b", string(content))
	assert.Equal(t, 1, info.Seq)

	content, info, err = rs.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev a", string(content))
	assert.Equal(t, 0, info.Seq)

	_, _, err = rs.Undo(ctx)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	content, _, err = rs.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev b", string(content))
}

func TestRevisionPushDropsRedoTail(t *testing.T) {
	rs := newTestRevisions(t)
	ctx := context.Background()

	for _, content := range []string{"rev a", "rev b", "rev c"} {
		_, err := rs.Push(ctx, "feeder.hcl", []byte(content))
		require.NoError(t, err)
	}

	_, _, err := rs.Undo(ctx) // back to b
	require.NoError(t, err)

	info, err := rs.Push(ctx, "feeder.hcl", []byte("rev d"))
	require.NoError(t, err)
	assert.Equal(t, 2, info.Seq)

	// c is gone; redo has nowhere to go.
	_, _, err = rs.Redo(ctx)
	assert.ErrorIs(t, err, ErrNothingToRedo)

	revs, cursor, err := rs.List(ctx)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, 2, cursor)
	assert.Equal(t, "feeder.hcl", revs[2].Path)

	content, _, err := rs.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev b", string(content))

	content, _, err = rs.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev d", string(content))
}

func TestRevisionEmptyStack(t *testing.T) {
	rs := newTestRevisions(t)
	ctx := context.Background()

	revs, cursor, err := rs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, revs)
	assert.Equal(t, -1, cursor)

	_, _, err = rs.Undo(ctx)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, _, err = rs.Redo(ctx)
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/storage"
)

func TestBlobRoundTrip(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	content := []byte("raw upload bytes")
	require.NoError(t, repos.Blobs.PutBlob(ctx, "owner-1", 1, content))

	got, err := repos.Blobs.GetBlob(ctx, "owner-1", 1)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Keyed by owner as well as document.
	_, err = repos.Blobs.GetBlob(ctx, "owner-2", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlobDelete(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Blobs.PutBlob(ctx, "owner-1", 1, []byte("bytes")))
	require.NoError(t, repos.Blobs.DeleteBlob(ctx, "owner-1", 1))

	_, err := repos.Blobs.GetBlob(ctx, "owner-1", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing blob is not an error.
	assert.NoError(t, repos.Blobs.DeleteBlob(ctx, "owner-1", 1))
}

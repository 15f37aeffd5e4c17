package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

func newTestChunk(documentID core.ID, ordinal int, text string) *core.Chunk {
	return &core.Chunk{
		DocumentId: documentID,
		OwnerId:    "owner-1",
		Ordinal:    ordinal,
		Text:       text,
		TextHash:   core.IDFromContent(text),
		Page:       1,
		PointId:    core.ChunkPointID(documentID, ordinal),
	}
}

func TestAddAndGetChunks(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	docID := core.ID(42)
	added, err := repos.Chunks.AddChunks(ctx,
		newTestChunk(docID, 0, "first chunk"),
		newTestChunk(docID, 1, "second chunk"),
		newTestChunk(docID, 2, "third chunk"),
	)
	require.NoError(t, err)
	require.Len(t, added, 3)
	assert.False(t, added[0].InsertedAt.IsZero())

	chunks, err := repos.Chunks.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
	}
	assert.Equal(t, "first chunk", chunks[0].Text)
}

func TestGetChunksOrderedByOrdinal(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	// Insert out of order; ordinal order must come back regardless.
	docID := core.ID(7)
	var inserts []*core.Chunk
	for _, ordinal := range []int{5, 0, 300, 2, 17} {
		inserts = append(inserts, newTestChunk(docID, ordinal, fmt.Sprintf("chunk %d", ordinal)))
	}
	_, err := repos.Chunks.AddChunks(ctx, inserts...)
	require.NoError(t, err)

	chunks, err := repos.Chunks.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	assert.Equal(t, []int{0, 2, 5, 17, 300},
		[]int{chunks[0].Ordinal, chunks[1].Ordinal, chunks[2].Ordinal, chunks[3].Ordinal, chunks[4].Ordinal})
}

func TestAddChunksDuplicateOrdinal(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Chunks.AddChunks(ctx, newTestChunk(1, 0, "chunk"))
	require.NoError(t, err)

	_, err = repos.Chunks.AddChunks(ctx, newTestChunk(1, 0, "other chunk"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestChunksIsolatedByDocument(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Chunks.AddChunks(ctx, newTestChunk(1, 0, "doc one chunk"))
	require.NoError(t, err)
	_, err = repos.Chunks.AddChunks(ctx, newTestChunk(2, 0, "doc two chunk"))
	require.NoError(t, err)

	chunks, err := repos.Chunks.GetChunks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc one chunk", chunks[0].Text)
}

func TestDeleteChunks(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Chunks.AddChunks(ctx,
		newTestChunk(1, 0, "a"),
		newTestChunk(1, 1, "b"),
		newTestChunk(2, 0, "c"),
	)
	require.NoError(t, err)

	deleted, err := repos.Chunks.DeleteChunks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	chunks, err := repos.Chunks.GetChunks(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// The other document's chunks survive.
	chunks, err = repos.Chunks.GetChunks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestMarkEmbedded(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	_, err := repos.Chunks.AddChunks(ctx, newTestChunk(1, 0, "chunk"))
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repos.Chunks.MarkEmbedded(ctx, 1, 0, at))

	chunk, err := repos.Chunks.GetChunk(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, at, chunk.EmbeddedAt)

	err = repos.Chunks.MarkEmbedded(ctx, 1, 99, at)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

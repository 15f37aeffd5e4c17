package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

func newTestIndex(t *testing.T) vectorstore.Index {
	t.Helper()
	repos := newTestRepositories(t)
	err := repos.Vectors.EnsureCollection(context.Background(), 3, vectorstore.MetricCosine)
	require.NoError(t, err)
	return repos.Vectors
}

func newTestPoint(ownerID string, documentID core.ID, ordinal int, vector []float32) *vectorstore.Point {
	return &vectorstore.Point{
		Id:         core.ChunkPointID(documentID, ordinal),
		Vector:     vector,
		OwnerId:    ownerID,
		DocumentId: documentID,
		Ordinal:    ordinal,
		Text:       fmt.Sprintf("chunk %d of document %d", ordinal, documentID),
	}
}

func TestEnsureCollectionIdempotent(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Vectors.EnsureCollection(ctx, 3, vectorstore.MetricCosine))
	require.NoError(t, repos.Vectors.EnsureCollection(ctx, 3, vectorstore.MetricCosine))

	err := repos.Vectors.EnsureCollection(ctx, 4, vectorstore.MetricCosine)
	assert.ErrorIs(t, err, vectorstore.ErrConfigMismatch)
	err = repos.Vectors.EnsureCollection(ctx, 3, vectorstore.MetricDot)
	assert.ErrorIs(t, err, vectorstore.ErrConfigMismatch)
}

func TestUpsertRequiresCollection(t *testing.T) {
	repos := newTestRepositories(t)

	err := repos.Vectors.Upsert(context.Background(), newTestPoint("owner-1", 1, 0, []float32{1, 0, 0}))
	assert.ErrorIs(t, err, vectorstore.ErrNotConfigured)
}

func TestUpsertRejectsBadPoints(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	err := index.Upsert(ctx, newTestPoint("", 1, 0, []float32{1, 0, 0}))
	assert.ErrorIs(t, err, vectorstore.ErrEmptyOwner)

	err = index.Upsert(ctx, newTestPoint("owner-1", 1, 0, []float32{1, 0}))
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestSearchRanksByScore(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx,
		newTestPoint("owner-1", 1, 0, []float32{1, 0, 0}),
		newTestPoint("owner-1", 1, 1, []float32{0.9, 0.1, 0}),
		newTestPoint("owner-1", 1, 2, []float32{0, 1, 0}),
	))

	matches, err := index.Search(ctx, []float32{1, 0, 0}, "owner-1", nil, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, core.ChunkPointID(1, 0), matches[0].Point.Id)
	assert.Equal(t, core.ChunkPointID(1, 1), matches[1].Point.Id)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestSearchThresholdNeverPads(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx,
		newTestPoint("owner-1", 1, 0, []float32{0, 1, 0}),
	))

	// Nothing clears a 0.9 threshold: the result is empty, not padded.
	matches, err := index.Search(ctx, []float32{1, 0, 0}, "owner-1", nil, 10, 0.9)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchTenantIsolation(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx,
		newTestPoint("owner-1", 1, 0, []float32{1, 0, 0}),
		newTestPoint("owner-2", 2, 0, []float32{1, 0, 0}),
	))

	matches, err := index.Search(ctx, []float32{1, 0, 0}, "owner-1", nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "owner-1", matches[0].Point.OwnerId)

	_, err = index.Search(ctx, []float32{1, 0, 0}, "", nil, 10, 0)
	assert.ErrorIs(t, err, vectorstore.ErrEmptyOwner)
}

func TestSearchDocumentFilter(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx,
		newTestPoint("owner-1", 1, 0, []float32{1, 0, 0}),
		newTestPoint("owner-1", 2, 0, []float32{1, 0, 0}),
	))

	matches, err := index.Search(ctx, []float32{1, 0, 0}, "owner-1", []core.ID{2}, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(2), matches[0].Point.DocumentId)
}

func TestUpsertIdempotentOnPointID(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, newTestPoint("owner-1", 1, 0, []float32{1, 0, 0})))
	require.NoError(t, index.Upsert(ctx, newTestPoint("owner-1", 1, 0, []float32{0, 1, 0})))

	matches, err := index.Search(ctx, []float32{0, 1, 0}, "owner-1", nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestUpsertLargeBatch(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	var points []*vectorstore.Point
	for i := 0; i < vectorstore.UpsertBatchSize*2+7; i++ {
		points = append(points, newTestPoint("owner-1", 1, i, []float32{1, 0, 0}))
	}
	require.NoError(t, index.Upsert(ctx, points...))

	matches, err := index.Search(ctx, []float32{1, 0, 0}, "owner-1", nil, len(points)+1, 0)
	require.NoError(t, err)
	assert.Len(t, matches, len(points))
}

func TestDeleteByFilter(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx,
		newTestPoint("owner-1", 1, 0, []float32{1, 0, 0}),
		newTestPoint("owner-1", 1, 1, []float32{0, 1, 0}),
		newTestPoint("owner-1", 2, 0, []float32{0, 0, 1}),
		newTestPoint("owner-2", 3, 0, []float32{1, 0, 0}),
	))

	deleted, err := index.DeleteByFilter(ctx, "owner-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	matches, err := index.Search(ctx, []float32{0, 0, 1}, "owner-1", nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(2), matches[0].Point.DocumentId)

	// Wipe the rest of owner-1; owner-2 is untouched.
	deleted, err = index.DeleteByFilter(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	matches, err = index.Search(ctx, []float32{1, 0, 0}, "owner-2", nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

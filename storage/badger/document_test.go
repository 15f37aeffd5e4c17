package badger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func newTestDocument(ownerID, name, content string) *core.Document {
	fileType, _ := core.FileTypeFromName(name)
	return &core.Document{
		OwnerId:      ownerID,
		Name:         name,
		OriginalName: name,
		FileType:     fileType,
		Size:         int64(len(content)),
		ContentHash:  core.HashContent([]byte(content)),
	}
}

func TestCreateAndGetDocument(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, created, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "notes.txt", "some text"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, doc.Id)
	assert.Equal(t, core.StatusPending, doc.Status)
	assert.False(t, doc.InsertedAt.IsZero())

	got, err := repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, "owner-1", got.OwnerId)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
}

func TestGetDocumentNotFound(t *testing.T) {
	repos := newTestRepositories(t)

	_, err := repos.Documents.GetDocument(context.Background(), 99999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateDocumentDedup(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	first, created, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "same content"))
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "b.txt", "same content"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "a.txt", second.Name)
}

func TestCreateDocumentDedupScopedToOwner(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	first, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "shared content"))
	require.NoError(t, err)

	second, created, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-2", "a.txt", "shared content"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.Id, second.Id)
}

func TestCreateDocumentConcurrentDuplicates(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	const uploads = 8
	var (
		wg       sync.WaitGroup
		creates  atomic.Int64
		ids      [uploads]core.ID
		failures [uploads]error
	)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, created, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "raced content"))
			if err != nil {
				failures[i] = err
				return
			}
			ids[i] = doc.Id
			if created {
				creates.Add(1)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < uploads; i++ {
		require.NoError(t, failures[i])
	}
	assert.Equal(t, int64(1), creates.Load())
	for i := 1; i < uploads; i++ {
		assert.Equal(t, ids[0], ids[i])
	}

	docs, err := repos.Documents.ListDocumentsByOwner(ctx, "owner-1", true)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestClaimProcessing(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)

	claimed, err := repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, claimed.Status)
	assert.Equal(t, "job-1", claimed.JobId)
	assert.False(t, claimed.ProcessingStartedAt.IsZero())

	// A second claim loses: the document is no longer PENDING.
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-2")
	assert.ErrorIs(t, err, storage.ErrStateConflict)
}

func TestCompleteProcessing(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	require.NoError(t, err)

	metrics := core.ProcessingMetrics{ChunksCreated: 4, ProcessingTime: 2 * time.Second}
	completed, err := repos.Documents.CompleteProcessing(ctx, doc.Id, "job-1", 4, metrics)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, completed.Status)
	assert.Equal(t, 4, completed.ChunkCount)
	assert.True(t, completed.Embedded)
	assert.Equal(t, metrics, completed.Metrics)
	assert.False(t, completed.ProcessingEndedAt.IsZero())
}

func TestCompleteProcessingWrongJob(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	require.NoError(t, err)

	_, err = repos.Documents.CompleteProcessing(ctx, doc.Id, "job-2", 4, core.ProcessingMetrics{})
	assert.ErrorIs(t, err, storage.ErrStateConflict)
}

func TestCompleteProcessingRequiresClaim(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)

	// Still PENDING, nobody claimed it.
	_, err = repos.Documents.CompleteProcessing(ctx, doc.Id, "job-1", 4, core.ProcessingMetrics{})
	assert.ErrorIs(t, err, storage.ErrStateConflict)
}

func TestFailProcessingRetainsPartialMetrics(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	require.NoError(t, err)

	metrics := core.ProcessingMetrics{ChunksCreated: 2}
	failed, err := repos.Documents.FailProcessing(ctx, doc.Id, "job-1", "embedding host unreachable", metrics)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, failed.Status)
	assert.Equal(t, "embedding host unreachable", failed.ProcessingError)
	assert.Equal(t, 2, failed.Metrics.ChunksCreated)
	assert.False(t, failed.Embedded)
}

func TestSoftDelete(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)

	deleted, err := repos.Documents.SoftDelete(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDeleted, deleted.Status)

	// Idempotent.
	again, err := repos.Documents.SoftDelete(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDeleted, again.Status)

	// The tombstone is final.
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	assert.ErrorIs(t, err, storage.ErrStateConflict)
	_, err = repos.Documents.ResetForReprocessing(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrStateConflict)
}

func TestSoftDeleteFreesContentHash(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	_, err = repos.Documents.SoftDelete(ctx, doc.Id)
	require.NoError(t, err)

	// The same content can be uploaded again as a new document.
	replacement, created, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, doc.Id, replacement.Id)
}

func TestResetForReprocessing(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	require.NoError(t, err)
	_, err = repos.Documents.FailProcessing(ctx, doc.Id, "job-1", "boom", core.ProcessingMetrics{ChunksCreated: 1})
	require.NoError(t, err)

	reset, err := repos.Documents.ResetForReprocessing(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, reset.Status)
	assert.Empty(t, reset.JobId)
	assert.Empty(t, reset.ProcessingError)
	assert.Zero(t, reset.ChunkCount)
	assert.Zero(t, reset.Metrics.ChunksCreated)

	// Only terminal states reset.
	_, err = repos.Documents.ResetForReprocessing(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrStateConflict)
}

func TestListDocumentsByOwner(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	a, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content a"))
	require.NoError(t, err)
	b, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "b.txt", "content b"))
	require.NoError(t, err)
	_, _, err = repos.Documents.CreateDocument(ctx, newTestDocument("owner-2", "c.txt", "content c"))
	require.NoError(t, err)

	docs, err := repos.Documents.ListDocumentsByOwner(ctx, "owner-1", false)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a.Id, docs[0].Id)
	assert.Equal(t, b.Id, docs[1].Id)

	_, err = repos.Documents.SoftDelete(ctx, a.Id)
	require.NoError(t, err)

	docs, err = repos.Documents.ListDocumentsByOwner(ctx, "owner-1", false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, b.Id, docs[0].Id)

	docs, err = repos.Documents.ListDocumentsByOwner(ctx, "owner-1", true)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStalledDocuments(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, _, err := repos.Documents.CreateDocument(ctx, newTestDocument("owner-1", "a.txt", "content"))
	require.NoError(t, err)
	_, err = repos.Documents.ClaimProcessing(ctx, doc.Id, "job-1")
	require.NoError(t, err)

	stalled, err := repos.Documents.StalledDocuments(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stalled, 1)
	assert.Equal(t, doc.Id, stalled[0].Id)

	stalled, err = repos.Documents.StalledDocuments(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stalled)
}

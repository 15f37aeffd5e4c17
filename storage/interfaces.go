package storage

import (
	"context"
	"time"

	"github.com/poiesic/corpus/core"
)

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document records and
// their lifecycle. Status transitions go through the dedicated methods below
// so legality and claim atomicity are enforced in one place.
type DocumentRepository interface {
	Repository

	// CreateDocument stores a new document in PENDING state. If the owner
	// already has a document with the same content hash, no write happens
	// and the existing document is returned with created=false.
	CreateDocument(ctx context.Context, doc *core.Document) (stored *core.Document, created bool, err error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocumentsByOwner retrieves all documents belonging to an owner,
	// ordered by document ID. Soft-deleted documents are excluded unless
	// includeDeleted is set.
	ListDocumentsByOwner(ctx context.Context, ownerID string, includeDeleted bool) ([]*core.Document, error)

	// ClaimProcessing atomically moves a PENDING document to PROCESSING and
	// stamps it with the given job ID. Returns ErrStateConflict if the
	// document is not PENDING or already carries a different job ID.
	ClaimProcessing(ctx context.Context, id core.ID, jobID string) (*core.Document, error)

	// CompleteProcessing moves a PROCESSING document to COMPLETED, recording
	// chunk count and metrics. Only the claim holder (matching job ID) may
	// complete. Returns ErrStateConflict on status or job mismatch.
	CompleteProcessing(ctx context.Context, id core.ID, jobID string, chunkCount int, metrics core.ProcessingMetrics) (*core.Document, error)

	// FailProcessing moves a PROCESSING document to FAILED with the cause.
	// Partial metrics are retained. Returns ErrStateConflict on status or
	// job mismatch.
	FailProcessing(ctx context.Context, id core.ID, jobID string, cause string, metrics core.ProcessingMetrics) (*core.Document, error)

	// SetMetadata records extraction metadata on a document.
	// Returns ErrNotFound if the document doesn't exist.
	SetMetadata(ctx context.Context, id core.ID, metadata core.DocumentMetadata) (*core.Document, error)

	// SoftDelete tombstones a document. Legal from any non-deleted state and
	// irreversible. Returns ErrNotFound if the document doesn't exist.
	SoftDelete(ctx context.Context, id core.ID) (*core.Document, error)

	// ResetForReprocessing moves a COMPLETED or FAILED document back to
	// PENDING, clearing chunk count, metrics, job ID, and error. Returns
	// ErrStateConflict for any other state.
	ResetForReprocessing(ctx context.Context, id core.ID) (*core.Document, error)

	// StalledDocuments returns documents that have been PROCESSING since
	// before the given cutoff, ordered by document ID.
	StalledDocuments(ctx context.Context, cutoff time.Time) ([]*core.Document, error)
}

// ChunkRepository provides operations for managing chunk records.
type ChunkRepository interface {
	Repository

	// AddChunks stores chunks for a document. Ordinals must be unique per
	// document; a duplicate ordinal returns ErrDuplicateKey.
	// Sets InsertedAt timestamp if not already set.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunks retrieves all chunks of a document ordered by ordinal.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by document ID and ordinal.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, documentID core.ID, ordinal int) (*core.Chunk, error)

	// DeleteChunks removes all chunks of a document.
	// Returns the number of chunks removed.
	DeleteChunks(ctx context.Context, documentID core.ID) (int, error)

	// MarkEmbedded records the embedding timestamp on a chunk after its
	// vector has been upserted.
	MarkEmbedded(ctx context.Context, documentID core.ID, ordinal int, at time.Time) error
}

// BlobRepository stores raw upload bytes keyed by owner and document.
type BlobRepository interface {
	Repository

	// PutBlob stores the raw content of a document.
	PutBlob(ctx context.Context, ownerID string, documentID core.ID, content []byte) error

	// GetBlob retrieves the raw content of a document.
	// Returns ErrNotFound if no blob exists.
	GetBlob(ctx context.Context, ownerID string, documentID core.ID) ([]byte, error)

	// DeleteBlob removes the raw content of a document. Deleting a missing
	// blob is not an error.
	DeleteBlob(ctx context.Context, ownerID string, documentID core.ID) error
}

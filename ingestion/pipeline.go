package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/chunk"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectorstore"
)

const (
	// DefaultEmbedBatchSize is how many chunk texts go to the embedder per call.
	DefaultEmbedBatchSize = 10

	// DefaultMaxAttempts is how often transient embed/upsert failures are retried.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the initial backoff delay.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultEmbeddingDimension matches the ai package default model.
	DefaultEmbeddingDimension = 768
)

// ValidationError reports why an upload was rejected.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("upload validation failed: %s", strings.Join(e.Reasons, "; "))
}

// Pipeline orchestrates the document lifecycle. Registration persists the
// document and returns; extraction, chunking, embedding, and indexing run
// asynchronously on a worker pool.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	blobs     storage.BlobRepository
	vectors   vectorstore.Index

	pool      *ants.Pool
	chunker   *chunk.Chunker
	proc      *processor
	dimension int

	embedBatchSize int
	maxAttempts    int
	baseDelay      time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(chunker *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		p.chunker = chunker
		return nil
	}
}

// WithEmbedBatchSize sets how many texts are embedded per service call.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.embedBatchSize = size
		return nil
	}
}

// WithRetryPolicy sets the transient failure retry policy.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithEmbeddingDimension sets the vector collection dimension.
// Default is DefaultEmbeddingDimension.
func WithEmbeddingDimension(dim int) Option {
	return func(p *Pipeline) error {
		if dim <= 0 {
			return vectorstore.ErrInvalidDimension
		}
		p.dimension = dim
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline and ensures the vector
// collection exists.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	blobs storage.BlobRepository,
	vectors vectorstore.Index,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if blobs == nil {
		return nil, ErrBlobRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := chunk.New()
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		documents:      documents,
		chunks:         chunks,
		blobs:          blobs,
		vectors:        vectors,
		pool:           pool,
		chunker:        chunker,
		dimension:      DefaultEmbeddingDimension,
		embedBatchSize: DefaultEmbedBatchSize,
		maxAttempts:    DefaultMaxAttempts,
		baseDelay:      DefaultRetryBaseDelay,
		logger:         slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if err := vectors.EnsureCollection(context.Background(), p.dimension, vectorstore.MetricCosine); err != nil {
		p.Release()
		return nil, err
	}

	p.proc = &processor{
		documents:      documents,
		chunks:         chunks,
		blobs:          blobs,
		vectors:        vectors,
		embedder:       provider.Embedder(),
		chunker:        p.chunker,
		embedBatchSize: p.embedBatchSize,
		maxAttempts:    p.maxAttempts,
		baseDelay:      p.baseDelay,
		logger:         p.logger,
	}

	return p, nil
}

// RegisterOptions holds optional parameters for document registration.
type RegisterOptions struct {
	Name     string // display name, defaults to the filename
	Tags     []string
	Category string
}

// RegisterDocument validates and stores an upload, then submits it for
// asynchronous processing. Returns the document and whether it is new; a
// duplicate upload short-circuits to the owner's existing document.
// Errors during async processing are recorded on the document, not returned
// here.
func (p *Pipeline) RegisterDocument(ctx context.Context, ownerID, filename string, content []byte, opts *RegisterOptions) (*core.Document, bool, error) {
	if ownerID == "" {
		return nil, false, core.ErrEmptyOwner
	}
	if opts == nil {
		opts = &RegisterOptions{}
	}

	validation := core.ValidateUpload(content, filename)
	if !validation.Valid {
		return nil, false, &ValidationError{Reasons: validation.Reasons}
	}

	name := opts.Name
	if name == "" {
		name = filename
	}
	doc := &core.Document{
		OwnerId:      ownerID,
		Name:         name,
		OriginalName: filename,
		FileType:     validation.FileType,
		Size:         validation.Size,
		ContentHash:  validation.ContentHash,
		StorageKey:   fmt.Sprintf("%s/%s", ownerID, validation.ContentHash[:16]),
		Status:       core.StatusPending,
		Tags:         opts.Tags,
		Category:     opts.Category,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, false, err
	}

	stored, created, err := p.documents.CreateDocument(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	if !created {
		p.logger.Debug("duplicate upload deduplicated",
			"owner", ownerID, "existing", stored.Id)
		return stored, false, nil
	}

	if err := p.blobs.PutBlob(ctx, ownerID, stored.Id, content); err != nil {
		return nil, false, err
	}

	p.submit(stored.Id)
	return stored, true, nil
}

// submit queues a processing run for the document with a fresh job ID.
func (p *Pipeline) submit(documentID core.ID) {
	jobID := newJobID(documentID)
	err := p.pool.Submit(func() {
		if err := p.proc.process(context.Background(), documentID, jobID); err != nil {
			p.logger.Error("error processing document", "document", documentID, "job", jobID, "err", err)
		}
	})
	if err != nil {
		p.logger.Error("failed to submit processing job", "document", documentID, "err", err)
	}
}

func newJobID(documentID core.ID) string {
	return fmt.Sprintf("%d-%x", documentID, time.Now().UnixNano())
}

// ownedDocument loads a document and checks it belongs to the owner.
// A document owned by someone else reports ErrNotFound, same as one that
// does not exist, so document IDs reveal nothing across owners.
func (p *Pipeline) ownedDocument(ctx context.Context, ownerID string, id core.ID) (*core.Document, error) {
	if ownerID == "" {
		return nil, core.ErrEmptyOwner
	}
	doc, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerId != ownerID {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// DocumentStatus is a point-in-time view of a document's processing state.
type DocumentStatus struct {
	Document *core.Document
	Progress float64 // 0 registered, 0.5 processing, 1 terminal
}

// GetDocumentStatus reports the state, coarse progress, and error (if any)
// of one of the owner's documents.
func (p *Pipeline) GetDocumentStatus(ctx context.Context, ownerID string, id core.ID) (*DocumentStatus, error) {
	doc, err := p.ownedDocument(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	status := &DocumentStatus{Document: doc}
	switch doc.Status {
	case core.StatusPending:
		status.Progress = 0
	case core.StatusProcessing:
		status.Progress = 0.5
	default:
		status.Progress = 1
	}
	return status, nil
}

// ListDocuments returns an owner's live documents.
func (p *Pipeline) ListDocuments(ctx context.Context, ownerID string) ([]*core.Document, error) {
	return p.documents.ListDocumentsByOwner(ctx, ownerID, false)
}

// DeleteDocument tombstones one of the owner's documents and cascades:
// chunks, vectors, and the stored blob are removed. Returns the number of
// chunks deleted. Idempotent; deleting a deleted document removes whatever
// is left.
func (p *Pipeline) DeleteDocument(ctx context.Context, ownerID string, id core.ID) (int, error) {
	if _, err := p.ownedDocument(ctx, ownerID, id); err != nil {
		return 0, err
	}
	doc, err := p.documents.SoftDelete(ctx, id)
	if err != nil {
		return 0, err
	}

	deleted, err := p.chunks.DeleteChunks(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, err := p.vectors.DeleteByFilter(ctx, doc.OwnerId, id); err != nil {
		return deleted, err
	}
	if err := p.blobs.DeleteBlob(ctx, doc.OwnerId, id); err != nil {
		return deleted, err
	}

	p.logger.Info("document deleted", "document", id, "chunks", deleted)
	return deleted, nil
}

// Reprocess clears a terminal document's chunks and vectors, resets it to
// PENDING, and queues a fresh processing run. The document must belong to
// the owner.
func (p *Pipeline) Reprocess(ctx context.Context, ownerID string, id core.ID) (*core.Document, error) {
	if _, err := p.ownedDocument(ctx, ownerID, id); err != nil {
		return nil, err
	}
	doc, err := p.documents.ResetForReprocessing(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := p.chunks.DeleteChunks(ctx, id); err != nil {
		return nil, err
	}
	if _, err := p.vectors.DeleteByFilter(ctx, doc.OwnerId, id); err != nil {
		return nil, err
	}

	p.submit(id)
	return doc, nil
}

// Stalled returns documents that have been PROCESSING for longer than
// olderThan, typically victims of a crashed worker.
func (p *Pipeline) Stalled(ctx context.Context, olderThan time.Duration) ([]*core.Document, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return p.documents.StalledDocuments(ctx, cutoff)
}

// Release releases the worker pool, waiting for running jobs to finish.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

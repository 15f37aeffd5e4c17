package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrBlobRepositoryRequired is returned when a blob repository is not provided.
	ErrBlobRepositoryRequired = errors.New("blob repository required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrDocumentDeleted indicates the document was tombstoned while a
	// processing run was in flight.
	ErrDocumentDeleted = errors.New("document deleted during processing")
)

// EmbeddingError wraps a transient embedding service failure.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// VectorStoreError wraps a transient vector store failure.
type VectorStoreError struct {
	Err error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store: %v", e.Err)
}

func (e *VectorStoreError) Unwrap() error {
	return e.Err
}

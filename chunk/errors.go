package chunk

import "errors"

var (
	// ErrInvalidChunkSize indicates a non-positive target chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates a negative sentence overlap.
	ErrInvalidOverlap = errors.New("sentence overlap must not be negative")
)

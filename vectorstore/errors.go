package vectorstore

import "errors"

var (
	// ErrEmptyOwner indicates an operation without an owner ID.
	ErrEmptyOwner = errors.New("owner id is required")

	// ErrNotConfigured indicates the collection has not been created yet.
	ErrNotConfigured = errors.New("collection not configured")

	// ErrConfigMismatch indicates EnsureCollection was called with a
	// dimension or metric different from the persisted configuration.
	ErrConfigMismatch = errors.New("collection configuration mismatch")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDimension indicates a non-positive collection dimension.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be positive")
)

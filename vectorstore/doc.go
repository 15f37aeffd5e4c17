// Package vectorstore defines the vector index abstraction used for chunk
// embeddings. Every point carries the owner it belongs to, and every query
// is owner-scoped; the index never returns a point across tenant boundaries.
package vectorstore

// Package chunk splits extracted document pages into sentence-aligned
// overlapping chunks sized for embedding. Chunks preserve document order,
// carry their source page, and overlap by a small trailing window of
// sentences so retrieval does not lose context at chunk boundaries.
package chunk

// Package ingestion orchestrates the document lifecycle: registration,
// asynchronous processing (extract, chunk, embed, index), status reporting,
// cascade deletion, and reprocessing.
//
// Registration returns as soon as the document is persisted in PENDING
// state; processing runs on a worker pool. Exactly one worker can claim a
// document at a time, and a document tombstoned mid-flight is detected
// before any terminal write.
package ingestion

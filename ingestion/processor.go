// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/chunk"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/extract"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectorstore"
)

// processor runs one document through extract -> chunk -> embed -> index.
// Exactly one processor run can hold a document's claim; a run that loses
// the claim race exits quietly.
type processor struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	blobs     storage.BlobRepository
	vectors   vectorstore.Index
	embedder  ai.Embedder
	chunker   *chunk.Chunker

	embedBatchSize int
	maxAttempts    int
	baseDelay      time.Duration
	logger         *slog.Logger
}

// process claims the document and runs the full pipeline on it. Any failure
// after the claim moves the document to FAILED with partial metrics; a
// tombstone observed before the terminal write aborts without one.
func (p *processor) process(ctx context.Context, documentID core.ID, jobID string) error {
	doc, err := p.documents.ClaimProcessing(ctx, documentID, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrStateConflict) {
			p.logger.Debug("claim lost, skipping", "document", documentID, "job", jobID)
			return nil
		}
		return err
	}
	started := time.Now()

	metrics, runErr := p.run(ctx, doc, jobID)
	metrics.ProcessingTime = time.Since(started)

	// Tombstone check before any terminal write. A document deleted while
	// we worked gets its just-written vectors cleaned up instead.
	current, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if current.Status == core.StatusDeleted {
		p.logger.Info("document deleted mid-flight, cleaning up", "document", documentID)
		if _, err := p.vectors.DeleteByFilter(ctx, doc.OwnerId, documentID); err != nil {
			p.logger.Error("failed to clean vectors of deleted document", "document", documentID, "err", err)
		}
		if _, err := p.chunks.DeleteChunks(ctx, documentID); err != nil {
			p.logger.Error("failed to clean chunks of deleted document", "document", documentID, "err", err)
		}
		return ErrDocumentDeleted
	}

	if runErr != nil {
		if _, err := p.documents.FailProcessing(ctx, documentID, jobID, runErr.Error(), metrics); err != nil {
			p.logger.Error("failed to record processing failure", "document", documentID, "err", err)
		}
		return runErr
	}

	if _, err := p.documents.CompleteProcessing(ctx, documentID, jobID, metrics.ChunksCreated, metrics); err != nil {
		return err
	}
	p.logger.Info("document processed",
		"document", documentID,
		"chunks", metrics.ChunksCreated,
		"duration", metrics.ProcessingTime)
	return nil
}

// run performs the pipeline stages and returns metrics for whatever it got
// through, even on failure.
func (p *processor) run(ctx context.Context, doc *core.Document, jobID string) (core.ProcessingMetrics, error) {
	var metrics core.ProcessingMetrics

	content, err := p.blobs.GetBlob(ctx, doc.OwnerId, doc.Id)
	if err != nil {
		return metrics, fmt.Errorf("loading content: %w", err)
	}

	result, err := extract.Extract(content, doc.FileType)
	if err != nil {
		return metrics, err
	}
	if _, err := p.documents.SetMetadata(ctx, doc.Id, result.Metadata); err != nil {
		return metrics, err
	}

	chunks := p.chunker.Split(doc, result.Pages)
	if len(chunks) == 0 {
		return metrics, extract.ErrNoContent
	}

	embedStart := time.Now()
	vectors, err := p.embedChunks(ctx, chunks)
	metrics.EmbeddingTime = time.Since(embedStart)
	if err != nil {
		return metrics, err
	}

	points := make([]*vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = &vectorstore.Point{
			Id:         c.PointId,
			Vector:     vectors[i],
			OwnerId:    c.OwnerId,
			DocumentId: c.DocumentId,
			Ordinal:    c.Ordinal,
			Page:       c.Page,
			Text:       c.Text,
		}
	}
	// Reprocessing replaces any chunks of the previous run.
	if _, err := p.chunks.DeleteChunks(ctx, doc.Id); err != nil {
		return metrics, err
	}
	if _, err := p.chunks.AddChunks(ctx, chunks...); err != nil {
		return metrics, err
	}

	err = RetryWithBackoff(ctx, func() error {
		return p.vectors.Upsert(ctx, points...)
	}, p.maxAttempts, p.baseDelay)
	if err != nil {
		return metrics, &VectorStoreError{Err: err}
	}

	embeddedAt := time.Now().UTC()
	for _, c := range chunks {
		if err := p.chunks.MarkEmbedded(ctx, doc.Id, c.Ordinal, embeddedAt); err != nil {
			return metrics, err
		}
	}

	metrics.ChunksCreated = len(chunks)
	return metrics, nil
}

// embedChunks embeds chunk texts in bounded batches, retrying each batch.
func (p *processor) embedChunks(ctx context.Context, chunks []*core.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.embedBatchSize {
		end := min(start+p.embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		var batch [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			batch, err = p.embedder.EmbedTexts(ctx, texts)
			return err
		}, p.maxAttempts, p.baseDelay)
		if err != nil {
			return nil, &EmbeddingError{Err: err}
		}
		if len(batch) != len(texts) {
			return nil, &EmbeddingError{Err: fmt.Errorf("got %d embeddings for %d texts", len(batch), len(texts))}
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

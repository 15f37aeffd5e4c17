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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
//
// All status transitions happen inside a single read-write transaction over
// the primary record, so concurrent claimers serialize on badger's conflict
// detection: at most one PENDING->PROCESSING claim per document can commit.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// CreateDocument stores a new document in PENDING state. The per-owner
// content hash index enforces dedup: if the owner already has a live
// document with this hash, that document is returned and nothing is written.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, bool, error) {
	var (
		stored  *core.Document
		created bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		hashKey := makeDocumentHashKey(doc.OwnerId, doc.ContentHash)
		item, err := tx.Get(hashKey)
		if err == nil {
			// Duplicate upload: hand back the existing document.
			var existingID core.ID
			if err := item.Value(func(val []byte) error {
				existingID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			existing, err := r.readDocument(tx, existingID)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}
			stored = existing
			created = false
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		doc.Id = core.ID(nextID)
		doc.Status = core.StatusPending
		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(hashKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentOwnerKey(doc.OwnerId, doc.Id), storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		stored = doc
		created = true
		return tx.Commit()
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		// A concurrent upload of the same content won the commit. Treat it
		// like any other duplicate: hand back the winner's document.
		winner, lookupErr := r.lookupByHash(doc.OwnerId, doc.ContentHash)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// lookupByHash resolves the owner's live document for a content hash.
func (r *DocumentRepository) lookupByHash(ownerID, contentHash string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentHashKey(ownerID, contentHash))
		if err != nil {
			return err
		}
		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}
		doc, err = r.readDocument(tx, id)
		return err
	}, false)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrStateConflict
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// ListDocumentsByOwner retrieves an owner's documents ordered by ID.
func (r *DocumentRepository) ListDocumentsByOwner(ctx context.Context, ownerID string, includeDeleted bool) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentOwnerKey(ownerID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			doc, err := r.readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if doc.Status == core.StatusDeleted && !includeDeleted {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ClaimProcessing atomically moves a PENDING document to PROCESSING.
func (r *DocumentRepository) ClaimProcessing(ctx context.Context, id core.ID, jobID string) (*core.Document, error) {
	return r.transition(id, func(doc *core.Document) error {
		if !doc.Status.CanTransition(core.StatusProcessing) {
			return storage.ErrStateConflict
		}
		doc.Status = core.StatusProcessing
		doc.JobId = jobID
		doc.ProcessingStartedAt = time.Now().UTC()
		doc.ProcessingEndedAt = time.Time{}
		doc.ProcessingError = ""
		return nil
	})
}

// CompleteProcessing moves a PROCESSING document to COMPLETED.
func (r *DocumentRepository) CompleteProcessing(ctx context.Context, id core.ID, jobID string, chunkCount int, metrics core.ProcessingMetrics) (*core.Document, error) {
	return r.transition(id, func(doc *core.Document) error {
		if err := checkClaim(doc, jobID, core.StatusCompleted); err != nil {
			return err
		}
		doc.Status = core.StatusCompleted
		doc.ChunkCount = chunkCount
		doc.Embedded = true
		doc.Metrics = metrics
		doc.ProcessingError = ""
		doc.ProcessingEndedAt = time.Now().UTC()
		return nil
	})
}

// FailProcessing moves a PROCESSING document to FAILED. Metrics of the
// partial attempt are retained for diagnosis.
func (r *DocumentRepository) FailProcessing(ctx context.Context, id core.ID, jobID string, cause string, metrics core.ProcessingMetrics) (*core.Document, error) {
	return r.transition(id, func(doc *core.Document) error {
		if err := checkClaim(doc, jobID, core.StatusFailed); err != nil {
			return err
		}
		doc.Status = core.StatusFailed
		doc.Metrics = metrics
		doc.ProcessingError = cause
		doc.ProcessingEndedAt = time.Now().UTC()
		return nil
	})
}

// SetMetadata records extraction metadata on a document.
func (r *DocumentRepository) SetMetadata(ctx context.Context, id core.ID, metadata core.DocumentMetadata) (*core.Document, error) {
	return r.transition(id, func(doc *core.Document) error {
		doc.Metadata = metadata
		return nil
	})
}

// SoftDelete tombstones a document and frees its content hash so the owner
// can upload the same content again later.
func (r *DocumentRepository) SoftDelete(ctx context.Context, id core.ID) (*core.Document, error) {
	var deleted *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if doc.Status == core.StatusDeleted {
			deleted = doc
			return nil
		}

		doc.Status = core.StatusDeleted
		doc.JobId = ""
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentHashKey(doc.OwnerId, doc.ContentHash)); err != nil {
			return err
		}
		deleted = doc
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ResetForReprocessing moves a terminal document back to PENDING.
func (r *DocumentRepository) ResetForReprocessing(ctx context.Context, id core.ID) (*core.Document, error) {
	return r.transition(id, func(doc *core.Document) error {
		if !doc.Status.CanReset() {
			return storage.ErrStateConflict
		}
		doc.Status = core.StatusPending
		doc.JobId = ""
		doc.ChunkCount = 0
		doc.Embedded = false
		doc.Metrics = core.ProcessingMetrics{}
		doc.ProcessingError = ""
		doc.ProcessingStartedAt = time.Time{}
		doc.ProcessingEndedAt = time.Time{}
		return nil
	})
}

// StalledDocuments returns documents stuck in PROCESSING since before cutoff.
func (r *DocumentRepository) StalledDocuments(ctx context.Context, cutoff time.Time) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc.Status == core.StatusProcessing && doc.ProcessingStartedAt.Before(cutoff) {
				docs = append(docs, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// transition applies mutate to the document inside one read-write
// transaction and bumps UpdatedAt. Concurrent transitions on the same
// document conflict at commit, so only one wins.
func (r *DocumentRepository) transition(id core.ID, mutate func(*core.Document) error) (*core.Document, error) {
	var updated *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if err := mutate(doc); err != nil {
			return err
		}
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		updated = doc
		return tx.Commit()
	}, true)
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return nil, storage.ErrStateConflict
		}
		return nil, err
	}
	return updated, nil
}

// checkClaim verifies the caller still holds the processing claim.
func checkClaim(doc *core.Document, jobID string, to core.DocumentStatus) error {
	if !doc.Status.CanTransition(to) {
		return storage.ErrStateConflict
	}
	if doc.JobId != jobID {
		return storage.ErrStateConflict
	}
	return nil
}

// readDocument reads a document inside a transaction.
// Returns nil without error if the document doesn't exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// BlobRepository implements storage.BlobRepository for BadgerDB. Raw upload
// bytes stay available after processing so documents can be reprocessed
// without a fresh upload.
type BlobRepository struct {
	backend *Backend
}

var _ storage.BlobRepository = (*BlobRepository)(nil)

// NewBlobRepository creates a new BlobRepository.
func NewBlobRepository(backend *Backend) (*BlobRepository, error) {
	return &BlobRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *BlobRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *BlobRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutBlob stores the raw content of a document.
func (r *BlobRepository) PutBlob(ctx context.Context, ownerID string, documentID core.ID, content []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobKey(ownerID, documentID), content); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetBlob retrieves the raw content of a document.
func (r *BlobRepository) GetBlob(ctx context.Context, ownerID string, documentID core.ID) ([]byte, error) {
	var content []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(ownerID, documentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return content, nil
}

// DeleteBlob removes the raw content of a document.
func (r *BlobRepository) DeleteBlob(ctx context.Context, ownerID string, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeBlobKey(ownerID, documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

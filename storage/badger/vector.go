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
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// VectorIndex implements vectorstore.Index on the embedded store. Point keys
// embed the owner, so a search scans exactly one owner's keyspace; a brute
// force scan is adequate for the per-owner cardinalities this store targets.
type VectorIndex struct {
	backend *Backend
}

var _ vectorstore.Index = (*VectorIndex)(nil)

// NewVectorIndex creates a new VectorIndex.
func NewVectorIndex(backend *Backend) (*VectorIndex, error) {
	return &VectorIndex{backend: backend}, nil
}

// Close is a no-op; the index holds no resources of its own.
func (x *VectorIndex) Close() error {
	return nil
}

// EnsureCollection persists the collection configuration on first call and
// verifies it on subsequent calls.
func (x *VectorIndex) EnsureCollection(ctx context.Context, dimension int, metric vectorstore.Metric) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	return x.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readVectorConfig(tx)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Dimension != dimension || existing.Metric != metric {
				return fmt.Errorf("%w: have dim=%d metric=%s, want dim=%d metric=%s",
					vectorstore.ErrConfigMismatch, existing.Dimension, existing.Metric, dimension, metric)
			}
			return nil
		}

		cfg := vectorstore.Config{Dimension: dimension, Metric: metric}
		if err := tx.Set([]byte(vectorConfigKey), marshalVectorConfig(cfg)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Upsert writes points in batches of vectorstore.UpsertBatchSize. Point IDs
// are stable, so re-upserting a chunk replaces its previous vector.
func (x *VectorIndex) Upsert(ctx context.Context, points ...*vectorstore.Point) error {
	cfg, err := x.config()
	if err != nil {
		return err
	}
	for _, p := range points {
		if p.OwnerId == "" {
			return vectorstore.ErrEmptyOwner
		}
		if len(p.Vector) != cfg.Dimension {
			return fmt.Errorf("%w: point %d has dim %d, collection has %d",
				vectorstore.ErrDimensionMismatch, p.Id, len(p.Vector), cfg.Dimension)
		}
	}

	for start := 0; start < len(points); start += vectorstore.UpsertBatchSize {
		end := min(start+vectorstore.UpsertBatchSize, len(points))
		batch := points[start:end]

		err := x.backend.WithTx(func(tx *badger.Txn) error {
			for _, p := range batch {
				if err := tx.Set(makeVectorKey(p.OwnerId, p.Id), marshalPoint(p)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search scans the owner's points and returns the best matches at or above
// the threshold, highest score first.
func (x *VectorIndex) Search(ctx context.Context, vector []float32, ownerID string, documentIDs []core.ID, limit int, threshold float32) ([]*vectorstore.Match, error) {
	if ownerID == "" {
		return nil, vectorstore.ErrEmptyOwner
	}
	if limit <= 0 {
		return nil, vectorstore.ErrInvalidLimit
	}
	cfg, err := x.config()
	if err != nil {
		return nil, err
	}
	if len(vector) != cfg.Dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}

	var matches []*vectorstore.Match
	err = x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialVectorKey(ownerID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var point *vectorstore.Point
			err := iter.Item().Value(func(val []byte) error {
				var err error
				point, err = unmarshalPoint(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(documentIDs) > 0 && !slices.Contains(documentIDs, point.DocumentId) {
				continue
			}

			score := dotProduct(vector, point.Vector)
			if score >= threshold {
				matches = append(matches, &vectorstore.Match{Point: point, Score: score})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b *vectorstore.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// DeleteByFilter removes the owner's points, restricted to documentID when
// non-zero.
func (x *VectorIndex) DeleteByFilter(ctx context.Context, ownerID string, documentID core.ID) (int, error) {
	if ownerID == "" {
		return 0, vectorstore.ErrEmptyOwner
	}

	deleted := 0
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialVectorKey(ownerID)
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if documentID != 0 {
				var point *vectorstore.Point
				err := item.Value(func(val []byte) error {
					var err error
					point, err = unmarshalPoint(val)
					return err
				})
				if err != nil {
					return err
				}
				if point.DocumentId != documentID {
					continue
				}
			}
			keys = append(keys, item.KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// config loads the persisted collection configuration.
func (x *VectorIndex) config() (*vectorstore.Config, error) {
	var cfg *vectorstore.Config
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		cfg, err = readVectorConfig(tx)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, vectorstore.ErrNotConfigured
	}
	return cfg, nil
}

func readVectorConfig(tx *badger.Txn) (*vectorstore.Config, error) {
	item, err := tx.Get([]byte(vectorConfigKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg *vectorstore.Config
	err = item.Value(func(val []byte) error {
		var err error
		cfg, err = unmarshalVectorConfig(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func marshalVectorConfig(cfg vectorstore.Config) []byte {
	size := varint.Int.Size(cfg.Dimension) + ord.String.Size(string(cfg.Metric))
	buf := make([]byte, size)
	n := varint.Int.Marshal(cfg.Dimension, buf)
	ord.String.Marshal(string(cfg.Metric), buf[n:])
	return buf
}

func unmarshalVectorConfig(bs []byte) (*vectorstore.Config, error) {
	dim, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	metric, _, err := ord.String.Unmarshal(bs[n:])
	if err != nil {
		return nil, err
	}
	return &vectorstore.Config{Dimension: dim, Metric: vectorstore.Metric(metric)}, nil
}

func marshalPoint(p *vectorstore.Point) []byte {
	size := core.IDMUS.Size(p.Id) +
		core.VectorMUS.Size(p.Vector) +
		ord.String.Size(p.OwnerId) +
		core.IDMUS.Size(p.DocumentId) +
		varint.Int.Size(p.Ordinal) +
		varint.Int.Size(p.Page) +
		ord.String.Size(p.Text)
	buf := make([]byte, size)
	n := core.IDMUS.Marshal(p.Id, buf)
	n += core.VectorMUS.Marshal(p.Vector, buf[n:])
	n += ord.String.Marshal(p.OwnerId, buf[n:])
	n += core.IDMUS.Marshal(p.DocumentId, buf[n:])
	n += varint.Int.Marshal(p.Ordinal, buf[n:])
	n += varint.Int.Marshal(p.Page, buf[n:])
	ord.String.Marshal(p.Text, buf[n:])
	return buf
}

func unmarshalPoint(bs []byte) (p *vectorstore.Point, err error) {
	p = &vectorstore.Point{}
	var n, n1 int
	p.Id, n, err = core.IDMUS.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	p.Vector, n1, err = core.VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	p.OwnerId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	p.DocumentId, n1, err = core.IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	p.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	p.Page, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	p.Text, _, err = ord.String.Unmarshal(bs[n:])
	if err != nil {
		return nil, err
	}
	return p, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

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


package vectorstore

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// UpsertBatchSize is the maximum number of points written per storage
// transaction. Larger upserts are split transparently.
const UpsertBatchSize = 100

// Metric identifies the similarity function of a collection.
type Metric string

const (
	// MetricCosine ranks by cosine similarity. Assumes normalized vectors,
	// where cosine similarity reduces to the dot product.
	MetricCosine Metric = "cosine"

	// MetricDot ranks by raw dot product.
	MetricDot Metric = "dot"
)

// Config is the persisted collection configuration. EnsureCollection stores
// it on first call and rejects later calls that disagree.
type Config struct {
	Dimension int
	Metric    Metric
}

// Point is a stored embedding plus the payload needed to hydrate a search
// hit without a second lookup.
type Point struct {
	Id         core.ID
	Vector     []float32
	OwnerId    string
	DocumentId core.ID
	Ordinal    int
	Page       int
	Text       string
}

// Match is a search hit.
type Match struct {
	Point *Point
	Score float32
}

// Index stores and searches embedding points. Implementations must be
// thread-safe. All operations are owner-scoped: points without an owner are
// rejected, and queries only ever see the querying owner's points.
type Index interface {
	// EnsureCollection creates the collection configuration if absent.
	// Idempotent when called with the same dimension and metric; returns
	// ErrConfigMismatch otherwise.
	EnsureCollection(ctx context.Context, dimension int, metric Metric) error

	// Upsert writes points, replacing any existing point with the same ID.
	// Batched internally at UpsertBatchSize. Every point must carry an
	// owner and a vector of the collection dimension.
	Upsert(ctx context.Context, points ...*Point) error

	// Search returns up to limit matches for the owner with score >=
	// threshold, best first. A non-empty documentIDs filter restricts hits
	// to those documents. An empty result is not an error.
	Search(ctx context.Context, vector []float32, ownerID string, documentIDs []core.ID, limit int, threshold float32) ([]*Match, error)

	// DeleteByFilter removes the owner's points, restricted to one document
	// when documentID is non-zero. Returns the number of points removed.
	DeleteByFilter(ctx context.Context, ownerID string, documentID core.ID) (int, error)

	// Close releases index resources.
	Close() error
}

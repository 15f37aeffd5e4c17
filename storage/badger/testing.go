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
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectorstore"
)

// Repositories bundles every store that shares one backend.
type Repositories struct {
	Documents storage.DocumentRepository
	Chunks    storage.ChunkRepository
	Blobs     storage.BlobRepository
	Vectors   vectorstore.Index
	Backend   *Backend
}

// Close closes all repositories and the backend.
func (r *Repositories) Close() error {
	r.Documents.Close()
	r.Chunks.Close()
	r.Blobs.Close()
	r.Vectors.Close()
	return r.Backend.Close()
}

// NewRepositories opens a backend at path and creates all repositories.
func NewRepositories(path string) (*Repositories, error) {
	return newRepositories(path, false)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the bundle when done.
func NewMemoryRepositories() (*Repositories, error) {
	return newRepositories("", true)
}

func newRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunks, err := NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	blobs, err := NewBlobRepository(backend)
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	vectors, err := NewVectorIndex(backend)
	if err != nil {
		blobs.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Documents: documents,
		Chunks:    chunks,
		Blobs:     blobs,
		Vectors:   vectors,
		Backend:   backend,
	}, nil
}

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


package corpus

import (
	"log/slog"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/conversation"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/search"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/poiesic/corpus/vectorstore"
)

type Database struct {
	repos         *badger.Repositories
	provider      ai.Provider
	conversations *conversation.Manager
	logger        *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig         *ai.Config
	provider         ai.Provider
	conversationOpts []conversation.Option
	inMemory         bool
}

// WithAIConfig sets the configuration used to build the default OpenAI-style
// provider. Ignored when WithAIProvider is also given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built provider instead of constructing one
// from config.
func WithAIProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithConversationOptions forwards options to the conversation manager.
func WithConversationOptions(opts ...conversation.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.conversationOpts = append(o.conversationOpts, opts...)
	}
}

// WithInMemory opens the storage backend in memory, ignoring the file path.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend and repositories
	var repos *badger.Repositories
	var err error
	if options.inMemory {
		repos, err = badger.NewMemoryRepositories()
	} else {
		repos, err = badger.NewRepositories(filePath)
	}
	if err != nil {
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	// Create conversation manager
	conversations, err := conversation.NewManager(options.conversationOpts...)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	return &Database{
		repos:         repos,
		provider:      provider,
		conversations: conversations,
		logger:        slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories and backend
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repos.Documents
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.repos.Chunks
}

func (db *Database) BlobRepository() storage.BlobRepository {
	return db.repos.Blobs
}

func (db *Database) VectorIndex() vectorstore.Index {
	return db.repos.Vectors
}

// Conversations returns the session manager shared by all callers.
func (db *Database) Conversations() *conversation.Manager {
	return db.conversations
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.repos.Documents, db.repos.Chunks, db.repos.Blobs, db.repos.Vectors, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.repos.Chunks, db.repos.Vectors, db.provider, opts...)
}

package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/vectorstore"
)

const (
	// DefaultLimit is the result cap when the caller passes a non-positive one.
	DefaultLimit = 10

	// DefaultThreshold is the minimum similarity for a hit to count.
	DefaultThreshold = 0.3
)

// Searcher retrieves document chunks semantically similar to a query.
type Searcher struct {
	chunks   storage.ChunkRepository
	vectors  vectorstore.Index
	embedder ai.Embedder
	chat     ai.ChatModel
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	vectors vectorstore.Index,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunks:   chunks,
		vectors:  vectors,
		embedder: provider.Embedder(),
		chat:     provider.ChatModel(),
		logger:   slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Query holds the parameters of one retrieval.
type Query struct {
	OwnerId     string
	Text        string
	DocumentIDs []core.ID // optional restriction to specific documents
	Limit       int       // defaults to DefaultLimit
	Threshold   float32   // defaults to DefaultThreshold; pass <0 for no floor
}

// Search embeds the query and returns the owner's best-matching chunks,
// highest similarity first. An empty result is a valid outcome, never padded
// with below-threshold hits.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.ChunkMatch, error) {
	if q.OwnerId == "" {
		return nil, vectorstore.ErrEmptyOwner
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := q.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	vector, err := s.embedder.EmbedText(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vector, q.OwnerId, q.DocumentIDs, limit, threshold)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("semantic search", "owner", q.OwnerId, "hits", len(hits))

	matches := make([]*core.ChunkMatch, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.chunks.GetChunk(ctx, hit.Point.DocumentId, hit.Point.Ordinal)
		if err != nil {
			// The point may outlive its chunk record briefly during a
			// cascade delete; skip rather than fail the whole query.
			s.logger.Warn("dangling vector point",
				"document", hit.Point.DocumentId, "ordinal", hit.Point.Ordinal, "err", err)
			continue
		}
		matches = append(matches, &core.ChunkMatch{Chunk: chunk, Score: hit.Score})
	}
	return matches, nil
}

// Answer retrieves context for the question and asks the chat model to
// answer from it. Returns the reply plus the chunks it was grounded on;
// when retrieval comes back empty the model is told so.
func (s *Searcher) Answer(ctx context.Context, q Query) (string, []*core.ChunkMatch, error) {
	matches, err := s.Search(ctx, q)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	if len(matches) == 0 {
		sb.WriteString("No relevant documents were found for this question.")
	} else {
		sb.WriteString("Use the following document excerpts to answer the question.\n")
		for i, m := range matches {
			fmt.Fprintf(&sb, "\n[%d] %s\n", i+1, m.Chunk.Text)
		}
	}

	reply, err := s.chat.Complete(ctx, sb.String(), []ai.ChatTurn{
		{FromUser: true, Text: q.Text},
	})
	if err != nil {
		return "", nil, err
	}
	return reply, matches, nil
}

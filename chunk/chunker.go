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


package chunk

import (
	"strings"
	"time"

	"github.com/poiesic/corpus/core"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultSentenceOverlap is how many trailing sentences of a chunk seed
	// the next one.
	DefaultSentenceOverlap = 2
)

// Chunker splits extracted pages into sentence-aligned chunks. A chunk never
// exceeds the target size unless it holds a single sentence that is itself
// oversized; such sentences are emitted unsplit.
type Chunker struct {
	chunkSize       int
	sentenceOverlap int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the target chunk length in characters.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return ErrInvalidChunkSize
		}
		c.chunkSize = size
		return nil
	}
}

// WithSentenceOverlap sets how many trailing sentences carry over between
// consecutive chunks. Default is DefaultSentenceOverlap.
func WithSentenceOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidOverlap
		}
		c.sentenceOverlap = overlap
		return nil
	}
}

// New creates a Chunker.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize:       DefaultChunkSize,
		sentenceOverlap: DefaultSentenceOverlap,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Split chunks the given pages in document order. Ordinals are contiguous
// from zero across the whole document; blank pages are skipped. Overlap is
// applied within a page, never across page boundaries. Each chunk gets a
// content hash, a deterministic vector point ID, and a quality score.
func (c *Chunker) Split(doc *core.Document, pages []core.PageText) []*core.Chunk {
	now := time.Now().UTC()
	var chunks []*core.Chunk
	ordinal := 0

	for _, page := range pages {
		sentences := splitSentences(cleanText(page.Text))
		if len(sentences) == 0 {
			continue
		}

		var buffer []string
		fresh := 0 // sentences appended since the last emit

		for _, sentence := range sentences {
			if len(buffer) > 0 && joinedLen(buffer)+1+len(sentence) > c.chunkSize {
				chunks = append(chunks, c.build(doc, page.Page, ordinal, buffer, now))
				ordinal++
				fresh = 0

				seed := buffer[max(0, len(buffer)-c.sentenceOverlap):]
				buffer = append([]string(nil), seed...)
				// Shed overlap sentences that would push the next chunk
				// over the target.
				for len(buffer) > 0 && joinedLen(buffer)+1+len(sentence) > c.chunkSize {
					buffer = buffer[1:]
				}
			}
			buffer = append(buffer, sentence)
			fresh++
		}
		if fresh > 0 {
			chunks = append(chunks, c.build(doc, page.Page, ordinal, buffer, now))
			ordinal++
		}
	}
	return chunks
}

func joinedLen(sentences []string) int {
	n := 0
	for i, s := range sentences {
		if i > 0 {
			n++
		}
		n += len(s)
	}
	return n
}

func (c *Chunker) build(doc *core.Document, page, ordinal int, sentences []string, now time.Time) *core.Chunk {
	text := strings.Join(sentences, " ")
	chunk := &core.Chunk{
		DocumentId:    doc.Id,
		OwnerId:       doc.OwnerId,
		Ordinal:       ordinal,
		Text:          text,
		TextHash:      core.IDFromContent(text),
		Page:          page,
		SentenceCount: len(sentences),
		WordCount:     len(strings.Fields(text)),
		CharCount:     len(text),
		PointId:       core.ChunkPointID(doc.Id, ordinal),
		InsertedAt:    now,
		UpdatedAt:     now,
	}
	chunk.ScoreQuality()
	return chunk
}

// cleanText collapses all runs of whitespace to single spaces.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences cuts text after runs of sentence terminators. Text with no
// terminator comes back as one sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && isTerminator(text[j]) {
			j++
		}
		if s := strings.TrimSpace(text[start:j]); s != "" {
			sentences = append(sentences, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

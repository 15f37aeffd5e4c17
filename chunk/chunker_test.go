package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func testDocument() *core.Document {
	return &core.Document{
		Id:      core.IDFromContent("doc-1"),
		OwnerId: "owner-1",
	}
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First one. Second one! Third one? Trailing fragment")
	require.Len(t, sentences, 4)
	assert.Equal(t, "First one.", sentences[0])
	assert.Equal(t, "Second one!", sentences[1])
	assert.Equal(t, "Third one?", sentences[2])
	assert.Equal(t, "Trailing fragment", sentences[3])
}

func TestSplitSentencesTerminatorRuns(t *testing.T) {
	sentences := splitSentences("Really?! Yes... done.")
	require.Len(t, sentences, 3)
	assert.Equal(t, "Really?!", sentences[0])
	assert.Equal(t, "Yes...", sentences[1])
	assert.Equal(t, "done.", sentences[2])
}

func TestSplitSingleChunk(t *testing.T) {
	chunker, err := New()
	require.NoError(t, err)

	doc := testDocument()
	chunks := chunker.Split(doc, []core.PageText{{Page: 1, Text: "One sentence. Another sentence."}})
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, doc.Id, chunk.DocumentId)
	assert.Equal(t, doc.OwnerId, chunk.OwnerId)
	assert.Equal(t, 0, chunk.Ordinal)
	assert.Equal(t, 1, chunk.Page)
	assert.Equal(t, "One sentence. Another sentence.", chunk.Text)
	assert.Equal(t, 2, chunk.SentenceCount)
	assert.Equal(t, core.IDFromContent(chunk.Text), chunk.TextHash)
	assert.Equal(t, core.ChunkPointID(doc.Id, 0), chunk.PointId)
	assert.Greater(t, chunk.Quality, float32(0))
}

func TestSplitRespectsTargetSize(t *testing.T) {
	chunker, err := New(WithChunkSize(300), WithSentenceOverlap(2))
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "Sentence number %d talks about a topic in some detail. ", i)
	}

	chunks := chunker.Split(testDocument(), []core.PageText{{Page: 1, Text: sb.String()}})
	require.GreaterOrEqual(t, len(chunks), 4)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
		assert.LessOrEqual(t, len(chunk.Text), 300)
	}
}

func TestSplitOverlap(t *testing.T) {
	chunker, err := New(WithChunkSize(120), WithSentenceOverlap(1))
	require.NoError(t, err)

	text := "Alpha is the first topic here. Bravo follows right after it. Charlie comes in third position. Delta closes out the sequence."
	chunks := chunker.Split(testDocument(), []core.PageText{{Page: 1, Text: text}})
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		previous := splitSentences(chunks[i-1].Text)
		assert.True(t, strings.HasPrefix(chunks[i].Text, previous[len(previous)-1]),
			"chunk %d should start with the last sentence of chunk %d", i, i-1)
	}
}

func TestSplitOversizedSentenceUnsplit(t *testing.T) {
	chunker, err := New(WithChunkSize(50))
	require.NoError(t, err)

	long := "This single sentence keeps going well past the configured target size without a terminator"
	chunks := chunker.Split(testDocument(), []core.PageText{{Page: 1, Text: long}})
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0].Text)
}

func TestSplitSkipsBlankPages(t *testing.T) {
	chunker, err := New()
	require.NoError(t, err)

	chunks := chunker.Split(testDocument(), []core.PageText{
		{Page: 1, Text: "Page one content."},
		{Page: 2, Text: "   \n\t "},
		{Page: 3, Text: "Page three content."},
	})
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 3, chunks[1].Page)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
}

func TestSplitCollapsesWhitespace(t *testing.T) {
	chunker, err := New()
	require.NoError(t, err)

	chunks := chunker.Split(testDocument(), []core.PageText{{Page: 1, Text: "Spread   across\n\nlines\tand   tabs."}})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Spread across lines and tabs.", chunks[0].Text)
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(WithChunkSize(0))
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = New(WithSentenceOverlap(-1))
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

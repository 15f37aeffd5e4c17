package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	t.Run("valid upload carries hash and type", func(t *testing.T) {
		content := []byte("some document text")
		result := ValidateUpload(content, "notes.txt")

		require.True(t, result.Valid)
		assert.Empty(t, result.Reasons)
		assert.Equal(t, HashContent(content), result.ContentHash)
		assert.Equal(t, FileTypeText, result.FileType)
		assert.Equal(t, int64(len(content)), result.Size)
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		result := ValidateUpload(nil, "notes.txt")

		require.False(t, result.Valid)
		assert.Empty(t, result.ContentHash)
		assert.Contains(t, strings.Join(result.Reasons, "; "), "empty")
	})

	t.Run("oversized content is rejected", func(t *testing.T) {
		content := bytes.Repeat([]byte("a"), MaxUploadSize+1)
		result := ValidateUpload(content, "big.txt")

		require.False(t, result.Valid)
		assert.Contains(t, strings.Join(result.Reasons, "; "), "exceeds")
	})

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		result := ValidateUpload([]byte("x"), "image.png")

		require.False(t, result.Valid)
		assert.Contains(t, strings.Join(result.Reasons, "; "), "unsupported")
	})

	t.Run("blank filename is rejected", func(t *testing.T) {
		result := ValidateUpload([]byte("x"), "  ")

		require.False(t, result.Valid)
		assert.Contains(t, strings.Join(result.Reasons, "; "), "filename")
	})

	t.Run("multiple violations are all reported", func(t *testing.T) {
		result := ValidateUpload(nil, "")

		require.False(t, result.Valid)
		assert.GreaterOrEqual(t, len(result.Reasons), 2)
	})
}

func TestValidateDocument(t *testing.T) {
	valid := &Document{
		OwnerId:     "user-1",
		ContentHash: "abc123",
		FileType:    FileTypeText,
		Status:      StatusPending,
	}
	assert.NoError(t, ValidateDocument(valid))

	t.Run("nil document", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("missing owner", func(t *testing.T) {
		doc := *valid
		doc.OwnerId = ""
		assert.ErrorIs(t, ValidateDocument(&doc), ErrEmptyOwner)
	})

	t.Run("missing hash", func(t *testing.T) {
		doc := *valid
		doc.ContentHash = ""
		assert.ErrorIs(t, ValidateDocument(&doc), ErrInvalidDocument)
	})

	t.Run("bad file type", func(t *testing.T) {
		doc := *valid
		doc.FileType = 99
		assert.ErrorIs(t, ValidateDocument(&doc), ErrInvalidFileType)
	})
}

func TestValidateChunk(t *testing.T) {
	valid := &Chunk{
		DocumentId: 7,
		OwnerId:    "user-1",
		Ordinal:    0,
		Text:       "a sentence.",
	}
	assert.NoError(t, ValidateChunk(valid))

	t.Run("missing document id", func(t *testing.T) {
		c := *valid
		c.DocumentId = 0
		assert.ErrorIs(t, ValidateChunk(&c), ErrInvalidChunk)
	})

	t.Run("negative ordinal", func(t *testing.T) {
		c := *valid
		c.Ordinal = -1
		assert.ErrorIs(t, ValidateChunk(&c), ErrNegativeOrdinal)
	})

	t.Run("empty text", func(t *testing.T) {
		c := *valid
		c.Text = ""
		assert.ErrorIs(t, ValidateChunk(&c), ErrEmptyContent)
	})
}

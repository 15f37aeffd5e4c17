package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func TestExtractPlainText(t *testing.T) {
	result, err := Extract([]byte("Hello world. Second sentence."), core.FileTypeText)
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, 1, result.Pages[0].Page)
	assert.Equal(t, "Hello world. Second sentence.", result.Pages[0].Text)
	assert.Equal(t, 4, result.Metadata.WordCount)
	assert.Equal(t, 1, result.Metadata.PageCount)
}

func TestExtractMarkdownTitle(t *testing.T) {
	content := []byte("# Quarterly Report\n\nRevenue grew this quarter.")
	result, err := Extract(content, core.FileTypeMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report", result.Metadata.Title)
	assert.Contains(t, result.Pages[0].Text, "Revenue grew")
}

func TestExtractMarkdownWithoutHeading(t *testing.T) {
	result, err := Extract([]byte("plain prose, no heading"), core.FileTypeMarkdown)
	require.NoError(t, err)
	assert.Empty(t, result.Metadata.Title)
}

func TestExtractCSV(t *testing.T) {
	content := []byte("name,role\nAda,engineer\nGrace,admiral\n")
	result, err := Extract(content, core.FileTypeCSV)
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	assert.Contains(t, result.Pages[0].Text, "name: Ada, role: engineer.")
	assert.Contains(t, result.Pages[0].Text, "name: Grace, role: admiral.")
}

func TestExtractCSVRaggedRows(t *testing.T) {
	content := []byte("a,b\n1\n2,3,4\n")
	result, err := Extract(content, core.FileTypeCSV)
	require.NoError(t, err)
	assert.Contains(t, result.Pages[0].Text, "a: 1.")
	assert.Contains(t, result.Pages[0].Text, "a: 2, b: 3, 4.")
}

func TestExtractEmptyContent(t *testing.T) {
	_, err := Extract([]byte("   \n\t  "), core.FileTypeText)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestExtractInvalidUTF8(t *testing.T) {
	_, err := Extract([]byte{0xff, 0xfe, 0xfd}, core.FileTypeText)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractUnknownTypeFallsBackToText(t *testing.T) {
	result, err := Extract([]byte("readable anyway"), core.FileType(0))
	require.NoError(t, err)
	assert.Equal(t, "readable anyway", result.Pages[0].Text)
}

func TestExtractUnknownBinaryRejected(t *testing.T) {
	_, err := Extract([]byte{0x00, 0xff, 0x80, 0x01}, core.FileType(0))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4 not actually a pdf"), core.FileTypePDF)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractCorruptDocx(t *testing.T) {
	_, err := Extract([]byte("not a zip archive"), core.FileTypeDocx)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractLargeText(t *testing.T) {
	text := strings.Repeat("word ", 10_000)
	result, err := Extract([]byte(text), core.FileTypeText)
	require.NoError(t, err)
	assert.Equal(t, 10_000, result.Metadata.WordCount)
}

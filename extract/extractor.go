package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/corpus/core"
)

// Result is the outcome of a successful extraction: ordered (page, text)
// pairs and whatever metadata the format exposes.
type Result struct {
	Pages    []core.PageText
	Metadata core.DocumentMetadata
}

// Extract converts raw bytes of the declared format into plain text pages.
// Returns ErrUnsupportedFormat for unknown formats, ErrExtractionFailed for
// input that cannot be parsed as its format, and ErrNoContent when parsing
// succeeds but yields no text.
func Extract(content []byte, fileType core.FileType) (*Result, error) {
	var (
		result *Result
		err    error
	)
	switch fileType {
	case core.FileTypeText:
		result, err = extractText(content)
	case core.FileTypeMarkdown:
		result, err = extractMarkdown(content)
	case core.FileTypeCSV:
		result, err = extractCSV(content)
	case core.FileTypePDF:
		result, err = extractPDF(content)
	case core.FileTypeDocx:
		result, err = extractDocx(content)
	default:
		// Last resort mirrors the upload fallback: accept anything that
		// decodes as UTF-8 text.
		if utf8.Valid(content) {
			result, err = extractText(content)
		} else {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, fileType)
		}
	}
	if err != nil {
		return nil, err
	}

	if empty(result.Pages) {
		return nil, ErrNoContent
	}
	return result, nil
}

func empty(pages []core.PageText) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

package extract

import (
	"bytes"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/poiesic/corpus/core"
)

// extractDocx converts Word documents through docconv. Word formats carry no
// reliable page boundaries in their XML, so the whole body is page 1.
func extractDocx(content []byte) (*Result, error) {
	text, meta, err := docconv.ConvertDocx(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}

	result := &Result{
		Pages: []core.PageText{{Page: 1, Text: text}},
		Metadata: core.DocumentMetadata{
			PageCount: 1,
			WordCount: wordCount(text),
			CharCount: len(text),
		},
	}
	if meta != nil {
		result.Metadata.Title = strings.TrimSpace(meta["Title"])
		result.Metadata.Author = strings.TrimSpace(meta["Author"])
	}
	return result, nil
}

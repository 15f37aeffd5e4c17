package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/corpus/core"
)

// extractText handles plain text. The whole input becomes a single page so
// downstream page references stay meaningful.
func extractText(content []byte) (*Result, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrExtractionFailed)
	}
	text := string(content)

	return &Result{
		Pages: []core.PageText{{Page: 1, Text: text}},
		Metadata: core.DocumentMetadata{
			PageCount: 1,
			WordCount: wordCount(text),
			CharCount: len(text),
		},
	}, nil
}

// extractMarkdown treats markdown as plain text but recovers a title from the
// leading heading when present.
func extractMarkdown(content []byte) (*Result, error) {
	result, err := extractText(content)
	if err != nil {
		return nil, err
	}
	if title := firstLine(result.Pages[0].Text); strings.HasPrefix(title, "#") {
		result.Metadata.Title = strings.TrimSpace(strings.TrimLeft(title, "# "))
	}
	return result, nil
}

// firstLine returns the first non-blank line of text.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

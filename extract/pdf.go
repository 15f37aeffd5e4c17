package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/poiesic/corpus/core"
)

// extractPDF pulls plain text page by page. Blank pages are skipped so the
// page numbers on the surviving chunks still reference the source document.
func extractPDF(content []byte) (result *Result, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	result = &Result{}
	words := 0
	chars := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		result.Pages = append(result.Pages, core.PageText{Page: i, Text: text})
		words += wordCount(text)
		chars += len(text)
	}
	if len(result.Pages) == 0 {
		return nil, ErrNoContent
	}

	result.Metadata = core.DocumentMetadata{
		PageCount: reader.NumPage(),
		WordCount: words,
		CharCount: chars,
	}
	if info := reader.Trailer().Key("Info"); !info.IsNull() {
		if title := info.Key("Title"); !title.IsNull() {
			result.Metadata.Title = strings.TrimSpace(title.RawString())
		}
		if author := info.Key("Author"); !author.IsNull() {
			result.Metadata.Author = strings.TrimSpace(author.RawString())
		}
	}
	return result, nil
}

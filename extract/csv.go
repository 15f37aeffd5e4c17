package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/poiesic/corpus/core"
)

// extractCSV flattens delimited tabular data into prose-like lines, one row
// per line with the header value prefixed, so the chunker and the embedding
// model see self-describing text rather than bare cells.
func extractCSV(content []byte) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if len(records) == 0 {
		return nil, ErrNoContent
	}

	header := records[0]
	var sb strings.Builder
	for _, row := range records[1:] {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				cells = append(cells, strings.TrimSpace(header[i])+": "+cell)
			} else {
				cells = append(cells, cell)
			}
		}
		if len(cells) > 0 {
			sb.WriteString(strings.Join(cells, ", "))
			sb.WriteString(".\n")
		}
	}

	text := sb.String()
	return &Result{
		Pages: []core.PageText{{Page: 1, Text: text}},
		Metadata: core.DocumentMetadata{
			PageCount: 1,
			WordCount: wordCount(text),
			CharCount: len(text),
		},
	}, nil
}

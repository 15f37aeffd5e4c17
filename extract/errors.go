package extract

import "errors"

var (
	// ErrUnsupportedFormat indicates the declared file type has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed indicates the input could not be parsed as its
	// declared format.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrNoContent indicates extraction succeeded but produced no text.
	ErrNoContent = errors.New("document contains no extractable text")
)

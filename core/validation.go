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


package core

import (
	"fmt"
	"strings"
)

// MaxUploadSize is the upload size ceiling in bytes.
const MaxUploadSize = 50 << 20 // 50 MiB

// ValidationResult is the outcome of upload validation. It never carries an
// error: callers branch on Valid and surface Reasons to the uploader.
type ValidationResult struct {
	Valid       bool
	Size        int64
	FileType    FileType
	ContentHash string   // populated only when Valid
	Reasons     []string // populated only when not Valid
}

// ValidateUpload checks raw upload bytes against the domain rules and, when
// they pass, computes the content hash used for deduplication.
//
// Rules:
//   - content must not be empty
//   - content must not exceed MaxUploadSize
//   - filename must be non-blank with a supported extension
//
// Pure function over its inputs; it never returns an error for bad input.
func ValidateUpload(content []byte, filename string) ValidationResult {
	result := ValidationResult{Size: int64(len(content))}

	if len(content) == 0 {
		result.Reasons = append(result.Reasons, "file is empty")
	}
	if len(content) > MaxUploadSize {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("file size (%d bytes) exceeds maximum allowed size (%d bytes)", len(content), MaxUploadSize))
	}
	if strings.TrimSpace(filename) == "" {
		result.Reasons = append(result.Reasons, "filename is required")
	} else if ft, ok := FileTypeFromName(filename); ok {
		result.FileType = ft
	} else {
		result.Reasons = append(result.Reasons,
			"unsupported file type, supported: .txt, .md, .csv, .pdf, .doc, .docx")
	}

	if len(result.Reasons) > 0 {
		return result
	}

	result.Valid = true
	result.ContentHash = HashContent(content)
	return result
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - OwnerId must not be empty
//   - ContentHash must not be empty
//   - FileType and Status must be known values
//
// NOT validated (populated by the orchestrator):
//   - ChunkCount, Embedded, Metrics (set on terminal transitions)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.OwnerId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyOwner)
	}
	if doc.ContentHash == "" {
		return fmt.Errorf("%w: content hash is empty", ErrInvalidDocument)
	}
	if doc.FileType.String() == "unknown" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidFileType)
	}
	if doc.Status.String() == "unknown" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidStatus)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must be set (a chunk never precedes its document)
//   - OwnerId must not be empty
//   - Ordinal must be non-negative
//   - Text must not be empty
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id is not set", ErrInvalidChunk)
	}
	if chunk.OwnerId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyOwner)
	}
	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeOrdinal)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	return nil
}

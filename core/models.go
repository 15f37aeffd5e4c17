package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HashContent computes the full BLAKE2b-256 digest of raw bytes as a hex string.
// Used for per-owner upload deduplication, where 64 bits is not enough margin.
func HashContent(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ChunkPointID derives the vector store point ID for a chunk.
// Deterministic on (document, ordinal) so that re-upserting the same chunk
// overwrites instead of duplicating.
func ChunkPointID(documentID ID, ordinal int) ID {
	return IDFromContent(fmt.Sprintf("%d:%d", documentID, ordinal))
}

// FileType identifies the declared format of an uploaded document.
type FileType int

const (
	// FileTypeText is plain UTF-8 text.
	FileTypeText FileType = iota + 1
	// FileTypeMarkdown is markdown, extracted as plain text.
	FileTypeMarkdown
	// FileTypeCSV is delimited tabular data.
	FileTypeCSV
	// FileTypePDF is a portable document.
	FileTypePDF
	// FileTypeDocx is a word-processor document (.doc/.docx).
	FileTypeDocx
)

// String returns the canonical lowercase name of the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeText:
		return "txt"
	case FileTypeMarkdown:
		return "md"
	case FileTypeCSV:
		return "csv"
	case FileTypePDF:
		return "pdf"
	case FileTypeDocx:
		return "docx"
	default:
		return "unknown"
	}
}

// FileTypeFromName determines the file type from a filename extension.
// Returns false if the extension is not in the supported set.
func FileTypeFromName(filename string) (FileType, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FileTypeText, true
	case ".md":
		return FileTypeMarkdown, true
	case ".csv":
		return FileTypeCSV, true
	case ".pdf":
		return FileTypePDF, true
	case ".doc", ".docx":
		return FileTypeDocx, true
	default:
		return 0, false
	}
}

// DocumentMetadata holds best-effort metadata recovered during extraction.
type DocumentMetadata struct {
	Title     string
	Author    string
	PageCount int
	WordCount int
	CharCount int
}

// ProcessingMetrics records aggregate results of one processing attempt.
type ProcessingMetrics struct {
	ChunksCreated  int
	ProcessingTime time.Duration
	EmbeddingTime  time.Duration
}

// Document represents one uploaded artifact and its lifecycle state.
// Lifecycle fields (Status, JobId, ChunkCount, Embedded, Metrics,
// ProcessingError) are mutated only through the repository transition
// methods; everything else is set at registration.
type Document struct {
	Id                  ID
	OwnerId             string
	Name                string // display name
	OriginalName        string
	FileType            FileType
	Size                int64
	ContentHash         string // BLAKE2b-256 hex, unique within an owner's scope
	StorageKey          string // blob store locator
	Status              DocumentStatus
	JobId               string // idempotency token of the active processing claim
	ChunkCount          int
	Embedded            bool // true once all chunk embeddings are stored
	Tags                []string
	Category            string
	Metadata            DocumentMetadata
	Metrics             ProcessingMetrics
	ProcessingError     string
	ProcessingStartedAt time.Time
	ProcessingEndedAt   time.Time
	InsertedAt          time.Time
	UpdatedAt           time.Time
}

// ProcessingDuration returns the wall time of the last processing attempt,
// or zero if the document never reached a terminal processing state.
func (d *Document) ProcessingDuration() time.Duration {
	if d.ProcessingStartedAt.IsZero() || d.ProcessingEndedAt.IsZero() {
		return 0
	}
	return d.ProcessingEndedAt.Sub(d.ProcessingStartedAt)
}

// Chunk is one retrievable text fragment of a Document.
// (DocumentId, Ordinal) is unique; ordinal order matches source order.
type Chunk struct {
	DocumentId    ID
	OwnerId       string // denormalized for tenant isolation
	Ordinal       int
	Text          string
	TextHash      ID // fragment-level content hash
	Page          int
	SentenceCount int
	WordCount     int
	CharCount     int
	Quality       float32
	PointId       ID // vector store entry, 0 until the embedding is stored
	EmbeddedAt    time.Time
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// PageText is one ordered (page, text) pair produced by extraction.
type PageText struct {
	Page int
	Text string
}

// ChunkMatch is a ranked retrieval result.
type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}

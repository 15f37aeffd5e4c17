package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	documentHashPrefix  = "dochsh"
	documentOwnerPrefix = "docown"
	documentIDSeq       = "docrecseq"
	chunkPrefix         = "chkrec"
	blobPrefix          = "blbrec"
	vectorPrefix        = "vecrec"
	vectorConfigKey     = "veccfg"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentHashKey generates a key for the per-owner content hash index.
// Format: prefix:owner:hash
func makeDocumentHashKey(ownerID, contentHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentHashPrefix, ownerID, contentHash))
}

// makeDocumentOwnerKey generates a composite key for the owner index.
// Format: prefix:owner:id
func makeDocumentOwnerKey(ownerID string, id core.ID) []byte {
	prefix := makePartialDocumentOwnerKey(ownerID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentOwnerKey generates a prefix for owner index scans.
func makePartialDocumentOwnerKey(ownerID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentOwnerPrefix, ownerID))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:ordinal, both BigEndian so iteration yields
// chunks in ordinal order.
func makeChunkKey(documentID core.ID, ordinal int) []byte {
	prefix := makePartialChunkKey(documentID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}

// makePartialChunkKey generates a prefix for scanning one document's chunks.
func makePartialChunkKey(documentID core.ID) []byte {
	prefix := []byte(chunkPrefix + ":")
	buf := make([]byte, len(prefix)+9)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	buf[offset+8] = ':'
	return buf
}

// makeBlobKey generates a key for raw document content.
// Format: prefix:owner:documentID
func makeBlobKey(ownerID string, documentID core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", blobPrefix, ownerID))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeVectorKey generates a key for an embedding point.
// Format: prefix:owner:pointID. The owner is part of the key, so scans for
// one owner can never touch another owner's points.
func makeVectorKey(ownerID string, pointID core.ID) []byte {
	prefix := makePartialVectorKey(ownerID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(pointID))
	return buf
}

// makePartialVectorKey generates a prefix for scanning one owner's points.
func makePartialVectorKey(ownerID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, ownerID))
}

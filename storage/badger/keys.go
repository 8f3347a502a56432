package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/bubbl/core"
)

// Key prefixes for different data types
const (
	bubbleRecordPrefix = "bubrec"
	bubbleDatePrefix   = "bubdate"
	bubbleDupPrefix    = "bubdup"
	bubbleIDSeq        = "bubrecseq"
)

// makeBubbleKey generates a key for a bubble record by ID.
func makeBubbleKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", bubbleRecordPrefix, id))
}

// makeBubbleDateKey generates a composite key for the created-at index.
// Format: prefix:timestamp:id
func makeBubbleDateKey(createdAt time.Time, id core.ID) []byte {
	prefix := bubbleDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialBubbleDateKey generates a partial key for date-ordered scans.
// Format: prefix:timestamp
func makePartialBubbleDateKey(createdAt time.Time) []byte {
	prefix := bubbleDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	return buf
}

// makeDupKey generates a key for the (author, content) uniqueness index.
func makeDupKey(dupID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", bubbleDupPrefix, dupID))
}

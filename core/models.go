package core

import (
	"encoding/binary"
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

// DuplicateID generates the uniqueness-index ID for an (author, content) pair.
// Two bubbles collide exactly when their DuplicateID is equal.
func DuplicateID(author, content string) ID {
	return IDFromContent(author + "\x00" + content)
}

// Bubble is a short user-authored post. Bubbles are immutable after creation:
// they are inserted, possibly re-embedded, and eventually deleted, but their
// content, author and category never change.
type Bubble struct {
	Id        ID
	Content   string
	Author    string
	Category  string    // optional free-text label
	CreatedAt time.Time // assigned by the store at insertion
	Vector    []float32 // embedding of Content (populated at insert or reembed)
}

// UserProfile is a per-request view of one author's bubbles,
// most recent first. It is never persisted.
type UserProfile struct {
	Author     string
	TotalCount int
	Bubbles    []*Bubble
}

// RankedAuthor is one entry of an affinity ranking: an author and the cosine
// similarity of their aggregated writing to the reference profile.
type RankedAuthor struct {
	Author string
	Score  float32
}

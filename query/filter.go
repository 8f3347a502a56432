package query

import (
	"fmt"

	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/storage"
)

// Filter describes the constraints of a bubble lookup.
//
// Author and ExcludeAuthor are mutually exclusive: the first restricts the
// result to one author, the second removes one author from the result.
// Text switches the result ordering: empty means newest first, non-empty
// means semantic relevance to Text, with the metadata constraints applied
// as a pre-filter in both cases.
type Filter struct {
	Author        string // exact match on author
	ExcludeAuthor string // drop this author's bubbles
	Category      string // exact match on category
	Text          string // semantic query text
}

// Validate rejects contradictory constraints before any store call.
func (f Filter) Validate() error {
	if f.Author != "" && f.ExcludeAuthor != "" {
		return fmt.Errorf("%w: author and exclude-author are mutually exclusive", core.ErrInvalidQuery)
	}
	return nil
}

// Semantic reports whether results are ordered by relevance to Text
// rather than by creation time.
func (f Filter) Semantic() bool {
	return f.Text != ""
}

// Predicate compiles the metadata constraints into a storage predicate.
// The Text constraint is not part of the predicate; it drives ordering.
func (f Filter) Predicate() storage.Predicate {
	return func(b *core.Bubble) bool {
		if f.Author != "" && b.Author != f.Author {
			return false
		}
		if f.ExcludeAuthor != "" && b.Author == f.ExcludeAuthor {
			return false
		}
		if f.Category != "" && b.Category != f.Category {
			return false
		}
		return true
	}
}

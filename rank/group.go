package rank

import "github.com/poiesic/bubbl/core"

// contentSeparator joins successive bubbles of the same author.
const contentSeparator = "\r\n"

// AuthorGroups holds per-author concatenated bubble text.
// Authors keep their first-seen order, which in turn fixes the fan-out
// submission order of the later pipeline stages.
type AuthorGroups struct {
	authors []string
	texts   map[string]string
}

// GroupByAuthor groups bubbles by author, concatenating contents in
// retrieval order. Authors with zero bubbles never appear.
func GroupByAuthor(bubbles []*core.Bubble) *AuthorGroups {
	g := &AuthorGroups{texts: make(map[string]string)}
	for _, bubble := range bubbles {
		if _, seen := g.texts[bubble.Author]; !seen {
			g.authors = append(g.authors, bubble.Author)
			g.texts[bubble.Author] = bubble.Content
			continue
		}
		g.texts[bubble.Author] += contentSeparator + bubble.Content
	}
	return g
}

// Len returns the number of authors.
func (g *AuthorGroups) Len() int {
	return len(g.authors)
}

// Authors returns the authors in first-seen order.
func (g *AuthorGroups) Authors() []string {
	return g.authors
}

// Text returns the concatenated text of one author.
func (g *AuthorGroups) Text(author string) string {
	return g.texts[author]
}

// Package retrieve fetches, reranks, and preprocesses the documents that
// ground a generated answer.
package retrieve

import (
	"unicode/utf8"

	"github.com/samber/lo"
)

const snippetRuneLimit = 200

// Document is a single retrieved passage, already trimmed to what the
// generator and citation projection need.
type Document struct {
	Title   string
	URL     string
	Content string
	Snippet string
	Score   float64
}

// Citation is the projection of a Document a caller-facing response carries.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Citation projects a Document down to the fields a response actually
// shows the user.
func (d Document) Citation() Citation {
	return Citation{Title: d.Title, URL: d.URL}
}

// Preprocess drops documents with an empty title or fewer than 10 content
// characters, derives each survivor's Snippet, and deduplicates by title —
// the single shared algorithm used by both the retriever and the generator,
// so the two never drift into two different ideas of "a usable document".
func Preprocess(docs []Document) []Document {
	kept := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d.Title == "" || utf8.RuneCountInString(d.Content) < 10 {
			continue
		}
		d.Snippet = snippet(d.Content)
		kept = append(kept, d)
	}
	return lo.UniqBy(kept, func(d Document) string { return d.Title })
}

func snippet(content string) string {
	if utf8.RuneCountInString(content) <= snippetRuneLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:snippetRuneLimit]) + "..."
}

// DedupeCitations removes citations with a duplicate title, preserving
// first-occurrence order.
func DedupeCitations(citations []Citation) []Citation {
	return lo.UniqBy(citations, func(c Citation) string { return c.Title })
}

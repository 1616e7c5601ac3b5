package retrieval

import (
	"strings"

	"github.com/koukiniwa/ai-kouki-backend/internal/store"
)

// Document is one blog post as seen by the retrieval engine. Documents are
// never mutated after construction; a refresh replaces the whole set.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	// Date is "YYYY.MM.DD" (zero padded) or empty.
	Date string `json:"date"`
}

// FromRecord builds a Document from a raw store record. Paragraphs are joined
// with newlines; a record without paragraphs falls back to its raw body.
func FromRecord(r store.Record) Document {
	body := r.Body
	if len(r.Paragraphs) > 0 {
		body = strings.Join(r.Paragraphs, "\n")
	}
	return Document{
		ID:    r.ID,
		Title: r.Title,
		Body:  body,
		Date:  r.Date,
	}
}

// FromRecords converts records, preserving store order.
func FromRecords(recs []store.Record) []Document {
	out := make([]Document, len(recs))
	for i, r := range recs {
		out[i] = FromRecord(r)
	}
	return out
}

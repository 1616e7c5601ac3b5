package retrieval

import "sort"

// Recent returns the newest maxResults documents. Dates are compared as
// strings, which orders "YYYY.MM.DD" chronologically and puts empty dates
// last. The input slice is left untouched.
func Recent(docs []Document, maxResults int) []Document {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })
	if maxResults > 0 && len(sorted) > maxResults {
		sorted = sorted[:maxResults]
	}
	return sorted
}

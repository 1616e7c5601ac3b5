package retrieval

import (
	"sort"
	"strings"
)

// Score weights.
const (
	wholeTitleWeight = 5
	wholeBodyWeight  = 5
	partTitleWeight  = 3
	partBodyWeight   = 1

	minPartRunes = 3
)

// stopParts are query fragments that carry no topic: question endings and
// filler that would otherwise match almost every post.
var stopParts = makeSet(
	"について",
	"について教えて",
	"とは何",
	"とはなに",
	"とは何ですか",
	"って何",
	"ってなに",
	"って何ですか",
	"ですか",
	"ますか",
	"でしょうか",
	"なんですか",
	"何ですか",
	"ありますか",
	"どうですか",
	"教えて",
	"おしえて",
	"教えてください",
)

func makeSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// Score rates how well d matches query. A whole-query hit adds 5 for the
// title and 5 for the body. Then every substring of at least 3 runes (by
// position, so repeated fragments count again) adds 3 on a title hit and 1
// on a body hit. The scan is quadratic in query length.
func Score(query string, d Document) int {
	if query == "" {
		return 0
	}
	score := 0
	if strings.Contains(d.Title, query) {
		score += wholeTitleWeight
	}
	if strings.Contains(d.Body, query) {
		score += wholeBodyWeight
	}
	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		for j := i + minPartRunes; j <= len(runes); j++ {
			part := string(runes[i:j])
			if _, stop := stopParts[part]; stop {
				continue
			}
			if strings.Contains(d.Title, part) {
				score += partTitleWeight
			}
			if strings.Contains(d.Body, part) {
				score += partBodyWeight
			}
		}
	}
	return score
}

// Scored pairs a document with its lexical score.
type Scored struct {
	Document
	Score int
}

// Rank returns up to maxResults documents with a positive score, highest
// first. Ties keep corpus order.
func Rank(query string, docs []Document, maxResults int) []Scored {
	scored := make([]Scored, 0, len(docs))
	for _, d := range docs {
		if s := Score(query, d); s > 0 {
			scored = append(scored, Scored{Document: d, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if maxResults > 0 && len(scored) > maxResults {
		scored = scored[:maxResults]
	}
	return scored
}

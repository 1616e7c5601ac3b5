package retrieval

import (
	"strings"

	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

// Renderer formats candidates as plain text meant to be appended verbatim to
// the persona instructions.
type Renderer struct {
	Header       string
	ShowDates    bool
	ExcerptRunes int
}

// DefaultRenderer is the date-aware variant with 500-rune excerpts.
func DefaultRenderer() Renderer {
	return Renderer{
		Header:       "【参考：関連するブログ記事】",
		ShowDates:    true,
		ExcerptRunes: 500,
	}
}

// Render returns "" for no candidates.
func (r Renderer) Render(cands []Candidate) string {
	if len(cands) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(r.Header)
	sb.WriteString("\n")
	for _, c := range cands {
		sb.WriteString("\n■ ")
		sb.WriteString(c.Title)
		if r.ShowDates && c.Date != "" {
			sb.WriteString("（")
			sb.WriteString(c.Date)
			sb.WriteString("）")
		}
		sb.WriteString("\n")
		sb.WriteString(utils.Excerpt(c.Body, r.ExcerptRunes))
		sb.WriteString("\n")
	}
	return sb.String()
}

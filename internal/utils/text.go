package utils

// Text helpers. All lengths are counted in runes so multi-byte text
// (Japanese posts) is never cut mid-character.

// Ellipsis is appended to excerpts that were shortened.
const Ellipsis = "…"

// CountTokens estimates the number of tokens in the given text.
// Rough heuristic: 1 token ~= 4 runes, at least 1 for non-empty text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// Excerpt returns the first limit runes of text followed by Ellipsis when
// text is longer than limit, otherwise text unmodified.
func Excerpt(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + Ellipsis
}

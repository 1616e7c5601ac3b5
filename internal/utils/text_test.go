package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 900},
		{"japanese", "こんにちは", 1},
	}
	for _, c := range cases {
		assert.GreaterOrEqual(t, utils.CountTokens(c.in), c.min, c.name)
	}
}

func TestExcerpt(t *testing.T) {
	body800 := strings.Repeat("a", 800)
	got := utils.Excerpt(body800, 500)
	assert.Equal(t, strings.Repeat("a", 500)+utils.Ellipsis, got)

	body500 := strings.Repeat("b", 500)
	assert.Equal(t, body500, utils.Excerpt(body500, 500))

	// Counted in runes, not bytes.
	jp := strings.Repeat("あ", 501)
	assert.Equal(t, strings.Repeat("あ", 500)+utils.Ellipsis, utils.Excerpt(jp, 500))

	assert.Equal(t, "short", utils.Excerpt("short", 0))
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHashOrdersByID(t *testing.T) {
	recs, err := decodeHash(map[string]string{
		"b": `{"title":"B","date":"2025.02.01"}`,
		"a": `{"id":"a","title":"A","paragraphs":["x","y"]}`,
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, []string{"x", "y"}, recs[0].Paragraphs)
	assert.Equal(t, "b", recs[1].ID)
	assert.Equal(t, "2025.02.01", recs[1].Date)
}

func TestDecodeHashMalformed(t *testing.T) {
	_, err := decodeHash(map[string]string{"a": "not json"})
	require.Error(t, err)
}

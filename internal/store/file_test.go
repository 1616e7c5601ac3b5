package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileStoreListAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-christmas.md", "---\ntitle: クリスマス旅行記\ndate: 2025.12.24\n---\n\n高知の海沿いを走った。\r\n\r\n夜はラーメン。\n")
	writeFile(t, dir, "b-list.yaml", "- id: y1\n  title: ロケット\n  date: \"2025.01.05\"\n  paragraphs: [打ち上げを見た, すごかった]\n- id: y2\n  title: AI\n  body: 生成AIの話\n")
	writeFile(t, dir, "c-single.json", `{"title":"自衛隊","date":"2024.08.01","paragraphs":["見学した"]}`)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts"), 0o755))

	recs, err := NewFileStore(dir).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, "a-christmas", recs[0].ID)
	assert.Equal(t, "クリスマス旅行記", recs[0].Title)
	assert.Equal(t, "2025.12.24", recs[0].Date)
	assert.Equal(t, []string{"高知の海沿いを走った。", "夜はラーメン。"}, recs[0].Paragraphs)

	assert.Equal(t, "y1", recs[1].ID)
	assert.Equal(t, []string{"打ち上げを見た", "すごかった"}, recs[1].Paragraphs)
	assert.Equal(t, "y2", recs[2].ID)
	assert.Equal(t, "生成AIの話", recs[2].Body)
	assert.Empty(t, recs[2].Date)

	assert.Equal(t, "c-single", recs[3].ID)
	assert.Equal(t, "2024.08.01", recs[3].Date)
}

func TestFileStoreMissingDir(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "nope")).ListAll(context.Background())
	require.Error(t, err)
}

func TestFileStoreMalformedRecord(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"title": [}`)
	_, err := NewFileStore(dir).ListAll(context.Background())
	require.Error(t, err)
}

func TestParseMarkdownWithoutFrontMatter(t *testing.T) {
	r, err := parseMarkdownPost([]byte("one\n\n\n\ntwo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, r.Paragraphs)

	_, err = parseMarkdownPost([]byte("---\ntitle: x\nno end"))
	require.Error(t, err)
}

func TestOpenValidatesBackend(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, Options{Backend: BackendFile})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = Open(ctx, Options{Backend: BackendSQLite})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = Open(ctx, Options{Backend: BackendRedis})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = Open(ctx, Options{Backend: "mongo"})
	require.Error(t, err)

	s, err := Open(ctx, Options{Backend: "FILE", PostsDir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
}

func TestReadFileRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "hello")
	_, err := ReadFile(filepath.Join(dir, "notes.txt"))
	require.Error(t, err)

	writeFile(t, dir, "a.json", `[{"id":"x","title":"X"},{"id":"y","title":"Y"}]`)
	recs, err := ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

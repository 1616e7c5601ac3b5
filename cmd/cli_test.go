package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koukiniwa/ai-kouki-backend/internal/retrieval"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg = nil
	cfgFile = ""
	searchJSON, searchContext = false, false
	for _, c := range []string{"json", "context"} {
		if fl := searchCmd.Flags().Lookup(c); fl != nil {
			_ = fl.Value.Set("false")
			fl.Changed = false
		}
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	require.NoError(t, err, "command %v", args)
	return out
}

// setup isolates HOME, writes a small corpus and a config file pointing at
// it, and returns the config path.
func setup(t *testing.T, extra string) (cfgPath, dir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("PORT", "")

	posts := filepath.Join(home, "posts")
	require.NoError(t, os.MkdirAll(posts, 0o755))
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(posts, name), []byte(content), 0o644))
	}
	write("a.md", "---\nid: a\ntitle: 新年の抱負\ndate: \"2024.01.05\"\n---\n今年は筋トレを続ける。\n\n毎朝走る。\n")
	write("b.md", "---\nid: b\ntitle: 筋トレ日記\ndate: \"2024.02.10\"\n---\nジムに行った。\n")
	write("c.md", "---\nid: c\ntitle: 旅行\ndate: \"2023.12.31\"\n---\n京都へ。\n")

	cfgPath = filepath.Join(home, "config.yaml")
	content := "store_backend: file\nposts_dir: " + posts + "\n" + extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath, home
}

func TestCLISearchJSON(t *testing.T) {
	cfgPath, _ := setup(t, "")
	out := mustRun(t, "--config", cfgPath, "search", "--json", "1月5日の筋トレ")

	var cands []retrieval.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &cands))
	require.Len(t, cands, 2)
	assert.Equal(t, "a", cands[0].ID)
	assert.Equal(t, retrieval.SourceDate, cands[0].Source)
	assert.Equal(t, "b", cands[1].ID)
	assert.Equal(t, retrieval.SourceLexical, cands[1].Source)
	assert.Equal(t, 3, cands[1].Score)
}

func TestCLISearchContext(t *testing.T) {
	cfgPath, _ := setup(t, "")
	out := mustRun(t, "--config", cfgPath, "search", "--context", "こんにちは")
	assert.True(t, strings.HasPrefix(out, "\n\n【参考：関連するブログ記事】\n"))
	assert.Contains(t, out, "■ 筋トレ日記（2024.02.10）")
	assert.Contains(t, out, "■ 新年の抱負（2024.01.05）\n今年は筋トレを続ける。\n毎朝走る。")
	assert.NotContains(t, out, "旅行")
}

func TestCLIAskUsesConfiguredRuntime(t *testing.T) {
	var system string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 && req.Messages[0].Role == "system" {
			system = req.Messages[0].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "m",
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "筋トレは続いてるよ"}}},
		})
	}))
	defer srv.Close()

	cfgPath, _ := setup(t, "provider: openrouter\napi_key: k\nmodel: m\nbase_url: "+srv.URL+"\n")
	out := mustRun(t, "--config", cfgPath, "ask", "筋トレ続いてる？")
	assert.Equal(t, "筋トレは続いてるよ\n", out)
	assert.Contains(t, system, "【参考：関連するブログ記事】")
	assert.Contains(t, system, "■ 筋トレ日記")
}

func TestCLIPostsImportAndList(t *testing.T) {
	cfgPath, home := setup(t, "")
	dbPath := filepath.Join(home, "posts.db")
	mustRun(t, "--config", cfgPath, "config", "set", "store_backend", "sqlite")
	mustRun(t, "--config", cfgPath, "config", "set", "sqlite_path", dbPath)

	extra := filepath.Join(home, "more.json")
	require.NoError(t, os.WriteFile(extra, []byte(`[{"id":"d","title":"花見","date":"2024.04.01","paragraphs":["桜がきれい"]}]`), 0o644))

	out := mustRun(t, "--config", cfgPath, "posts", "import", filepath.Join(home, "posts", "a.md"), extra)
	assert.Contains(t, out, "Imported 2 posts")

	out = mustRun(t, "--config", cfgPath, "posts", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024.04.01  d: 花見"))
	assert.True(t, strings.HasPrefix(lines[1], "2024.01.05  a: 新年の抱負"))
}

func TestCLIPostsImportRejectsReadOnlyBackend(t *testing.T) {
	cfgPath, home := setup(t, "")
	_, err := runCmd(t, "--config", cfgPath, "posts", "import", filepath.Join(home, "posts", "a.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestCLIConfigSetAndShow(t *testing.T) {
	cfgPath, _ := setup(t, "")
	mustRun(t, "--config", cfgPath, "config", "set", "api_key", "sk-ant-secret-value")
	mustRun(t, "--config", cfgPath, "config", "set", "excerpt_chars", "200")

	_, err := runCmd(t, "--config", cfgPath, "config", "set", "provider", "ollama")
	require.Error(t, err)

	out := mustRun(t, "--config", cfgPath, "config", "show")
	assert.Contains(t, out, "api_key: sk-****lue")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "excerpt_chars: 200")
	assert.Contains(t, out, "provider: anthropic")
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", "json", false)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, "error", "text", true).Debug("dbg")
	assert.Contains(t, buf.String(), "dbg")
}

func TestCmdContextFallsBackToBackground(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	require.NotNil(t, cmdContext(c))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.SetContext(ctx)
	assert.Equal(t, ctx, cmdContext(c))
}

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileStore reads posts from a directory. Markdown files carry an optional
// YAML front matter block; YAML and JSON files hold one record or a list.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

func (s *FileStore) Close() error { return nil }

// ListAll reads every supported file in lexical filename order.
func (s *FileStore) ListAll(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}
	var out []Record
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if e.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		recs, err := readRecordFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ReadFile decodes the records of one post file, using the same rules as
// the directory listing.
func ReadFile(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".yaml", ".yml", ".json":
		return readRecordFile(path)
	}
	return nil, fmt.Errorf("unsupported post file %s", filepath.Base(path))
}

func readRecordFile(path string) ([]Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown", ".yaml", ".yml", ".json":
	default:
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		r, err := parseMarkdownPost(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if r.ID == "" {
			r.ID = stem
		}
		return []Record{r}, nil
	default:
		recs, err := DecodeRecords(data, ext == ".json")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(recs) == 1 && recs[0].ID == "" {
			recs[0].ID = stem
		}
		return recs, nil
	}
}

// DecodeRecords accepts either a single record or a list of records.
func DecodeRecords(data []byte, isJSON bool) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if isJSON {
		if trimmed[0] == '[' {
			var recs []Record
			if err := json.Unmarshal(trimmed, &recs); err != nil {
				return nil, err
			}
			return recs, nil
		}
		var r Record
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, err
		}
		return []Record{r}, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var recs []Record
		if err := node.Decode(&recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
	var r Record
	if err := node.Decode(&r); err != nil {
		return nil, err
	}
	return []Record{r}, nil
}

// parseMarkdownPost splits front matter from the body and turns the body
// into paragraphs separated by blank lines.
func parseMarkdownPost(data []byte) (Record, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var r Record
	if rest, ok := strings.CutPrefix(text, "---\n"); ok {
		front, body, found := strings.Cut(rest, "\n---")
		if !found {
			return Record{}, fmt.Errorf("unterminated front matter")
		}
		if err := yaml.Unmarshal([]byte(front), &r); err != nil {
			return Record{}, fmt.Errorf("front matter: %w", err)
		}
		text = body
	}
	r.Paragraphs = splitParagraphs(text)
	r.Body = ""
	return r, nil
}

func splitParagraphs(s string) []string {
	raw := strings.Split(s, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

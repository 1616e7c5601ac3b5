package retrieval

import (
	"context"
	"io"
	"log/slog"
)

// Source names the strategy that contributed a candidate.
type Source string

const (
	SourceDate    Source = "date"
	SourceLexical Source = "lexical"
	SourceRecency Source = "recency"
)

// Candidate is a merged retrieval result. Score is only set for lexical hits.
type Candidate struct {
	Document
	Source Source `json:"source"`
	Score  int    `json:"score,omitempty"`
}

// DocumentSource supplies the corpus snapshot; *Cache implements it.
type DocumentSource interface {
	GetAll(ctx context.Context) ([]Document, error)
}

// Options caps each strategy and controls rendering.
type Options struct {
	DateMaxResults    int
	LexicalMaxResults int
	RecentMaxResults  int
	Renderer          Renderer
}

// DefaultOptions mirrors the limits the chat endpoint has always used.
func DefaultOptions() Options {
	return Options{
		DateMaxResults:    3,
		LexicalMaxResults: 2,
		RecentMaxResults:  2,
		Renderer:          DefaultRenderer(),
	}
}

// Engine turns a user utterance into a context block.
type Engine struct {
	src  DocumentSource
	opts Options
	log  *slog.Logger
}

// NewEngine fills zero-valued options from DefaultOptions.
func NewEngine(src DocumentSource, opts Options, logger *slog.Logger) *Engine {
	def := DefaultOptions()
	if opts.DateMaxResults <= 0 {
		opts.DateMaxResults = def.DateMaxResults
	}
	if opts.LexicalMaxResults <= 0 {
		opts.LexicalMaxResults = def.LexicalMaxResults
	}
	if opts.RecentMaxResults <= 0 {
		opts.RecentMaxResults = def.RecentMaxResults
	}
	if opts.Renderer.Header == "" {
		opts.Renderer.Header = def.Renderer.Header
	}
	if opts.Renderer.ExcerptRunes <= 0 {
		opts.Renderer.ExcerptRunes = def.Renderer.ExcerptRunes
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{src: src, opts: opts, log: logger}
}

// Retrieve runs the date, lexical and recency strategies against one
// snapshot and merges them. A store failure is logged and the engine works
// with whatever snapshot the source still has.
func (e *Engine) Retrieve(ctx context.Context, query string) []Candidate {
	docs, err := e.src.GetAll(ctx)
	if err != nil {
		e.log.Warn("document store unavailable, using cached snapshot",
			"error", err, "documents", len(docs))
	}
	if len(docs) == 0 {
		return nil
	}
	cands := Merge(
		MatchDate(query, docs, e.opts.DateMaxResults),
		Rank(query, docs, e.opts.LexicalMaxResults),
		Recent(docs, e.opts.RecentMaxResults),
	)
	recordCandidates(cands)
	e.log.Debug("retrieved context", "candidates", len(cands))
	return cands
}

// BuildContext renders the merged candidates, or returns "" when nothing
// matched.
func (e *Engine) BuildContext(ctx context.Context, query string) string {
	return e.opts.Renderer.Render(e.Retrieve(ctx, query))
}

// Merge concatenates date, lexical and recency results in that priority,
// skipping any document id already taken.
func Merge(date []Document, lexical []Scored, recent []Document) []Candidate {
	seen := make(map[string]struct{}, len(date)+len(lexical)+len(recent))
	out := make([]Candidate, 0, len(date)+len(lexical)+len(recent))
	add := func(c Candidate) {
		if _, dup := seen[c.ID]; dup {
			return
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	for _, d := range date {
		add(Candidate{Document: d, Source: SourceDate})
	}
	for _, s := range lexical {
		add(Candidate{Document: s.Document, Source: SourceLexical, Score: s.Score})
	}
	for _, d := range recent {
		add(Candidate{Document: d, Source: SourceRecency})
	}
	return out
}

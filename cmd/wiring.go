package cmd

import (
	"context"
	"fmt"

	"github.com/koukiniwa/ai-kouki-backend/internal/ai"
	cfgpkg "github.com/koukiniwa/ai-kouki-backend/internal/config"
	"github.com/koukiniwa/ai-kouki-backend/internal/persona"
	"github.com/koukiniwa/ai-kouki-backend/internal/retrieval"
	"github.com/koukiniwa/ai-kouki-backend/internal/server"
	"github.com/koukiniwa/ai-kouki-backend/internal/session"
	"github.com/koukiniwa/ai-kouki-backend/internal/store"
)

func storeOptions(c *cfgpkg.Global) store.Options {
	return store.Options{
		Backend:             c.StoreBackend,
		PostsDir:            c.PostsDir,
		SQLitePath:          c.SQLitePath,
		RedisAddr:           c.RedisAddr,
		RedisPassword:       c.RedisPassword,
		RedisDB:             c.RedisDB,
		RedisKey:            c.RedisKey,
		FirestoreProject:    c.FirestoreProject,
		FirestoreCollection: c.FirestoreCollection,
	}
}

// retrievalStack is the store, its cache and the engine built on top.
type retrievalStack struct {
	store  store.Store
	cache  *retrieval.Cache
	engine *retrieval.Engine
}

func (r *retrievalStack) Close() error { return r.store.Close() }

func buildRetrieval(ctx context.Context, c *cfgpkg.Global) (*retrievalStack, error) {
	st, err := store.Open(ctx, storeOptions(c))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	cache := retrieval.NewCache(st,
		retrieval.WithTTL(c.CacheTTL()),
		retrieval.WithLogger(logger),
	)
	r := retrieval.DefaultRenderer()
	r.ExcerptRunes = c.ExcerptChars
	engine := retrieval.NewEngine(cache, retrieval.Options{
		DateMaxResults:    c.DateMaxResults,
		LexicalMaxResults: c.LexicalMaxResults,
		RecentMaxResults:  c.RecentMaxResults,
		Renderer:          r,
	}, logger)
	return &retrievalStack{store: st, cache: cache, engine: engine}, nil
}

func buildRuntime(c *cfgpkg.Global) (ai.Runtime, error) {
	rt, ok := ai.GetRuntime(c.Provider, ai.RuntimeConfig{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		HTTPTimeout: c.HTTPTimeout(),
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   c.RetryBaseDelay(),
		MaxDelay:    c.RetryMaxDelay(),
	})
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %v)", c.Provider, ai.Providers())
	}
	return rt, nil
}

// buildChat wires the whole chat pipeline. The caller closes the returned
// stack.
func buildChat(ctx context.Context, c *cfgpkg.Global) (*server.ChatService, *retrievalStack, error) {
	p, err := persona.Load(c.PersonaFile)
	if err != nil {
		return nil, nil, err
	}
	rt, err := buildRuntime(c)
	if err != nil {
		return nil, nil, err
	}
	rs, err := buildRetrieval(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	chat := &server.ChatService{
		Engine: rs.engine,
		Sessions: session.NewStore(session.Options{
			MaxClients: c.SessionMaxClients,
			TTL:        c.SessionTTL(),
		}),
		Runtime:     rt,
		Persona:     p,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Logger:      logger,
	}
	return chat, rs, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/mission-copilot/internal/cache"
	"github.com/pdiddy/mission-copilot/internal/catalog"
	"github.com/pdiddy/mission-copilot/internal/copilot"
	"github.com/pdiddy/mission-copilot/internal/rag"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// app holds the components built from cfg for one command run.
type app struct {
	store   *catalog.Store
	rag     *rag.Client
	cache   cache.Client
	cascade *copilot.Cascade
}

func openStore() (*catalog.Store, error) {
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return store, nil
}

// newApp wires the catalog, the optional answer service with its cache,
// and the cascade.
func newApp(ctx context.Context) (*app, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	a := &app{store: store}

	var service copilot.AnswerService
	if cfg.AnswerService.BaseURL != "" {
		a.rag, err = rag.NewClient(cfg.AnswerService, &http.Client{})
		if err != nil {
			a.Close()
			return nil, err
		}
		service = a.rag

		a.cache, err = newCache(ctx, cfg.Cache)
		if err != nil {
			a.Close()
			return nil, err
		}
		if a.cache != nil {
			service = rag.NewCachedService(a.rag, a.cache, cfg.Cache.TTL, logger)
		}
	}

	vocab, err := copilot.LoadVocabulary(cfg.Cascade.VocabularyFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cascade, err = copilot.New(store, service, copilot.Options{
		Vocabulary:   vocab,
		Limits:       cfg.Cascade,
		TopK:         cfg.AnswerService.TopK,
		StoreTimeout: cfg.Catalog.QueryTimeout,
		Logger:       logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug().
		Str("catalog", string(cfg.Catalog.Driver)).
		Bool("answer_service", a.rag != nil).
		Str("cache", string(cfg.Cache.Backend)).
		Msg("copilot ready")
	return a, nil
}

func newCache(ctx context.Context, c types.CacheConfig) (cache.Client, error) {
	switch c.Backend {
	case types.CacheNone, "":
		return nil, nil
	case types.CacheMemory:
		return cache.NewMemoryClient(c.MaxEntries), nil
	case types.CacheRedis:
		rc, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q: use none, memory or redis", c.Backend)
	}
}

// Close releases the catalog and cache connections.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rag

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mission-copilot/internal/cache"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// Service is the answer-service contract consumed by the copilot.
type Service interface {
	Answer(ctx context.Context, q string, k int, intent string) (*types.AnswerResponse, error)
	Query(ctx context.Context, q string, k int) (*types.QueryResponse, error)
}

// CachedService serves repeated questions from a cache. Failed calls are
// never cached, so an unavailable service is retried on the next question.
type CachedService struct {
	next  Service
	cache cache.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedService wraps next with c.
func NewCachedService(next Service, c cache.Client, ttl time.Duration, log zerolog.Logger) *CachedService {
	return &CachedService{next: next, cache: c, ttl: ttl, log: log}
}

// Answer returns a cached /answer payload or fetches and stores a fresh one.
func (s *CachedService) Answer(ctx context.Context, q string, k int, intent string) (*types.AnswerResponse, error) {
	key := cache.Key("answer", intent, strconv.Itoa(k), q)
	var out types.AnswerResponse
	if s.lookup(ctx, key, &out) {
		return &out, nil
	}
	resp, err := s.next.Answer(ctx, q, k, intent)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, resp)
	return resp, nil
}

// Query returns a cached /query payload or fetches and stores a fresh one.
func (s *CachedService) Query(ctx context.Context, q string, k int) (*types.QueryResponse, error) {
	key := cache.Key("query", strconv.Itoa(k), q)
	var out types.QueryResponse
	if s.lookup(ctx, key, &out) {
		return &out, nil
	}
	resp, err := s.next.Query(ctx, q, k)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, resp)
	return resp, nil
}

func (s *CachedService) lookup(ctx context.Context, key string, out any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Str("key", key).Msg("answer cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		return false
	}
	return true
}

func (s *CachedService) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("answer cache write failed")
	}
}

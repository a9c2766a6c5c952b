// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rag talks to the optional external answer service: a local
// retrieval server exposing GET /answer (synthesized answer with sources)
// and GET /query (ranked documents).
package rag

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/mission-copilot/internal/httputil"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// Client calls the answer service over HTTP. Every call is a single request
// bounded by cfg.Timeout.
type Client struct {
	HTTP *http.Client
	cfg  types.AnswerServiceConfig
	base string
}

// NewClient returns a client for cfg.BaseURL. It fails when the URL is empty
// or not absolute.
func NewClient(cfg types.AnswerServiceConfig, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("answer service base URL is empty")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid answer service base URL %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{HTTP: httpClient, cfg: cfg, base: base}, nil
}

// Answer requests a synthesized answer for q. The intent label is forwarded
// so the service can pick a phrasing style.
func (c *Client) Answer(ctx context.Context, q string, k int, intent string) (*types.AnswerResponse, error) {
	params := url.Values{
		"q":      {q},
		"k":      {strconv.Itoa(k)},
		"intent": {intent},
	}
	var out types.AnswerResponse
	if err := c.get(ctx, "/answer", params, &out); err != nil {
		return nil, fmt.Errorf("answer service /answer: %w", err)
	}
	return &out, nil
}

// Query requests the top k ranked documents for q.
func (c *Client) Query(ctx context.Context, q string, k int) (*types.QueryResponse, error) {
	params := url.Values{
		"q": {q},
		"k": {strconv.Itoa(k)},
	}
	var out types.QueryResponse
	if err := c.get(ctx, "/query", params, &out); err != nil {
		return nil, fmt.Errorf("answer service /query: %w", err)
	}
	return &out, nil
}

// Health reports whether GET /health answers 200.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]any
	return c.get(ctx, "/health", nil, &out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.base + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return httputil.GetJSON(ctx, c.HTTP, reqURL, c.cfg.UserAgent, c.cfg.Timeout, out)
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package upstream fetches raw playlist items from the upstream content
// index, paginating until a minimum item count or a hard page cap is reached.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/feed"
)

const (
	// DefaultPageSize matches the upstream index page size.
	DefaultPageSize = 100
	// DefaultMaxPages bounds total latency and upstream load per language.
	DefaultMaxPages = 10
	// DefaultTimeout bounds one page request so a slow language cannot
	// stall the whole cycle.
	DefaultTimeout = 15 * time.Second
)

// Client talks to the playlist index HTTP API.
type Client struct {
	base     string
	pageSize int
	maxPages int
	http     *http.Client
	logger   zerolog.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithPageSize overrides the upstream page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages overrides the pagination cap.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client (used to carry
// otelhttp instrumentation when tracing is enabled).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New creates a playlist index client against base.
func New(base string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		base:     base,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   logger.With().Str("component", "upstream").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchItems accumulates raw items for lang until minCount items are
// collected or the page cap is hit. A page failure terminates pagination and
// returns whatever was accumulated; partial results are acceptable, total
// failure is an empty slice, never an error.
func (c *Client) FetchItems(ctx context.Context, lang string, minCount int) []feed.RawItem {
	acc := make([]feed.RawItem, 0, minCount)
	offset := 0

	for page := 0; page < c.maxPages; page++ {
		items, err := c.fetchPage(ctx, lang, offset)
		if err != nil {
			c.logger.Warn().Err(err).Str("lang", lang).Int("offset", offset).
				Msg("playlist page fetch failed, keeping partial results")
			break
		}
		if len(items) == 0 {
			break
		}
		acc = append(acc, items...)
		if len(acc) >= minCount {
			break
		}
		offset += len(items)
	}

	return acc
}

func (c *Client) fetchPage(ctx context.Context, lang string, offset int) ([]feed.RawItem, error) {
	pageURL := fmt.Sprintf("%s/playlists/%s?limit=%d&offset=%d", c.base, url.PathEscape(lang), c.pageSize, offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	items, ok := decodeItems(body)
	if !ok {
		// Unexpected shape is a warning and an empty page, never fatal.
		c.logger.Warn().Str("lang", lang).Int("offset", offset).
			Strs("keys", topLevelKeys(body)).
			Msg("unexpected upstream response shape, treating page as empty")
		return nil, nil
	}
	return items, nil
}

// decodeItems accepts both known upstream shapes: a bare array of items, or
// an object with an items array. Anything else is rejected.
func decodeItems(body []byte) ([]feed.RawItem, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false
	}

	if trimmed[0] == '[' {
		var items []feed.RawItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false
		}
		return items, true
	}

	var wrapper struct {
		Items []feed.RawItem `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil || wrapper.Items == nil {
		return nil, false
	}
	return wrapper.Items, true
}

// topLevelKeys reports the observed object keys for shape diagnostics.
func topLevelKeys(body []byte) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}

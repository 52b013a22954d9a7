/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package peertube looks up video metadata on the hosting instance named in
// a record's peertube:// URL.
package peertube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one metadata lookup.
const DefaultTimeout = 10 * time.Second

// ErrNoViewCount reports that the response carried no numeric view count at
// any known location.
var ErrNoViewCount = errors.New("no view count in response")

// Client fetches per-video details from arbitrary PeerTube hosts.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
	// scheme is overridable for tests against httptest servers.
	scheme string
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithScheme overrides the https scheme used for host lookups.
func WithScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.scheme = scheme
		}
	}
}

// New creates a PeerTube metadata client.
func New(logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logger.With().Str("component", "peertube").Logger(),
		scheme: "https",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// videoDetails carries the candidate view-count locations. PeerTube v4+
// moved views under stats.
type videoDetails struct {
	Views *float64 `json:"views"`
	Stats *struct {
		Viewers *float64 `json:"viewers"`
		Views   *float64 `json:"views"`
	} `json:"stats"`
}

// Views fetches the view count for one video. The first numeric value among
// views, stats.viewers and stats.views wins.
func (c *Client) Views(ctx context.Context, host, videoID string) (int64, error) {
	url := fmt.Sprintf("%s://%s/api/v1/videos/%s", c.scheme, host, videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch video details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("host %s returned status %d", host, resp.StatusCode)
	}

	var details videoDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return 0, fmt.Errorf("decode video details: %w", err)
	}

	if details.Views != nil {
		return int64(*details.Views), nil
	}
	if details.Stats != nil {
		if details.Stats.Viewers != nil {
			return int64(*details.Stats.Viewers), nil
		}
		if details.Stats.Views != nil {
			return int64(*details.Stats.Views), nil
		}
	}
	return 0, ErrNoViewCount
}

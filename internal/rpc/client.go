/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rpc is the client for the social-network RPC capability. The
// upstream proxy varies its accepted parameter shapes and response envelopes
// across versions, so calls go through ordered attempt sequences and all
// response decoding is tolerant of both enveloped and bare payloads.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one RPC round-trip.
const DefaultTimeout = 10 * time.Second

// Client issues JSON-RPC calls against one proxy endpoint. Constructed once
// at process start and shared; it has no per-call state.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
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

// New creates an RPC client for endpoint.
func New(endpoint string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   logger.With().Str("component", "rpc").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
	ID     int    `json:"id"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call posts one RPC request and returns the raw result. Responses wrapped
// in a {result} envelope are unwrapped; proxies that answer with the bare
// result pass through unchanged.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: status %d", method, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", method, err)
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, envelope.Error)
		}
		if envelope.Result != nil {
			// A present but null result is the proxy's "no data" answer,
			// not a payload. Returning the envelope body here would make
			// decoders mistake {"result":null} for a found object.
			if bytes.Equal(bytes.TrimSpace(envelope.Result), []byte("null")) {
				return nil, nil
			}
			return envelope.Result, nil
		}
	}
	return json.RawMessage(body), nil
}

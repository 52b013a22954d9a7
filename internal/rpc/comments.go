/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rpc

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// RawComment is one comment as the proxy returns it, shape unknown.
type RawComment map[string]any

// CommentsResult is the normalized getcomments outcome.
type CommentsResult struct {
	Comments []RawComment
	// Count is the upstream total when reported, otherwise len(Comments).
	Count int
	// CountReported is true when the proxy included a commentscount field.
	CountReported bool
}

// commentAttempts is the ordered parameter-shape sequence for getcomments:
// object shape first, then the postid variant, then positional params.
var commentAttempts = []func(hash string, limit, offset int) any{
	func(h string, l, o int) any { return map[string]any{"hash": h, "limit": l, "offset": o} },
	func(h string, l, o int) any { return map[string]any{"postid": h, "parentid": "", "answerid": ""} },
	func(h string, l, o int) any { return []any{h, "", ""} },
}

// GetComments fetches comments for a post hash through the attempt
// sequence, accepting array, {comments} and {data:{comments}} response
// shapes.
func (c *Client) GetComments(ctx context.Context, hash string, limit, offset int) (*CommentsResult, error) {
	var lastErr error
	for _, attempt := range commentAttempts {
		raw, err := c.Call(ctx, "getcomments", attempt(hash, limit, offset))
		if err != nil {
			lastErr = err
			continue
		}
		if result := decodeComments(raw); result != nil {
			return result, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	// Every shape was accepted but none matched; an empty result is still
	// a valid answer for a post with no comments.
	return &CommentsResult{Comments: []RawComment{}}, nil
}

func decodeComments(raw json.RawMessage) *CommentsResult {
	var list []RawComment
	if err := json.Unmarshal(raw, &list); err == nil {
		return &CommentsResult{Comments: list, Count: len(list)}
	}

	var wrapper struct {
		Comments      []RawComment `json:"comments"`
		CommentsCount *float64     `json:"commentscount"`
		Count         *float64     `json:"count"`
		Data          *struct {
			Comments []RawComment `json:"comments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}

	comments := wrapper.Comments
	if comments == nil && wrapper.Data != nil {
		comments = wrapper.Data.Comments
	}
	if comments == nil {
		return nil
	}

	result := &CommentsResult{Comments: comments, Count: len(comments)}
	if wrapper.CommentsCount != nil {
		result.Count = int(*wrapper.CommentsCount)
		result.CountReported = true
	} else if wrapper.Count != nil {
		result.Count = int(*wrapper.Count)
		result.CountReported = true
	}
	return result
}

// ID returns the comment id, falling back to its hash.
func (rc RawComment) ID() string {
	for _, key := range []string{"id", "hash"} {
		if s, ok := rc[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Address returns the commenter address when present.
func (rc RawComment) Address() string {
	for _, key := range []string{"address", "useraddress", "user"} {
		if s, ok := rc[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// UserLabel builds the anonymized commenter label shown to clients:
// a truncated address like "PAbcde…wxyz", or "Anonymous".
func (rc RawComment) UserLabel() string {
	addr := rc.Address()
	if len(addr) > 10 {
		return addr[:6] + "…" + addr[len(addr)-4:]
	}
	if addr != "" {
		return addr
	}
	return "Anonymous"
}

// Text extracts the comment text, handling both plain-string and
// JSON-encoded message payloads.
func (rc RawComment) Text() string {
	switch msg := rc["msg"].(type) {
	case string:
		s := strings.TrimSpace(msg)
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			var inner struct {
				Message string `json:"message"`
				Msg     string `json:"msg"`
			}
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				if inner.Message != "" {
					return inner.Message
				}
				return inner.Msg
			}
		}
		return s
	case map[string]any:
		for _, key := range []string{"message", "msg"} {
			if s, ok := msg[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if s, ok := rc["message"].(string); ok {
		return s
	}
	return ""
}

// Time returns the comment timestamp as ISO-8601, or "".
func (rc RawComment) Time() string {
	switch t := rc["time"].(type) {
	case float64:
		if t > 0 {
			return time.Unix(int64(t), 0).UTC().Format(time.RFC3339)
		}
	case string:
		if t == "" {
			return ""
		}
		// Some proxy versions deliver unix seconds as a string.
		if secs, err := strconv.ParseInt(t, 10, 64); err == nil {
			if secs > 0 {
				return time.Unix(secs, 0).UTC().Format(time.RFC3339)
			}
			return ""
		}
		var ts time.Time
		if err := ts.UnmarshalText([]byte(t)); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/friendsincode/bshorts_feed/internal/feed"
)

// ErrProfileNotFound reports that every attempt shape returned no profile.
var ErrProfileNotFound = errors.New("profile not found")

// Profile wraps one raw getuserprofile result. Field names vary across proxy
// versions, so accessors probe an ordered candidate list instead of relying
// on a fixed schema.
type Profile struct {
	raw map[string]any
}

// NewProfile wraps an already-decoded profile object.
func NewProfile(fields map[string]any) *Profile {
	return &Profile{raw: fields}
}

// profileAttempts is the ordered parameter-shape sequence for
// getuserprofile. The first attempt returning a non-empty profile wins.
var profileAttempts = []func(address string) any{
	func(a string) any { return map[string]any{"address": a, "shortForm": "basic"} },
	func(a string) any { return map[string]any{"address": a, "shortForm": "yes"} },
	func(a string) any { return map[string]any{"address": a} },
	func(a string) any { return map[string]any{"addresses": []string{a}} },
}

// GetUserProfile resolves one address through the attempt sequence.
// Per-attempt failures are swallowed; only total failure surfaces, as
// ErrProfileNotFound when every shape was accepted but empty.
func (c *Client) GetUserProfile(ctx context.Context, address string) (*Profile, error) {
	var lastErr error
	for _, attempt := range profileAttempts {
		result, err := c.Call(ctx, "getuserprofile", attempt(address))
		if err != nil {
			lastErr = err
			continue
		}
		if p := decodeProfile(result); p != nil {
			return p, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrProfileNotFound
}

// decodeProfile accepts either a bare profile object or an array whose first
// element is the profile.
func decodeProfile(raw json.RawMessage) *Profile {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 || list[0] == nil {
			return nil
		}
		return &Profile{raw: list[0]}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
		return nil
	}
	return &Profile{raw: obj}
}

// nameCandidates is the resolution order for a display name.
var nameCandidates = []string{"name", "nickname", "nick", "displayName", "display_name", "profileName", "username"}

// DisplayName returns the first non-empty name candidate, or "".
func (p *Profile) DisplayName() string {
	for _, key := range nameCandidates {
		if s, ok := p.raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// avatarCandidates is the field-probe order for avatar extraction.
var avatarCandidates = []string{"avatar", "i", "image", "icon", "photo", "picture"}

// AvatarURL extracts an avatar URL. Candidates may be plain strings or
// nested objects exposing url/src/original/large/small; relative paths get
// the host origin prefixed.
func (p *Profile) AvatarURL() string {
	for _, key := range avatarCandidates {
		if url := avatarFrom(p.raw[key]); url != "" {
			return url
		}
	}
	if nested, ok := p.raw["profile"].(map[string]any); ok {
		for _, key := range []string{"avatar", "image"} {
			if url := avatarFrom(nested[key]); url != "" {
				return url
			}
		}
	}
	return ""
}

func avatarFrom(v any) string {
	switch c := v.(type) {
	case string:
		return feed.NormalizeAvatarURL(c)
	case map[string]any:
		for _, key := range []string{"url", "src", "original", "large", "small"} {
			if s, ok := c[key].(string); ok && s != "" {
				return feed.NormalizeAvatarURL(s)
			}
		}
	}
	return ""
}

// Reputation returns the profile reputation when present.
func (p *Profile) Reputation() (float64, bool) {
	for _, key := range []string{"reputation", "rep"} {
		if n, ok := p.raw[key].(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// Address returns the profile's address when the proxy includes one.
func (p *Profile) Address() string {
	for _, key := range []string{"address", "id", "hash"} {
		if s, ok := p.raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

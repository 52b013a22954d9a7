/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package enrich fills gaps in normalized video records from secondary
// sources: author profiles and comment threads from the blockchain RPC
// API, and view counts from PeerTube instances. Each enricher only adds
// data, never overwrites values the upstream feed already supplied.
package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/cache"
	"github.com/friendsincode/bshorts_feed/internal/feed"
	"github.com/friendsincode/bshorts_feed/internal/rpc"
	"github.com/friendsincode/bshorts_feed/internal/telemetry"
)

// ProfileSource resolves author profiles. Implemented by rpc.Client.
type ProfileSource interface {
	GetUserProfile(ctx context.Context, address string) (*rpc.Profile, error)
}

// ProfileEnricher resolves uploader display names, avatars and reputation
// for records that only carry a raw address.
type ProfileEnricher struct {
	source ProfileSource
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewProfileEnricher creates a profile enricher. cache may be nil.
func NewProfileEnricher(source ProfileSource, profileCache *cache.Cache, logger zerolog.Logger) *ProfileEnricher {
	return &ProfileEnricher{
		source: source,
		cache:  profileCache,
		logger: logger.With().Str("component", "enrich.profiles").Logger(),
	}
}

// needsName reports whether a record's uploader field should be replaced
// by a resolved profile name. Addresses echoed back as names count as
// missing.
func needsName(v *feed.Video) bool {
	return v.Uploader == "" || v.Uploader == v.UploaderAddress || v.Uploader == feed.UnknownUploader
}

// Enrich resolves profiles for every distinct uploader address and merges
// them into the records in place. Lookup failures leave the affected
// records untouched.
func (e *ProfileEnricher) Enrich(ctx context.Context, videos []feed.Video) {
	// Collect distinct addresses so each profile is fetched once per cycle.
	addresses := make([]string, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for i := range videos {
		addr := videos[i].UploaderAddress
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	profiles := make(map[string]*cache.CachedProfile, len(addresses))
	for _, addr := range addresses {
		profile := e.resolve(ctx, addr)
		if profile != nil {
			profiles[addr] = profile
		}
	}

	for i := range videos {
		v := &videos[i]
		profile, ok := profiles[v.UploaderAddress]
		if !ok {
			continue
		}
		if needsName(v) && profile.Name != "" {
			v.Uploader = profile.Name
		}
		if v.UploaderAvatar == "" && profile.Avatar != "" {
			v.UploaderAvatar = profile.Avatar
		}
		if v.UploaderReputation == nil && profile.Reputation != nil {
			rep := *profile.Reputation
			v.UploaderReputation = &rep
		}
	}
}

func (e *ProfileEnricher) resolve(ctx context.Context, address string) *cache.CachedProfile {
	if e.cache != nil {
		if cached, ok := e.cache.GetProfile(ctx, address); ok {
			return cached
		}
	}

	profile, err := e.source.GetUserProfile(ctx, address)
	if err != nil {
		telemetry.EnrichmentFailuresTotal.WithLabelValues("profile").Inc()
		e.logger.Debug().Err(err).Str("address", address).Msg("profile lookup failed")
		return nil
	}

	resolved := &cache.CachedProfile{
		Address: address,
		Name:    profile.DisplayName(),
		Avatar:  profile.AvatarURL(),
	}
	if rep, ok := profile.Reputation(); ok {
		resolved.Reputation = &rep
	}

	if e.cache != nil {
		if err := e.cache.SetProfile(ctx, resolved); err != nil {
			e.logger.Debug().Err(err).Str("address", address).Msg("failed to cache profile")
		}
	}
	return resolved
}

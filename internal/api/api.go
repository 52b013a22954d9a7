/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP handlers: snapshot reads for clients,
// profile and comment proxies, and the JWT-guarded admin surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/auth"
	"github.com/friendsincode/bshorts_feed/internal/events"
	"github.com/friendsincode/bshorts_feed/internal/feed"
	"github.com/friendsincode/bshorts_feed/internal/history"
	"github.com/friendsincode/bshorts_feed/internal/rpc"
)

// FallbackLang is served when a requested language has no snapshot.
const FallbackLang = "en"

// SnapshotReader loads published snapshots. Implemented by
// publish.Publisher.
type SnapshotReader interface {
	Load(lang string) ([]feed.Video, error)
}

// Refresher triggers an out-of-band generation cycle. Implemented by
// scheduler.Scheduler.
type Refresher interface {
	TriggerAsync(ctx context.Context) bool
}

// ProfileSource resolves author profiles for the proxy endpoint.
type ProfileSource interface {
	GetUserProfile(ctx context.Context, address string) (*rpc.Profile, error)
}

// CommentSource fetches comment threads for the proxy endpoint.
type CommentSource interface {
	GetComments(ctx context.Context, hash string, limit, offset int) (*rpc.CommentsResult, error)
}

// API exposes HTTP handlers.
type API struct {
	snapshots SnapshotReader
	profiles  ProfileSource
	comments  CommentSource
	refresher Refresher
	runs      *history.Store
	bus       *events.Bus
	languages []string
	jwtSecret []byte
	logger    zerolog.Logger
}

// New constructs the API. runs, bus and refresher may be nil; their
// endpoints then answer 503.
func New(
	snapshots SnapshotReader,
	profiles ProfileSource,
	comments CommentSource,
	refresher Refresher,
	runs *history.Store,
	bus *events.Bus,
	languages []string,
	jwtSecret []byte,
	logger zerolog.Logger,
) *API {
	return &API{
		snapshots: snapshots,
		profiles:  profiles,
		comments:  comments,
		refresher: refresher,
		runs:      runs,
		bus:       bus,
		languages: languages,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all handlers on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/api/videos/bshorts", a.handleVideos)
	r.Get("/api/videos/profile", a.handleProfile)
	r.Get("/api/videos/comments", a.handleComments)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.Middleware(a.jwtSecret))
		r.Post("/refresh", a.handleRefresh)
		r.Get("/runs", a.handleRuns)
	})
}

// handleVideos serves the current snapshot for a language, falling back
// to English when the requested language has no published snapshot yet.
func (a *API) handleVideos(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = FallbackLang
	}

	videos, err := a.snapshots.Load(lang)
	if err != nil {
		a.logger.Error().Err(err).Str("lang", lang).Msg("snapshot read failed")
		writeError(w, http.StatusInternalServerError, "snapshot unavailable")
		return
	}
	served := lang
	if len(videos) == 0 && lang != FallbackLang {
		if fallback, err := a.snapshots.Load(FallbackLang); err == nil && len(fallback) > 0 {
			videos = fallback
			served = FallbackLang
		}
	}

	videos = paginate(videos, r)

	// Snapshots store the canonical peertube:// form; clients get a URL
	// they can actually play.
	for i := range videos {
		videos[i].URL = feed.DirectVideoURL(videos[i].URL)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Playlist-Lang", served)
	if err := json.NewEncoder(w).Encode(videos); err != nil {
		a.logger.Debug().Err(err).Msg("response write failed")
	}
}

func paginate(videos []feed.Video, r *http.Request) []feed.Video {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	if offset > 0 {
		if offset >= len(videos) {
			return []feed.Video{}
		}
		videos = videos[offset:]
	}
	if limit > 0 && limit < len(videos) {
		videos = videos[:limit]
	}
	return videos
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// profileResponse is the resolved profile shape served to clients.
type profileResponse struct {
	Address    string   `json:"address"`
	Name       string   `json:"name"`
	Avatar     string   `json:"avatar,omitempty"`
	Reputation *float64 `json:"reputation,omitempty"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if batch := r.URL.Query().Get("addresses"); batch != "" {
		addresses := splitAddresses(batch)
		if len(addresses) == 0 {
			writeError(w, http.StatusBadRequest, "addresses is empty")
			return
		}
		resp := make([]profileResponse, 0, len(addresses))
		for _, addr := range addresses {
			profile, err := a.profiles.GetUserProfile(r.Context(), addr)
			if err != nil {
				// Batch lookups tolerate individual misses.
				if !errors.Is(err, rpc.ErrProfileNotFound) {
					a.logger.Warn().Err(err).Str("address", addr).Msg("profile proxy failed")
				}
				continue
			}
			resp = append(resp, newProfileResponse(addr, profile))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	profile, err := a.profiles.GetUserProfile(r.Context(), address)
	if err != nil {
		if errors.Is(err, rpc.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		a.logger.Warn().Err(err).Str("address", address).Msg("profile proxy failed")
		writeError(w, http.StatusBadGateway, "profile lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(address, profile))
}

func newProfileResponse(address string, profile *rpc.Profile) profileResponse {
	resp := profileResponse{
		Address: address,
		Name:    profile.DisplayName(),
		Avatar:  profile.AvatarURL(),
	}
	if rep, ok := profile.Reputation(); ok {
		resp.Reputation = &rep
	}
	return resp
}

func splitAddresses(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// commentsResponse is the comment-thread shape served to clients.
type commentsResponse struct {
	Comments []feed.Comment `json:"comments"`
	Count    int            `json:"count"`
}

func (a *API) handleComments(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		writeError(w, http.StatusBadRequest, "hash is required")
		return
	}
	limit := queryInt(r, "limit", 20)

	result, err := a.comments.GetComments(r.Context(), hash, limit, queryInt(r, "offset", 0))
	if err != nil {
		a.logger.Warn().Err(err).Str("hash", hash).Msg("comments proxy failed")
		writeError(w, http.StatusBadGateway, "comment lookup failed")
		return
	}

	resp := commentsResponse{Comments: make([]feed.Comment, 0, len(result.Comments)), Count: result.Count}
	for _, raw := range result.Comments {
		text := raw.Text()
		if text == "" {
			continue
		}
		resp.Comments = append(resp.Comments, feed.Comment{
			ID:        raw.ID(),
			User:      raw.UserLabel(),
			Text:      text,
			Timestamp: raw.Time(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if a.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	started := a.refresher.TriggerAsync(context.WithoutCancel(r.Context()))
	if a.bus != nil {
		claims, _ := auth.ClaimsFromContext(r.Context())
		payload := events.Payload{"started": started}
		if claims != nil {
			payload["user"] = claims.UserID
		}
		a.bus.Publish(events.EventRefreshRequested, payload)
	}

	status := http.StatusAccepted
	if !started {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]bool{"started": started})
}

func (a *API) handleRuns(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	limit := queryInt(r, "limit", 50)
	lang := r.URL.Query().Get("lang")

	var (
		runs []history.GenerationRun
		err  error
	)
	if lang != "" {
		runs, err = a.runs.RecentForLang(lang, limit)
	} else {
		runs, err = a.runs.Recent(limit)
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("run history query failed")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

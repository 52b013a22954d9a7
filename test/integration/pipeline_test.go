/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package integration exercises the full generation pipeline against fake
// upstream services: playlist index, RPC proxy and video host.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/api"
	"github.com/friendsincode/bshorts_feed/internal/config"
	"github.com/friendsincode/bshorts_feed/internal/enrich"
	"github.com/friendsincode/bshorts_feed/internal/events"
	"github.com/friendsincode/bshorts_feed/internal/feed"
	"github.com/friendsincode/bshorts_feed/internal/generator"
	"github.com/friendsincode/bshorts_feed/internal/peertube"
	"github.com/friendsincode/bshorts_feed/internal/publish"
	"github.com/friendsincode/bshorts_feed/internal/rpc"
	"github.com/friendsincode/bshorts_feed/internal/scheduler"
)

// fakeUpstream serves playlist pages for "en" and nothing for "ru".
func fakeUpstream(t *testing.T, videoHost string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/playlists/") {
			http.NotFound(w, r)
			return
		}
		lang := strings.TrimPrefix(r.URL.Path, "/playlists/")
		offset, _ := url.ParseQuery(r.URL.RawQuery)

		w.Header().Set("Content-Type", "application/json")
		if lang != "en" || offset.Get("offset") != "0" {
			fmt.Fprint(w, "[]")
			return
		}

		items := []map[string]any{
			{
				"video_hash":     "hash-1",
				"video_url":      "peertube://" + videoHost + "/uuid-1",
				"author_address": "PAuthorAddressOne123",
				"caption":        "first video",
				"hashtags":       `["music","live"]`,
				"timestamp":      1756600000,
				"ratings":        map[string]any{"score": "9", "ratingsCount": 2},
				"comments_count": 3,
				"language":       "en",
			},
			{
				// Duplicate of hash-1, must be dropped.
				"video_hash":     "hash-1",
				"video_url":      "peertube://" + videoHost + "/uuid-1",
				"author_address": "PAuthorAddressOne123",
			},
			{
				"video_hash":     "hash-2",
				"video_url":      "https://example.org/plain.mp4",
				"author_address": "PAuthorAddressTwo456",
				"author_name":    "Upstream Name",
				"hashtags":       "#news #daily",
				"timestamp":      1756600100,
			},
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))
}

// fakeRPC answers getuserprofile and getcomments.
func fakeRPC(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "getuserprofile":
			var params struct {
				Address string `json:"address"`
			}
			_ = json.Unmarshal(req.Params, &params)
			if params.Address == "" {
				fmt.Fprint(w, `{"result":[]}`)
				return
			}
			fmt.Fprintf(w, `{"result":[{"address":%q,"name":"Resolved Name","avatar":"/content/avatar.png","reputation":12}]}`, params.Address)
		case "getcomments":
			fmt.Fprint(w, `{"result":{"comments":[{"id":"c1","address":"PCommenterAddr9999","msg":"great video","time":1756600200}],"commentscount":3}}`)
		default:
			fmt.Fprint(w, `{"error":{"message":"unknown method"}}`)
		}
	}))
}

// fakeVideoHost serves view counts.
func fakeVideoHost(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/videos/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"views":4321}`)
	}))
}

func buildService(t *testing.T, outputDir string) (*generator.Service, *publish.Publisher, *rpc.Client) {
	t.Helper()
	logger := zerolog.Nop()

	videoHostServer := fakeVideoHost(t)
	t.Cleanup(videoHostServer.Close)
	videoHost := strings.TrimPrefix(videoHostServer.URL, "http://")

	upstreamServer := fakeUpstream(t, videoHost)
	t.Cleanup(upstreamServer.Close)

	rpcServer := fakeRPC(t)
	t.Cleanup(rpcServer.Close)

	cfg := &config.Config{
		Languages:        []string{"en", "ru"},
		MinItems:         2,
		PlaylistsAPIBase: upstreamServer.URL,
		RPCEndpoint:      rpcServer.URL,
		OutputDir:        outputDir,
	}

	rpcClient := rpc.New(cfg.RPCEndpoint, logger)
	profiles := enrich.NewProfileEnricher(rpcClient, nil, logger)
	comments := enrich.NewCommentEnricher(rpcClient, logger)
	views := enrich.NewViewEnricher(peertube.New(logger, peertube.WithScheme("http")), logger)
	publisher := publish.New(outputDir, logger)

	svc := generator.New(cfg, &config.Sources{}, profiles, comments, views, publisher, nil, events.NewBus(), logger)
	return svc, publisher, rpcClient
}

func TestFullCycle(t *testing.T) {
	outputDir := t.TempDir()
	svc, publisher, _ := buildService(t, outputDir)

	svc.GenerateAll(context.Background())

	videos, err := publisher.Load("en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("records = %d, want 2 (deduplicated)", len(videos))
	}

	first := videos[0]
	if first.Hash != "hash-1" {
		t.Errorf("first hash = %q", first.Hash)
	}
	if first.Uploader != "Resolved Name" {
		t.Errorf("uploader = %q, want profile-resolved name", first.Uploader)
	}
	if first.UploaderAvatar != "https://bastyon.com/content/avatar.png" {
		t.Errorf("avatar = %q", first.UploaderAvatar)
	}
	if first.AverageRating != 4.5 {
		t.Errorf("averageRating = %v, want 4.5", first.AverageRating)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "music" {
		t.Errorf("tags = %v", first.Tags)
	}
	if first.Views == nil || *first.Views != 4321 {
		t.Errorf("views = %v, want 4321", first.Views)
	}
	if first.Comments != 3 {
		t.Errorf("comments = %d, want reported count 3", first.Comments)
	}
	if len(first.CommentData) != 1 || first.CommentData[0].Text != "great video" {
		t.Errorf("commentData = %+v", first.CommentData)
	}
	if first.CommentData[0].User != "PComme…9999" {
		t.Errorf("comment user label = %q", first.CommentData[0].User)
	}

	second := videos[1]
	if second.Uploader != "Upstream Name" {
		t.Errorf("upstream-provided name overwritten: %q", second.Uploader)
	}
	if second.Views != nil {
		t.Errorf("non-peertube record gained views: %v", *second.Views)
	}

	// ru had no items: no snapshot file may exist.
	if _, err := os.Stat(filepath.Join(outputDir, "ru", "latest.json")); !os.IsNotExist(err) {
		t.Error("empty ru snapshot was published")
	}
}

func TestServedRoutesAfterCycle(t *testing.T) {
	outputDir := t.TempDir()
	svc, publisher, rpcClient := buildService(t, outputDir)
	svc.GenerateAll(context.Background())

	sched := scheduler.New(svc.GenerateAll, 0, zerolog.Nop())
	handlers := api.New(publisher, rpcClient, rpcClient, sched, nil, nil,
		[]string{"en", "ru"}, nil, zerolog.Nop())

	router := chi.NewRouter()
	handlers.Routes(router)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/videos/bshorts?lang=ru")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Playlist-Lang"); got != "en" {
		t.Errorf("lang fallback header = %q, want en", got)
	}
	var videos []feed.Video
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 {
		t.Errorf("records = %d, want fallback english snapshot", len(videos))
	}
}

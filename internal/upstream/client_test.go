/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/feed"
)

func pageOf(prefix string, n int) []feed.RawItem {
	items := make([]feed.RawItem, n)
	for i := range items {
		items[i] = feed.RawItem{VideoHash: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return items
}

func TestFetchItemsBareArrayShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pageOf("a", 5))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	items := c.FetchItems(context.Background(), "en", 5)
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
}

func TestFetchItemsWrappedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"items": pageOf("a", 3)})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	items := c.FetchItems(context.Background(), "en", 3)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
}

func TestFetchItemsUnexpectedShapeIsEmptyNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "wat"})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	items := c.FetchItems(context.Background(), "en", 10)
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestFetchItemsPaginatesUntilMinCount(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		_ = json.NewEncoder(w).Encode(pageOf(fmt.Sprintf("p%d", offset), 50))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop(), WithPageSize(50))
	items := c.FetchItems(context.Background(), "en", 100)
	if len(items) != 100 {
		t.Fatalf("got %d items, want 100", len(items))
	}
	if requests != 2 {
		t.Fatalf("made %d requests, want 2", requests)
	}
}

func TestFetchItemsKeepsPartialResultsOnPageFailure(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(pageOf("a", 50))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop(), WithPageSize(50))
	items := c.FetchItems(context.Background(), "en", 200)
	if len(items) != 50 {
		t.Fatalf("got %d items, want the 50 from page one", len(items))
	}
}

func TestFetchItemsFirstPageFailureYieldsZeroItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	if items := c.FetchItems(context.Background(), "en", 100); len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestFetchItemsRespectsPageCap(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(pageOf(strconv.Itoa(requests), 10))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop(), WithPageSize(10), WithMaxPages(3))
	items := c.FetchItems(context.Background(), "en", 1000)
	if requests != 3 {
		t.Fatalf("made %d requests, want 3 (page cap)", requests)
	}
	if len(items) != 30 {
		t.Fatalf("got %d items, want 30", len(items))
	}
}

func TestFetchItemsStopsOnEmptyPage(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			_ = json.NewEncoder(w).Encode([]feed.RawItem{})
			return
		}
		_ = json.NewEncoder(w).Encode(pageOf("a", 10))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop(), WithPageSize(10))
	items := c.FetchItems(context.Background(), "en", 100)
	if len(items) != 10 {
		t.Fatalf("got %d items, want 10", len(items))
	}
	if requests != 2 {
		t.Fatalf("made %d requests, want 2", requests)
	}
}

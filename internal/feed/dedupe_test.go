/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"reflect"
	"testing"
	"time"
)

func TestDedupePreservesFirstOccurrenceOrder(t *testing.T) {
	items := []RawItem{
		{VideoHash: "a"},
		{VideoHash: "b"},
		{VideoHash: "a"},
		{VideoHash: "c"},
		{VideoHash: "b"},
	}

	got := Dedupe(items, RawItemKey)

	var keys []string
	for _, it := range got {
		keys = append(keys, it.VideoHash)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Fatalf("dedupe order = %v, want [a b c]", keys)
	}
}

func TestDedupeDropsEmptyKeys(t *testing.T) {
	items := []RawItem{{VideoHash: ""}, {VideoHash: "a"}, {VideoHash: ""}}
	got := Dedupe(items, RawItemKey)
	if len(got) != 1 || got[0].VideoHash != "a" {
		t.Fatalf("expected only the keyed item to survive, got %v", got)
	}
}

func TestVideoKeyFallbackChain(t *testing.T) {
	tests := []struct {
		name  string
		video Video
		want  string
	}{
		{name: "hash first", video: Video{Hash: "h", ID: "i", TxID: "t"}, want: "h"},
		{name: "id fallback", video: Video{ID: "i", TxID: "t"}, want: "i"},
		{name: "txid last", video: Video{TxID: "t"}, want: "t"},
		{name: "all empty", video: Video{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VideoKey(tt.video); got != tt.want {
				t.Errorf("VideoKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeAndDedupeEndToEnd(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []RawItem{
		{VideoHash: "one", VideoURL: "peertube://h/1"},
		{VideoHash: "two", VideoURL: "peertube://h/2"},
		{VideoHash: "one", VideoURL: "peertube://h/1"},
	}

	items = Dedupe(items, RawItemKey)
	videos := make([]Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, Normalize(item, now))
	}
	videos = Dedupe(videos, VideoKey)

	if len(videos) != 2 {
		t.Fatalf("expected 2 canonical records from 3 raw items, got %d", len(videos))
	}
}

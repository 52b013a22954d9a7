/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/feed"
)

func testPublisher(t *testing.T) *Publisher {
	t.Helper()
	p := New(t.TempDir(), zerolog.Nop())
	p.now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 5, 0, 0, time.UTC)
	}
	return p
}

func TestPublishWritesLatestAndTimestamped(t *testing.T) {
	p := testPublisher(t)

	videos := []feed.Video{{ID: "v1", Hash: "v1", Uploader: "Alice"}}
	if err := p.Publish("en", videos); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	loaded, err := p.Load("en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "v1" {
		t.Errorf("loaded = %+v", loaded)
	}

	stamped := filepath.Join(p.Dir("en"), "playlist-202608311405.json")
	if _, err := os.Stat(stamped); err != nil {
		t.Errorf("timestamped snapshot missing: %v", err)
	}
}

func TestPublishSkipsEmptySnapshot(t *testing.T) {
	p := testPublisher(t)

	if err := p.Publish("en", []feed.Video{{ID: "v1", Hash: "v1"}}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	before, err := os.ReadFile(p.LatestPath("en"))
	if err != nil {
		t.Fatalf("read latest: %v", err)
	}

	if err := p.Publish("en", nil); err != nil {
		t.Fatalf("Publish empty: %v", err)
	}

	after, err := os.ReadFile(p.LatestPath("en"))
	if err != nil {
		t.Fatalf("latest removed by empty publish: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("latest.json changed on empty publish")
	}
}

func TestPublishEmptyCleansUpEmptyFiles(t *testing.T) {
	p := testPublisher(t)
	dir := p.Dir("en")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(dir, "playlist-202601010000.json")
	if err := os.WriteFile(empty, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := filepath.Join(dir, "playlist-202601020000.json")
	if err := os.WriteFile(good, []byte(`[{"id":"v1"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := p.Publish("en", nil); err != nil {
		t.Fatalf("Publish empty: %v", err)
	}

	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Errorf("empty snapshot file not removed")
	}
	if _, err := os.Stat(good); err != nil {
		t.Errorf("non-empty snapshot removed: %v", err)
	}
}

func TestLoadMissingSnapshotReturnsEmpty(t *testing.T) {
	p := testPublisher(t)

	videos, err := p.Load("zh")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("videos = %+v, want empty", videos)
	}
}

func TestLanguagesAreIsolated(t *testing.T) {
	p := testPublisher(t)

	if err := p.Publish("en", []feed.Video{{ID: "en1", Hash: "en1"}}); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish("ru", []feed.Video{{ID: "ru1", Hash: "ru1"}}); err != nil {
		t.Fatal(err)
	}

	en, _ := p.Load("en")
	ru, _ := p.Load("ru")
	if en[0].ID != "en1" || ru[0].ID != "ru1" {
		t.Errorf("snapshots crossed languages: en=%v ru=%v", en, ru)
	}
}

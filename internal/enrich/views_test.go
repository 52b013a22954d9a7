/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/feed"
)

type fakeViewSource struct {
	mu      sync.Mutex
	views   map[string]int64
	errs    map[string]error
	lookups int
}

func (f *fakeViewSource) Views(_ context.Context, host, videoID string) (int64, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	key := host + "/" + videoID
	if err, ok := f.errs[key]; ok {
		return 0, err
	}
	if v, ok := f.views[key]; ok {
		return v, nil
	}
	return 0, errors.New("not found")
}

func TestViewEnricherSetsViews(t *testing.T) {
	source := &fakeViewSource{views: map[string]int64{
		"peertube.example.org/uuid-1": 1234,
	}}
	enricher := NewViewEnricher(source, zerolog.Nop())

	videos := []feed.Video{{URL: "peertube://peertube.example.org/uuid-1"}}
	enricher.Enrich(context.Background(), videos)

	if videos[0].Views == nil || *videos[0].Views != 1234 {
		t.Errorf("Views = %v, want 1234", videos[0].Views)
	}
}

func TestViewEnricherSkipsNonPeerTubeURLs(t *testing.T) {
	source := &fakeViewSource{}
	enricher := NewViewEnricher(source, zerolog.Nop())

	videos := []feed.Video{
		{URL: "https://example.org/video.mp4"},
		{URL: ""},
	}
	enricher.Enrich(context.Background(), videos)

	if source.lookups != 0 {
		t.Errorf("lookups = %d, want 0", source.lookups)
	}
	for i, v := range videos {
		if v.Views != nil {
			t.Errorf("videos[%d].Views = %v, want nil", i, *v.Views)
		}
	}
}

func TestViewEnricherFailuresLeaveViewsUnset(t *testing.T) {
	source := &fakeViewSource{
		views: map[string]int64{"host-a/id-a": 7},
		errs:  map[string]error{"host-b/id-b": errors.New("timeout")},
	}
	enricher := NewViewEnricher(source, zerolog.Nop())

	videos := []feed.Video{
		{URL: "peertube://host-a/id-a"},
		{URL: "peertube://host-b/id-b"},
	}
	enricher.Enrich(context.Background(), videos)

	if videos[0].Views == nil || *videos[0].Views != 7 {
		t.Errorf("videos[0].Views = %v, want 7", videos[0].Views)
	}
	if videos[1].Views != nil {
		t.Errorf("videos[1].Views = %v, want nil", *videos[1].Views)
	}
}

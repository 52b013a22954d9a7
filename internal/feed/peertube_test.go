/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import "testing"

func TestParsePeerTubeURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantID   string
		wantOK   bool
	}{
		{name: "valid", url: "peertube://tube.example/9f1c", wantHost: "tube.example", wantID: "9f1c", wantOK: true},
		{name: "https url rejected", url: "https://tube.example/9f1c", wantOK: false},
		{name: "missing id", url: "peertube://tube.example", wantOK: false},
		{name: "empty host", url: "peertube:///9f1c", wantOK: false},
		{name: "empty", url: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, id, ok := ParsePeerTubeURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (host != tt.wantHost || id != tt.wantID) {
				t.Errorf("parsed %q/%q, want %q/%q", host, id, tt.wantHost, tt.wantID)
			}
		})
	}
}

func TestDirectVideoURL(t *testing.T) {
	got := DirectVideoURL("peertube://tube.example/9f1c")
	want := "https://tube.example/download/streaming-playlists/hls/videos/9f1c-360-fragmented.mp4"
	if got != want {
		t.Errorf("DirectVideoURL = %q, want %q", got, want)
	}

	passthrough := "https://tube.example/w/9f1c"
	if got := DirectVideoURL(passthrough); got != passthrough {
		t.Errorf("non-peertube URL changed: %q", got)
	}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"fmt"
	"strings"
)

const peerTubeScheme = "peertube://"

// ParsePeerTubeURL extracts host and video id from a peertube://host/uuid
// URL. ok is false for any other scheme or a malformed path.
func ParsePeerTubeURL(url string) (host, id string, ok bool) {
	if !strings.HasPrefix(url, peerTubeScheme) {
		return "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(url, peerTubeScheme), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// DirectVideoURL converts a peertube:// URL to the direct fragmented MP4
// location on the hosting instance. Non-peertube URLs pass through.
func DirectVideoURL(url string) string {
	host, id, ok := ParsePeerTubeURL(url)
	if !ok {
		return url
	}
	return fmt.Sprintf("https://%s/download/streaming-playlists/hls/videos/%s-360-fragmented.mp4", host, id)
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package enrich

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/feed"
	"github.com/friendsincode/bshorts_feed/internal/telemetry"
)

// ViewSource fetches PeerTube view counts. Implemented by peertube.Client.
type ViewSource interface {
	Views(ctx context.Context, host, videoID string) (int64, error)
}

// ViewEnricher attaches PeerTube view counts to records whose video URL
// points at a PeerTube instance.
type ViewEnricher struct {
	source ViewSource
	logger zerolog.Logger
}

// NewViewEnricher creates a view-count enricher.
func NewViewEnricher(source ViewSource, logger zerolog.Logger) *ViewEnricher {
	return &ViewEnricher{
		source: source,
		logger: logger.With().Str("component", "enrich.views").Logger(),
	}
}

// Enrich fetches view counts for all PeerTube-hosted records concurrently.
// Records on other hosts, and records whose instance does not expose a
// count, are left without a views field.
func (e *ViewEnricher) Enrich(ctx context.Context, videos []feed.Video) {
	var wg sync.WaitGroup
	for i := range videos {
		host, id, ok := feed.ParsePeerTubeURL(videos[i].URL)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(v *feed.Video, host, id string) {
			defer wg.Done()
			views, err := e.source.Views(ctx, host, id)
			if err != nil {
				telemetry.EnrichmentFailuresTotal.WithLabelValues("views").Inc()
				e.logger.Debug().Err(err).Str("host", host).Str("id", id).Msg("view count lookup failed")
				return
			}
			v.Views = &views
		}(&videos[i], host, id)
	}
	wg.Wait()
}

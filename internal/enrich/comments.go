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
	"github.com/friendsincode/bshorts_feed/internal/rpc"
	"github.com/friendsincode/bshorts_feed/internal/telemetry"
)

// Comment enrichment limits. Comment threads are the most expensive
// lookup, so only the head of the list carries embedded comments.
const (
	DefaultCommentCapacity = 10
	DefaultCommentsKept    = 5
)

// CommentSource fetches comment threads. Implemented by rpc.Client.
type CommentSource interface {
	GetComments(ctx context.Context, hash string, limit, offset int) (*rpc.CommentsResult, error)
}

// CommentEnricher attaches comment previews to the leading records of a
// snapshot.
type CommentEnricher struct {
	source   CommentSource
	capacity int
	kept     int
	logger   zerolog.Logger
}

// NewCommentEnricher creates a comment enricher with default limits.
func NewCommentEnricher(source CommentSource, logger zerolog.Logger) *CommentEnricher {
	return &CommentEnricher{
		source:   source,
		capacity: DefaultCommentCapacity,
		kept:     DefaultCommentsKept,
		logger:   logger.With().Str("component", "enrich.comments").Logger(),
	}
}

// Enrich fetches comments for the first records concurrently. A failed
// thread lookup leaves that record's comment fields unchanged; other
// records are unaffected.
func (e *CommentEnricher) Enrich(ctx context.Context, videos []feed.Video) {
	limit := e.capacity
	if limit > len(videos) {
		limit = len(videos)
	}

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func(v *feed.Video) {
			defer wg.Done()
			e.enrichOne(ctx, v)
		}(&videos[i])
	}
	wg.Wait()
}

func (e *CommentEnricher) enrichOne(ctx context.Context, v *feed.Video) {
	hash := v.Hash
	if hash == "" {
		hash = v.ID
	}
	if hash == "" {
		return
	}

	result, err := e.source.GetComments(ctx, hash, e.capacity, 0)
	if err != nil {
		telemetry.EnrichmentFailuresTotal.WithLabelValues("comments").Inc()
		e.logger.Debug().Err(err).Str("hash", hash).Msg("comment lookup failed")
		return
	}

	comments := make([]feed.Comment, 0, e.kept)
	for _, raw := range result.Comments {
		if len(comments) >= e.kept {
			break
		}
		text := raw.Text()
		if text == "" {
			continue
		}
		comments = append(comments, feed.Comment{
			ID:        raw.ID(),
			User:      raw.UserLabel(),
			Text:      text,
			Timestamp: raw.Time(),
		})
	}
	if len(comments) > 0 {
		v.CommentData = comments
	}

	// An authoritative count from the thread endpoint wins over the
	// count carried inline in the feed item.
	if result.CountReported && result.Count >= 0 {
		v.Comments = result.Count
	} else if v.Comments < len(result.Comments) {
		v.Comments = len(result.Comments)
	}
}

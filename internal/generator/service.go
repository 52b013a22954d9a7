/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package generator runs the snapshot generation pipeline: fetch each
// language's feed, normalize and deduplicate it, enrich it from secondary
// sources, and publish the result.
package generator

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/config"
	"github.com/friendsincode/bshorts_feed/internal/enrich"
	"github.com/friendsincode/bshorts_feed/internal/events"
	"github.com/friendsincode/bshorts_feed/internal/feed"
	"github.com/friendsincode/bshorts_feed/internal/history"
	"github.com/friendsincode/bshorts_feed/internal/publish"
	"github.com/friendsincode/bshorts_feed/internal/telemetry"
	"github.com/friendsincode/bshorts_feed/internal/upstream"
)

// Fetcher supplies raw playlist items for one language.
type Fetcher interface {
	FetchItems(ctx context.Context, lang string, minCount int) []feed.RawItem
}

// Enricher mutates a record set in place, best-effort.
type Enricher interface {
	Enrich(ctx context.Context, videos []feed.Video)
}

// Snapshots is the publisher surface the generator needs.
type Snapshots interface {
	Publish(lang string, videos []feed.Video) error
}

// Service builds and publishes one snapshot per configured language.
type Service struct {
	languages []string
	minItems  int

	fetchers map[string]Fetcher
	profiles Enricher
	comments Enricher
	views    Enricher

	publisher Snapshots
	runs      *history.Store
	bus       *events.Bus
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs the generator service. runs and bus may be nil.
func New(
	cfg *config.Config,
	sources *config.Sources,
	profiles Enricher,
	comments Enricher,
	views Enricher,
	publisher Snapshots,
	runs *history.Store,
	bus *events.Bus,
	logger zerolog.Logger,
) *Service {
	componentLogger := logger.With().Str("component", "generator").Logger()

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = upstream.DefaultTimeout
	}
	fetchClient := telemetry.InstrumentHTTPClient(&http.Client{Timeout: timeout})

	fetchers := make(map[string]Fetcher, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		base := sources.BaseFor(lang, cfg.PlaylistsAPIBase)
		fetchers[lang] = upstream.New(base, logger, upstream.WithHTTPClient(fetchClient))
	}

	return &Service{
		languages: cfg.Languages,
		minItems:  cfg.MinItems,
		fetchers:  fetchers,
		profiles:  profiles,
		comments:  comments,
		views:     views,
		publisher: publisher,
		runs:      runs,
		bus:       bus,
		logger:    componentLogger,
		now:       time.Now,
	}
}

// SetFetcher replaces the fetcher for one language.
func (s *Service) SetFetcher(lang string, f Fetcher) {
	s.fetchers[lang] = f
}

// GenerateAll runs one full cycle over every configured language,
// sequentially. A language's failure never blocks the others.
func (s *Service) GenerateAll(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "generator", "generate_all")
	defer span.End()

	start := s.now()
	telemetry.CycleRunsTotal.Inc()

	for _, lang := range s.languages {
		s.generateLanguage(ctx, lang)
	}

	duration := s.now().Sub(start)
	telemetry.CycleDuration.Observe(duration.Seconds())
	s.logger.Info().
		Int("languages", len(s.languages)).
		Dur("duration", duration).
		Msg("generation cycle complete")

	if s.bus != nil {
		s.bus.Publish(events.EventCycleComplete, events.Payload{
			"languages":   s.languages,
			"duration_ms": duration.Milliseconds(),
		})
	}
}

// generateLanguage builds one language's snapshot. Panics inside the
// pipeline are contained here so a defect in one language's data cannot
// take down the process or the rest of the cycle.
func (s *Service) generateLanguage(ctx context.Context, lang string) {
	start := s.now()
	run := &history.GenerationRun{Lang: lang}

	defer func() {
		if r := recover(); r != nil {
			run.Error = fmt.Sprintf("panic: %v", r)
			s.logger.Error().Str("lang", lang).Interface("panic", r).Msg("language build panicked")
		}
		run.DurationMS = s.now().Sub(start).Milliseconds()
		telemetry.LanguageBuildDuration.WithLabelValues(lang).Observe(s.now().Sub(start).Seconds())
		if s.runs != nil {
			if err := s.runs.RecordRun(run); err != nil {
				s.logger.Warn().Err(err).Str("lang", lang).Msg("failed to record run history")
			}
		}
	}()

	ctx, span := telemetry.StartSpan(ctx, "generator", "generate_language")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"lang": lang})

	videos := s.buildLanguage(ctx, lang, run)

	if err := s.publisher.Publish(lang, videos); err != nil {
		run.Error = err.Error()
		telemetry.RecordError(span, err)
		s.logger.Error().Err(err).Str("lang", lang).Msg("snapshot publish failed")
		return
	}
	run.RecordsPublished = len(videos)

	if s.bus != nil {
		eventType := events.EventSnapshotPublished
		if len(videos) == 0 {
			eventType = events.EventSnapshotSkipped
		}
		s.bus.Publish(eventType, events.Payload{
			"lang":    lang,
			"records": len(videos),
		})
	}
}

// buildLanguage runs fetch, normalize, dedupe and the three enrichment
// phases for one language.
func (s *Service) buildLanguage(ctx context.Context, lang string, run *history.GenerationRun) []feed.Video {
	fetcher, ok := s.fetchers[lang]
	if !ok {
		s.logger.Warn().Str("lang", lang).Msg("no fetcher configured for language")
		return nil
	}

	items := fetcher.FetchItems(ctx, lang, s.minItems)
	run.ItemsFetched = len(items)
	telemetry.ItemsFetchedTotal.WithLabelValues(lang).Add(float64(len(items)))
	if len(items) == 0 {
		s.logger.Warn().Str("lang", lang).Msg("no items fetched")
		return nil
	}

	items = feed.Dedupe(items, feed.RawItemKey)

	now := s.now()
	videos := make([]feed.Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, feed.Normalize(item, now))
	}
	videos = feed.Dedupe(videos, feed.VideoKey)

	// The three enrichment phases mutate disjoint fields, so they run
	// concurrently over the same slice once normalization is done.
	var wg sync.WaitGroup
	for _, enricher := range []Enricher{s.profiles, s.comments, s.views} {
		if enricher == nil {
			continue
		}
		wg.Add(1)
		go func(e Enricher) {
			defer wg.Done()
			// Enrichers are best-effort; a defect in one phase must not
			// take the cycle down.
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Str("lang", lang).Interface("panic", r).Msg("enrichment phase panicked")
				}
			}()
			e.Enrich(ctx, videos)
		}(enricher)
	}
	wg.Wait()

	s.logger.Info().
		Str("lang", lang).
		Int("fetched", run.ItemsFetched).
		Int("records", len(videos)).
		Msg("language build complete")
	return videos
}

var _ Fetcher = (*upstream.Client)(nil)
var _ Enricher = (*enrich.ProfileEnricher)(nil)
var _ Enricher = (*enrich.CommentEnricher)(nil)
var _ Enricher = (*enrich.ViewEnricher)(nil)
var _ Snapshots = (*publish.Publisher)(nil)

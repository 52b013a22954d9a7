/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/bshorts_feed/internal/api"
	"github.com/friendsincode/bshorts_feed/internal/cache"
	"github.com/friendsincode/bshorts_feed/internal/config"
	"github.com/friendsincode/bshorts_feed/internal/db"
	"github.com/friendsincode/bshorts_feed/internal/enrich"
	"github.com/friendsincode/bshorts_feed/internal/eventbus"
	"github.com/friendsincode/bshorts_feed/internal/events"
	"github.com/friendsincode/bshorts_feed/internal/generator"
	"github.com/friendsincode/bshorts_feed/internal/history"
	"github.com/friendsincode/bshorts_feed/internal/logging"
	"github.com/friendsincode/bshorts_feed/internal/peertube"
	"github.com/friendsincode/bshorts_feed/internal/publish"
	"github.com/friendsincode/bshorts_feed/internal/rpc"
	"github.com/friendsincode/bshorts_feed/internal/scheduler"
	"github.com/friendsincode/bshorts_feed/internal/server"
	"github.com/friendsincode/bshorts_feed/internal/telemetry"
	"github.com/friendsincode/bshorts_feed/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bshortsfeed",
	Short: "BShorts feed - short-video playlist generation service",
	Long:  "BShorts feed aggregates Bastyon short-video playlists, enriches them with profiles, comments and view counts, and publishes per-language snapshots.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed server",
	Long:  "Start the HTTP API server and the scheduled snapshot generation pipeline",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// pipeline bundles the wired generation components.
type pipeline struct {
	svc       *generator.Service
	bus       *events.Bus
	publisher *publish.Publisher
	rpc       *rpc.Client
	runs      *history.Store
	close     func()
}

// buildPipeline wires the generation pipeline shared by serve and generate.
func buildPipeline(withHistory bool) (*pipeline, error) {
	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	sources.Apply(cfg)

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var profileCache *cache.Cache
	if cfg.CacheEnabled {
		profileCache = cache.New(cache.Config{
			RedisAddr:      cfg.RedisAddr,
			RedisPassword:  cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			ProfileTTL:     cache.DefaultProfileTTL,
			DisableOnError: true,
		}, logger)
		closers = append(closers, func() { _ = profileCache.Close() })
	}

	rpcClient := rpc.New(cfg.RPCEndpoint, logger,
		rpc.WithHTTPClient(telemetry.InstrumentHTTPClient(&http.Client{Timeout: 10 * time.Second})))
	peertubeClient := peertube.New(logger)

	profiles := enrich.NewProfileEnricher(rpcClient, profileCache, logger)
	comments := enrich.NewCommentEnricher(rpcClient, logger)
	views := enrich.NewViewEnricher(peertubeClient, logger)

	publisher := publish.New(cfg.OutputDir, logger)
	bus := events.NewBus()

	var runs *history.Store
	if withHistory {
		gormDB, err := db.Connect(cfg)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		closers = append(closers, func() { _ = db.Close(gormDB) })

		runs, err = history.NewStore(gormDB)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("migrate history store: %w", err)
		}
	}

	svc := generator.New(cfg, sources, profiles, comments, views, publisher, runs, bus, logger)
	return &pipeline{
		svc:       svc,
		bus:       bus,
		publisher: publisher,
		rpc:       rpcClient,
		runs:      runs,
		close:     closeAll,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("BShorts feed starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "bshorts-feed",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	p, err := buildPipeline(true)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	forwarder, err := eventbus.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("NATS unavailable, events stay in-process")
	} else if forwarder != nil {
		forwarder.Attach(ctx, p.bus,
			events.EventSnapshotPublished,
			events.EventSnapshotSkipped,
			events.EventCycleComplete,
			events.EventRefreshRequested,
		)
		defer forwarder.Close()
	}

	sched := scheduler.New(p.svc.GenerateAll, cfg.Interval, logger)
	go func() {
		if err := sched.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("scheduler stopped unexpectedly")
		}
	}()

	apiHandlers := api.New(p.publisher, p.rpc, p.rpc, sched, p.runs, p.bus,
		cfg.Languages, []byte(cfg.AdminJWTKey), logger)
	srv := server.New(cfg, apiHandlers, cfg.OutputDir, logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info().Msg("BShorts feed stopped")
	return nil
}

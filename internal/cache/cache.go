/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based cache for resolved author profiles,
// cutting repeat RPC lookups across generation cycles. It degrades to a
// no-op when Redis is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultProfileTTL bounds profile staleness; a profile rename shows up in
// snapshots within this window at the latest.
const DefaultProfileTTL = 1 * time.Hour

// KeyProfile is the Redis key prefix for cached profiles, suffixed by the
// author address.
const KeyProfile = "bshorts:cache:profile:"

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ProfileTTL time.Duration

	// DisableOnError trips the cache off entirely after a Redis error.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		ProfileTTL:     DefaultProfileTTL,
		DisableOnError: true,
	}
}

// CachedProfile is the stored profile shape.
type CachedProfile struct {
	Address    string   `json:"address"`
	Name       string   `json:"name"`
	Avatar     string   `json:"avatar"`
	Reputation *float64 `json:"reputation,omitempty"`
}

// Cache provides Redis-backed profile caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool
}

// New creates a cache instance. A failed Redis ping yields a disabled cache
// rather than an error; the pipeline runs fine without caching.
func New(cfg Config, logger zerolog.Logger) *Cache {
	if cfg.ProfileTTL <= 0 {
		cfg.ProfileTTL = DefaultProfileTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	componentLogger := logger.With().Str("component", "cache").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		componentLogger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{logger: componentLogger, config: cfg, disabled: true}
	}

	componentLogger.Info().Str("addr", cfg.RedisAddr).Msg("Redis profile cache initialized")
	return &Cache{client: client, logger: componentLogger, config: cfg}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// GetProfile retrieves a cached profile by address.
func (c *Cache) GetProfile(ctx context.Context, address string) (*CachedProfile, bool) {
	if !c.IsAvailable() {
		return nil, false
	}

	data, err := c.client.Get(ctx, KeyProfile+address).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.handleError(err, "get_profile")
		return nil, false
	}

	var profile CachedProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		c.logger.Debug().Err(err).Str("address", address).Msg("failed to unmarshal cached profile")
		return nil, false
	}

	c.logger.Debug().Str("address", address).Msg("profile cache hit")
	return &profile, true
}

// SetProfile caches a resolved profile with the configured TTL.
func (c *Cache) SetProfile(ctx context.Context, profile *CachedProfile) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal cached profile: %w", err)
	}

	if err := c.client.Set(ctx, KeyProfile+profile.Address, data, c.config.ProfileTTL).Err(); err != nil {
		c.handleError(err, "set_profile")
		return err
	}
	return nil
}

// InvalidateProfile removes a profile from cache.
func (c *Cache) InvalidateProfile(ctx context.Context, address string) error {
	if !c.IsAvailable() {
		return nil
	}
	if err := c.client.Del(ctx, KeyProfile+address).Err(); err != nil {
		c.handleError(err, "delete_profile")
		return err
	}
	return nil
}

// FlushAll removes all cached profiles (use sparingly).
func (c *Cache) FlushAll(ctx context.Context) error {
	if !c.IsAvailable() {
		return nil
	}

	c.logger.Warn().Msg("flushing profile cache")

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, KeyProfile+"*", 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			return nil
		}
	}
}

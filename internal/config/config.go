/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// DefaultLanguages is the language set built each cycle when
// BSHORTS_LANGS is not set.
var DefaultLanguages = []string{"en", "ru", "de", "fr", "ko", "es", "it", "zh"}

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	// Upstream sources
	PlaylistsAPIBase string
	RPCEndpoint      string
	SourcesFile      string

	// Pipeline
	OutputDir    string
	Languages    []string
	Interval     time.Duration
	MinItems     int
	FetchTimeout time.Duration

	// History storage
	DBBackend DatabaseBackend
	DBDSN     string

	// Profile cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool

	// Event forwarding
	NATSURL string

	// Admin API
	AdminJWTKey string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("BSHORTS_ENV", "development"),
		HTTPBind:    getEnv("BSHORTS_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("BSHORTS_HTTP_PORT", 8080),

		PlaylistsAPIBase: getEnvAny([]string{"BSHORTS_PLAYLISTS_API_BASE", "PLAYLISTS_API_BASE"}, "http://localhost:4040"),
		RPCEndpoint:      getEnvAny([]string{"BSHORTS_RPC_ENDPOINT", "RPC_ENDPOINT"}, "https://pocketnet.app/rpc"),
		SourcesFile:      getEnv("BSHORTS_SOURCES_FILE", ""),

		OutputDir:    getEnvAny([]string{"BSHORTS_OUTPUT_DIR", "OUTPUT_DIR"}, "./playlists"),
		Languages:    splitLanguages(getEnv("BSHORTS_LANGS", "")),
		Interval:     time.Duration(getEnvInt("BSHORTS_INTERVAL_MINUTES", 10)) * time.Minute,
		MinItems:     getEnvInt("BSHORTS_MIN_ITEMS", 100),
		FetchTimeout: time.Duration(getEnvInt("BSHORTS_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,

		DBBackend: DatabaseBackend(getEnv("BSHORTS_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("BSHORTS_DB_DSN", "bshorts.db"),

		RedisAddr:     getEnv("BSHORTS_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("BSHORTS_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("BSHORTS_REDIS_DB", 0),
		CacheEnabled:  getEnvBool("BSHORTS_CACHE_ENABLED", true),

		NATSURL: getEnv("BSHORTS_NATS_URL", ""),

		AdminJWTKey: getEnv("BSHORTS_ADMIN_JWT_KEY", ""),

		TracingEnabled:    getEnvBool("BSHORTS_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("BSHORTS_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("BSHORTS_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.Interval < time.Minute {
		return nil, fmt.Errorf("BSHORTS_INTERVAL_MINUTES must be at least 1")
	}

	if cfg.MinItems <= 0 {
		return nil, fmt.Errorf("BSHORTS_MIN_ITEMS must be positive")
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.AdminJWTKey == "" {
		return nil, fmt.Errorf("BSHORTS_ADMIN_JWT_KEY must be provided in production")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func splitLanguages(raw string) []string {
	if raw == "" {
		return append([]string(nil), DefaultLanguages...)
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			langs = append(langs, strings.ToLower(p))
		}
	}
	if len(langs) == 0 {
		return append([]string(nil), DefaultLanguages...)
	}
	return langs
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

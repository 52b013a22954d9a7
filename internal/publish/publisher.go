/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package publish writes finished playlist snapshots to the output
// directory as JSON files, one subdirectory per language. Consumers read
// latest.json; timestamped copies are kept for history.
package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/feed"
	"github.com/friendsincode/bshorts_feed/internal/telemetry"
)

// LatestFile is the stable snapshot filename readers poll.
const LatestFile = "latest.json"

// snapshotTimeFormat names timestamped snapshot files, minute resolution.
const snapshotTimeFormat = "200601021504"

// Publisher writes snapshots atomically under a root output directory.
type Publisher struct {
	root   string
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a publisher rooted at dir.
func New(dir string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		root:   dir,
		logger: logger.With().Str("component", "publish").Logger(),
		now:    time.Now,
	}
}

// Dir returns the language subdirectory for lang.
func (p *Publisher) Dir(lang string) string {
	return filepath.Join(p.root, lang)
}

// LatestPath returns the path of the stable snapshot for lang.
func (p *Publisher) LatestPath(lang string) string {
	return filepath.Join(p.Dir(lang), LatestFile)
}

// Publish writes videos as the new snapshot for lang. An empty slice is
// never published: the previous snapshot stays in place so readers keep
// serving the last good data, and any empty snapshot files left behind by
// earlier runs are removed.
func (p *Publisher) Publish(lang string, videos []feed.Video) error {
	dir := p.Dir(lang)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	if len(videos) == 0 {
		telemetry.PublishSkippedTotal.WithLabelValues(lang).Inc()
		p.logger.Warn().Str("lang", lang).Msg("empty snapshot, keeping previous playlist")
		p.cleanupEmpty(dir)
		return nil
	}

	data, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// latest.json first so readers see fresh data even if the
	// timestamped copy fails.
	if err := writeAtomic(p.LatestPath(lang), data); err != nil {
		return err
	}

	stamped := filepath.Join(dir, "playlist-"+p.now().UTC().Format(snapshotTimeFormat)+".json")
	if err := writeAtomic(stamped, data); err != nil {
		return err
	}

	telemetry.RecordsPublishedTotal.WithLabelValues(lang).Add(float64(len(videos)))
	p.logger.Info().
		Str("lang", lang).
		Int("records", len(videos)).
		Str("file", stamped).
		Msg("snapshot published")
	return nil
}

// Load reads the current snapshot for lang. A missing snapshot returns an
// empty slice, not an error.
func (p *Publisher) Load(lang string) ([]feed.Video, error) {
	data, err := os.ReadFile(p.LatestPath(lang))
	if os.IsNotExist(err) {
		return []feed.Video{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var videos []feed.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", p.LatestPath(lang), err)
	}
	return videos, nil
}

// writeAtomic writes via a temp file and rename so readers never observe
// a partially written snapshot.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// cleanupEmpty deletes snapshot files in dir whose content is an empty
// JSON array. These can only come from earlier versions that published
// empty snapshots, and they shadow good data behind them.
func (p *Publisher) cleanupEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if isEmptyArray(data) {
			if err := os.Remove(path); err == nil {
				p.logger.Info().Str("file", path).Msg("removed empty snapshot file")
			}
		}
	}
}

func isEmptyArray(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed == "[]" || trimmed == ""
}

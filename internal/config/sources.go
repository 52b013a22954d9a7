/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources is the optional YAML source-override file. It lets deployments
// point individual languages at different upstream endpoints without
// touching the environment.
type Sources struct {
	PlaylistsAPIBase string            `yaml:"playlists_api_base"`
	RPCEndpoint      string            `yaml:"rpc_endpoint"`
	Languages        []string          `yaml:"languages"`
	LanguageBases    map[string]string `yaml:"language_bases"`
}

// LoadSources reads a sources file. Path "" yields an empty override set.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return &Sources{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sources Sources
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	return &sources, nil
}

// Apply merges the overrides into cfg.
func (s *Sources) Apply(cfg *Config) {
	if s.PlaylistsAPIBase != "" {
		cfg.PlaylistsAPIBase = s.PlaylistsAPIBase
	}
	if s.RPCEndpoint != "" {
		cfg.RPCEndpoint = s.RPCEndpoint
	}
	if len(s.Languages) > 0 {
		cfg.Languages = append([]string(nil), s.Languages...)
	}
}

// BaseFor returns the upstream base URL for lang, falling back to the
// process-wide base.
func (s *Sources) BaseFor(lang, fallback string) string {
	if base, ok := s.LanguageBases[lang]; ok && base != "" {
		return base
	}
	return fallback
}

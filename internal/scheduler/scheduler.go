/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler drives the generation pipeline on a fixed-rate
// interval with a single-flight guard: a tick that arrives while a cycle
// is still running is dropped rather than overlapped, since concurrent
// cycles would race on the same snapshot files.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/bshorts_feed/internal/telemetry"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Cycle is one full generation pass over all languages.
type Cycle func(ctx context.Context)

// Scheduler runs a Cycle immediately at start and then at a fixed
// interval.
type Scheduler struct {
	cycle    Cycle
	interval time.Duration
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// New constructs a scheduler.
func New(cycle Cycle, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cycle:    cycle,
		interval: interval,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run executes the scheduler loop until the context is cancelled. The
// first cycle starts immediately; later ticks fire at a fixed rate
// measured from start, not from each cycle's completion.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	// The ticker starts before the first cycle so the rate is anchored at
	// startup, not at first-cycle completion.
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one cycle unless a cycle is already in flight, in which case
// it is a no-op. Admin-triggered refreshes go through the same guard.
func (s *Scheduler) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		telemetry.CycleTicksSkippedTotal.Inc()
		s.logger.Warn().Msg("cycle still running, skipping tick")
		return false
	}
	s.state = StateRunning
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	}()

	s.cycle(ctx)
	return true
}

// TriggerAsync starts a cycle in the background if none is running.
// It reports whether a cycle was started.
func (s *Scheduler) TriggerAsync(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	go s.Tick(ctx)
	return true
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package history persists per-language generation run records so operators
// can audit cycle outcomes after the fact.
package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerationRun is one language build within a cycle.
type GenerationRun struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	Lang             string `gorm:"type:varchar(8);index"`
	ItemsFetched     int
	RecordsPublished int
	DurationMS       int64
	Error            string `gorm:"type:text"`
	CreatedAt        time.Time
}

// Store records and queries generation runs.
type Store struct {
	db *gorm.DB
}

// NewStore creates a run store and migrates its schema.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&GenerationRun{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// RecordRun persists one run outcome.
func (s *Store) RecordRun(run *GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return s.db.Create(run).Error
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]GenerationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []GenerationRun
	err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// RecentForLang returns the most recent runs for one language.
func (s *Store) RecentForLang(lang string, limit int) ([]GenerationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []GenerationRun
	err := s.db.Where("lang = ?", lang).Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package history

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := testStore(t)

	runs := []GenerationRun{
		{Lang: "en", ItemsFetched: 120, RecordsPublished: 100, DurationMS: 900},
		{Lang: "ru", ItemsFetched: 80, RecordsPublished: 80, DurationMS: 700},
		{Lang: "en", ItemsFetched: 0, Error: "upstream unreachable"},
	}
	for i := range runs {
		if err := store.RecordRun(&runs[i]); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
		if runs[i].ID == "" {
			t.Errorf("run %d: ID not assigned", i)
		}
	}

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent len = %d, want 3", len(recent))
	}

	enRuns, err := store.RecentForLang("en", 10)
	if err != nil {
		t.Fatalf("RecentForLang: %v", err)
	}
	if len(enRuns) != 2 {
		t.Errorf("en runs = %d, want 2", len(enRuns))
	}
	for _, run := range enRuns {
		if run.Lang != "en" {
			t.Errorf("run lang = %q", run.Lang)
		}
	}
}

func TestRecentLimitDefault(t *testing.T) {
	store := testStore(t)
	if err := store.RecordRun(&GenerationRun{Lang: "de"}); err != nil {
		t.Fatal(err)
	}
	runs, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("runs = %d, want 1", len(runs))
	}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/bshorts_feed/internal/db"
	"github.com/friendsincode/bshorts_feed/internal/history"
)

var (
	historyLang  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generation runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyLang, "lang", "", "filter runs by language")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(gormDB) }()

	store, err := history.NewStore(gormDB)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}

	var runs []history.GenerationRun
	if historyLang != "" {
		runs, err = store.RecentForLang(historyLang, historyLimit)
	} else {
		runs, err = store.Recent(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLANG\tFETCHED\tPUBLISHED\tDURATION\tERROR")
	for _, run := range runs {
		errText := run.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%dms\t%s\n",
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Lang, run.ItemsFetched, run.RecordsPublished, run.DurationMS, errText)
	}
	return w.Flush()
}

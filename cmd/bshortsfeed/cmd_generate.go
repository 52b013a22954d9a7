/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"

	"github.com/spf13/cobra"
)

var generateSkipHistory bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generation cycle and exit",
	Long:  "Fetch, enrich and publish snapshots for all configured languages once, without starting the HTTP server or scheduler",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateSkipHistory, "skip-history", false, "do not record the run in the history database")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	p, err := buildPipeline(!generateSkipHistory)
	if err != nil {
		return err
	}
	defer p.close()

	logger.Info().Strs("languages", cfg.Languages).Msg("running one-off generation cycle")
	p.svc.GenerateAll(context.Background())
	return nil
}

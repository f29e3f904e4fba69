package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"airdropLedger/internal/config"
	"airdropLedger/internal/ledger"
	"airdropLedger/internal/model"
	"airdropLedger/internal/pipeline"
	"airdropLedger/internal/report"
	"airdropLedger/internal/storage"
)

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	doc, err := ledger.ReadFile(cfg.In)
	if err != nil {
		return err
	}
	if cfg.Events != "" {
		if err := checkArchive(doc, cfg.Events, cfg.EventName); err != nil {
			return err
		}
		logger.Info("ledger matches event archive", zap.String("events", cfg.Events), zap.Int("entries", len(doc.Entries)))
	}

	if cfg.Out == "" {
		return report.Render(cmd.OutOrStdout(), doc)
	}
	if err := report.WriteFile(cfg.Out, doc); err != nil {
		return err
	}
	logger.Info("report written", zap.String("run_id", doc.RunID), zap.String("out", cfg.Out))
	return nil
}

// checkArchive rebuilds the ledger entries from a scan's event archive and
// compares them with doc.
func checkArchive(doc model.Ledger, path, eventName string) error {
	events, err := storage.ReadEvents(path)
	if err != nil {
		return err
	}
	state, err := pipeline.Replay(events, eventName)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	entries, _, err := ledger.NewConsolidator(nil).Consolidate(state)
	if err != nil {
		return err
	}
	if err := ledger.ComparePrimary(doc.Entries, entries); err != nil {
		return fmt.Errorf("ledger %s does not match event archive: %w", doc.RunID, err)
	}
	return nil
}

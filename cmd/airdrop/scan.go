package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"airdropLedger/internal/allocation"
	"airdropLedger/internal/chain"
	"airdropLedger/internal/config"
	"airdropLedger/internal/ledger"
	"airdropLedger/internal/metrics"
	"airdropLedger/internal/model"
	"airdropLedger/internal/pipeline"
	"airdropLedger/internal/presale"
	"airdropLedger/internal/report"
	"airdropLedger/internal/scanner"
	"airdropLedger/internal/storage"
	"airdropLedger/internal/storage/postgres"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadScan(cfgFile, cmd.Flags())
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

	contract, err := chain.ParseAddress(cfg.Contract)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	primarySymbol, secondarySymbol, err := resolveTokens(ctx, chainClient, &cfg, logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("after token lookup: %w", err)
	}

	var calc *allocation.Calculator
	if cfg.AllocationEnabled() {
		price, err := allocation.ParsePrice(cfg.Price)
		if err != nil {
			return err
		}
		calc, err = allocation.NewCalculator(allocation.Config{
			PrimaryDecimals:   uint8(cfg.PrimaryDecimals),
			SecondaryDecimals: uint8(cfg.SecondaryDecimals),
			Price:             price,
			ClaimPercent:      cfg.ClaimPercent,
		})
		if err != nil {
			return err
		}
	}

	endBlock := cfg.EndBlock
	if endBlock == 0 {
		latest, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		endBlock = latest + 1
	}
	if endBlock <= cfg.StartBlock {
		logger.Warn("empty block range, ledger will have no entries", zap.Uint64("start", cfg.StartBlock), zap.Uint64("end", endBlock))
	}

	source, err := presale.NewSource(chainClient, contract)
	if err != nil {
		return err
	}

	var archive storage.EventStorage
	if cfg.EventsOut != "" {
		jsonl := storage.NewJsonlStorage(cfg.EventsOut)
		if err := jsonl.Reset(); err != nil {
			return fmt.Errorf("reset events archive: %w", err)
		}
		archive = jsonl
	}

	m := metrics.New()
	runner := pipeline.NewRunner(pipeline.Config{
		Scan: scanner.Config{
			StartBlock:  cfg.StartBlock,
			EndBlock:    endBlock,
			WindowSize:  cfg.WindowSize,
			RetryDelay:  cfg.RetryDelay,
			WindowDelay: cfg.WindowDelay,
		},
		EventName: cfg.EventName,
	}, source, archive, m.ScannerHooks(), logger)

	runID := uuid.NewString()
	logger.Info("scan start",
		zap.String("run_id", runID),
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", contract.Hex()),
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.Uint64("start", cfg.StartBlock),
		zap.Uint64("end", endBlock),
		zap.Uint64("window_size", cfg.WindowSize),
		zap.Uint64("windows", scanner.WindowCount(cfg.StartBlock, endBlock, cfg.WindowSize)),
		zap.Bool("allocation", calc != nil),
	)

	var res pipeline.Result
	err = withMetrics(ctx, cfg.MetricsAddr, m, logger, func(ctx context.Context) error {
		var err error
		res, err = runner.Run(ctx)
		return err
	})
	if err != nil {
		return err
	}
	m.ObserveCounters(res.State.Counters(), res.Ignored)

	entries, totals, err := ledger.NewConsolidator(calc).Consolidate(res.State)
	if err != nil {
		return err
	}
	totals.EventsIgnored = res.Ignored

	doc := model.Ledger{
		RunID:           runID,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		ChainID:         chainID.Uint64(),
		Contract:        contract.Hex(),
		StartBlock:      cfg.StartBlock,
		EndBlock:        endBlock,
		PrimaryDecimals: uint8(cfg.PrimaryDecimals),
		PrimarySymbol:   primarySymbol,
		Totals:          totals,
		Entries:         entries,
	}
	if calc != nil {
		doc.SecondaryDecimals = uint8(cfg.SecondaryDecimals)
		doc.SecondarySymbol = secondarySymbol
	}

	if err := ledger.WriteFile(cfg.Out, doc); err != nil {
		return err
	}

	if cfg.ReportOut != "" {
		if err := report.WriteFile(cfg.ReportOut, doc); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if cfg.PgDSN != "" {
		if err := mirrorLedger(ctx, cfg.PgDSN, doc); err != nil {
			return err
		}
	}

	logger.Info("scan complete",
		zap.String("run_id", runID),
		zap.String("out", cfg.Out),
		zap.Int("contributors", totals.Contributors),
		zap.Uint64("events_processed", totals.EventsProcessed),
		zap.Uint64("duplicates_skipped", totals.DuplicatesSkipped),
		zap.Uint64("events_ignored", totals.EventsIgnored),
		zap.String("primary_total", totals.PrimaryTotal),
		zap.String("secondary_total", totals.SecondaryTotal),
	)
	return nil
}

func mirrorLedger(ctx context.Context, dsn string, doc model.Ledger) error {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := store.UpsertLedgerEntries(ctx, doc.RunID, doc.Entries); err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}
	return nil
}

// resolveTokens replaces configured decimals with the on-chain values of any
// token addresses given and returns the token symbols.
func resolveTokens(ctx context.Context, chainClient *chain.Client, cfg *config.ScanConfig, logger *zap.Logger) (string, string, error) {
	var primarySymbol, secondarySymbol string
	if cfg.PrimaryToken != "" {
		meta, err := fetchToken(ctx, chainClient, cfg.PrimaryToken, logger)
		if err != nil {
			return "", "", err
		}
		cfg.PrimaryDecimals = int(meta.Decimals)
		primarySymbol = meta.Symbol
	}
	if cfg.SecondaryToken != "" {
		meta, err := fetchToken(ctx, chainClient, cfg.SecondaryToken, logger)
		if err != nil {
			return "", "", err
		}
		cfg.SecondaryDecimals = int(meta.Decimals)
		secondarySymbol = meta.Symbol
	}
	return primarySymbol, secondarySymbol, nil
}

func fetchToken(ctx context.Context, chainClient *chain.Client, address string, logger *zap.Logger) (presale.TokenMeta, error) {
	token, err := chain.ParseAddress(address)
	if err != nil {
		return presale.TokenMeta{}, err
	}
	meta, err := presale.FetchTokenMeta(ctx, chainClient, token, logger)
	if err != nil {
		return meta, fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	logger.Info("token resolved", zap.String("token", meta.Address), zap.String("symbol", meta.Symbol), zap.Uint8("decimals", meta.Decimals))
	return meta, nil
}

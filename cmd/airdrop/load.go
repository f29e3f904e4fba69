package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"airdropLedger/internal/chain"
	"airdropLedger/internal/config"
	"airdropLedger/internal/ledger"
	"airdropLedger/internal/loader"
	"airdropLedger/internal/metrics"
	"airdropLedger/internal/presale"
	"airdropLedger/internal/storage/postgres"
)

func runLoad(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLoad(cfgFile, cmd.Flags())
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
	field, err := loader.ParseAmountField(cfg.Amount)
	if err != nil {
		return err
	}
	if field == loader.AmountSecondary && doc.Totals.SecondaryTotal == "" {
		return fmt.Errorf("ledger %s has no secondary allocation", cfg.In)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress loader.ProgressStore
	switch {
	case cfg.DryRun:
	case cfg.PgDSN != "":
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		progress = &loader.DBProgressStore{Store: store, Name: "load:" + doc.RunID}
	case cfg.Progress != "":
		progress = &loader.FileProgressStore{Path: cfg.Progress, RunID: doc.RunID}
	}

	var sink loader.Sink
	if !cfg.DryRun {
		chainClient, contractSink, err := openSink(ctx, cfg.RPCURL, cfg.Contract, cfg.PrivateKey)
		if err != nil {
			return err
		}
		defer chainClient.Close()
		sink = contractSink
	}

	m := metrics.New()
	ld := loader.New(loader.Config{
		ChunkSize:  cfg.ChunkSize,
		Amount:     field,
		StartChunk: cfg.StartChunk,
		Resume:     cfg.Resume,
		DryRun:     cfg.DryRun,
		Progress:   progress,
	}, sink, m.LoaderHooks(), logger)

	logger.Info("load start",
		zap.String("run_id", doc.RunID),
		zap.String("in", cfg.In),
		zap.String("contract", cfg.Contract),
		zap.Int("entries", len(doc.Entries)),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.String("amount", string(field)),
		zap.Bool("resume", cfg.Resume),
		zap.Bool("dry_run", cfg.DryRun),
	)

	var res loader.Result
	err = withMetrics(ctx, cfg.MetricsAddr, m, logger, func(ctx context.Context) error {
		var err error
		res, err = ld.Load(ctx, doc.Entries)
		return err
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("run_id", doc.RunID),
		zap.Int("chunks", res.Chunks),
		zap.Int("first_entry", res.FirstEntry),
		zap.Int("submitted", res.Submitted),
		zap.Int("entries", res.Entries),
		zap.String("submitted_total", res.SubmittedTotal.String()),
		zap.Bool("total_mismatch", res.TotalMismatch),
		zap.Bool("users_mismatch", res.UsersMismatch),
	}
	if res.LoadedAfter != nil {
		fields = append(fields, zap.String("total_loaded", res.LoadedAfter.String()))
	}
	logger.Info("load complete", fields...)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLoad(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateRead(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, sink, err := openSink(ctx, cfg.RPCURL, cfg.Contract, "")
	if err != nil {
		return err
	}
	defer chainClient.Close()

	loaded, err := sink.TotalLoaded(ctx)
	if err != nil {
		return err
	}
	users, err := sink.TotalUsers(ctx)
	if err != nil {
		return err
	}

	logger.Info("status",
		zap.String("contract", cfg.Contract),
		zap.String("total_loaded", loaded.String()),
		zap.String("total_users", users.String()),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "total loaded: %s\ntotal users: %s\n", loaded, users)
	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLoad(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateRead(); err != nil {
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
	field, err := loader.ParseAmountField(cfg.Amount)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, sink, err := openSink(ctx, cfg.RPCURL, cfg.Contract, "")
	if err != nil {
		return err
	}
	defer chainClient.Close()

	mismatches, err := loader.Verify(ctx, sink, doc.Entries, field)
	if err != nil {
		return err
	}
	for _, mismatch := range mismatches {
		logger.Warn("claim mismatch",
			zap.String("address", mismatch.Address),
			zap.String("expected", mismatch.Expected),
			zap.String("actual", mismatch.Actual),
		)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d of %d entries do not match the contract", len(mismatches), len(doc.Entries))
	}

	logger.Info("verify complete", zap.String("run_id", doc.RunID), zap.Int("entries", len(doc.Entries)))
	return nil
}

// openSink connects to the chain and binds the airdrop contract. An empty
// privateKey yields a read-only sink.
func openSink(ctx context.Context, rpcURL, contract, privateKey string) (*chain.Client, *presale.Sink, error) {
	address, err := chain.ParseAddress(contract)
	if err != nil {
		return nil, nil, err
	}

	chainClient, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	var signer *bind.TransactOpts
	if privateKey != "" {
		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			chainClient.Close()
			return nil, nil, fmt.Errorf("get chain id: %w", err)
		}
		signer, err = presale.NewSigner(privateKey, chainID)
		if err != nil {
			chainClient.Close()
			return nil, nil, err
		}
	}

	sink, err := presale.NewContractSink(chainClient, address, signer)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}
	return chainClient, sink, nil
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"airdropLedger/internal/loader"
	"airdropLedger/internal/metrics"
)

func main() {
	root := &cobra.Command{
		Use:          "airdrop",
		Short:        "Presale contribution ledger and airdrop claim loader",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan presale events into a consolidated ledger",
		RunE:  runScan,
	}

	scanCmd.Flags().String("rpc", "", "RPC URL")
	scanCmd.Flags().String("contract", "", "presale contract address")
	scanCmd.Flags().Uint64("start-block", 0, "first block to scan (inclusive)")
	scanCmd.Flags().Uint64("end-block", 0, "end block (exclusive), 0 means latest")
	scanCmd.Flags().Uint64("window-size", 1000, "blocks per window")
	scanCmd.Flags().Duration("retry-delay", time.Second, "delay before retrying a failed window")
	scanCmd.Flags().Duration("window-delay", time.Second, "delay between windows")
	scanCmd.Flags().String("event-name", "Buy", "contribution event name")
	scanCmd.Flags().String("primary-token", "", "optional contributed token address; its decimals override --primary-decimals")
	scanCmd.Flags().String("secondary-token", "", "optional allocated token address; its decimals override --secondary-decimals")
	scanCmd.Flags().Uint("primary-decimals", 6, "decimals of the contributed token")
	scanCmd.Flags().Uint("secondary-decimals", 18, "decimals of the allocated token")
	scanCmd.Flags().String("price", "", "allocation price, applied after decimal scaling; empty disables allocation")
	scanCmd.Flags().Int64("claim-percent", 100, "percentage of the allocation that is claimable")
	scanCmd.Flags().String("out", "./data/ledger.json", "output ledger path")
	scanCmd.Flags().String("events-out", "", "optional JSONL archive of admitted events")
	scanCmd.Flags().String("report-out", "", "optional markdown report path")
	scanCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to mirror the ledger")
	scanCmd.Flags().String("metrics-addr", "", "optional address to serve /metrics on")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load a ledger into the airdrop contract in chunks",
		RunE:  runLoad,
	}

	addSinkFlags(loadCmd)
	loadCmd.Flags().String("in", "./data/ledger.json", "input ledger path")
	loadCmd.Flags().String("private-key", "", "hex private key of the loader account")
	loadCmd.Flags().Int("chunk-size", loader.DefaultChunkSize, "entries per submission")
	loadCmd.Flags().String("amount", string(loader.AmountPrimary), "amount to load (primary, secondary)")
	loadCmd.Flags().Int("start-chunk", 0, "first chunk to submit")
	loadCmd.Flags().Bool("resume", false, "skip chunks recorded as confirmed")
	loadCmd.Flags().Bool("dry-run", false, "plan chunks without submitting")
	loadCmd.Flags().String("progress", "./data/load_progress.json", "load progress file path")
	loadCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for load progress")
	loadCmd.Flags().String("metrics-addr", "", "optional address to serve /metrics on")

	root.AddCommand(loadCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the airdrop contract totals",
		RunE:  runStatus,
	}

	addSinkFlags(statusCmd)

	root.AddCommand(statusCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare every ledger entry with the airdrop contract",
		RunE:  runVerify,
	}

	addSinkFlags(verifyCmd)
	verifyCmd.Flags().String("in", "./data/ledger.json", "input ledger path")
	verifyCmd.Flags().String("amount", string(loader.AmountPrimary), "amount that was loaded (primary, secondary)")

	root.AddCommand(verifyCmd)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render a markdown summary of a ledger",
		RunE:  runReport,
	}

	reportCmd.Flags().String("in", "./data/ledger.json", "input ledger path")
	reportCmd.Flags().String("out", "", "output markdown path, empty writes to stdout")
	reportCmd.Flags().String("events", "", "optional JSONL event archive to check the ledger against")
	reportCmd.Flags().String("event-name", "Buy", "contribution event name in the archive")
	reportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(reportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSinkFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("contract", "", "airdrop contract address")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// withMetrics runs fn, serving m on addr for as long as fn runs.
func withMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *zap.Logger, fn func(ctx context.Context) error) error {
	if addr == "" {
		return fn(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServe := context.WithCancel(gctx)
	defer stopServe()

	g.Go(func() error {
		return m.Serve(serveCtx, addr, logger)
	})
	g.Go(func() error {
		defer stopServe()
		return fn(gctx)
	})
	return g.Wait()
}

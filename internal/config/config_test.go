package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"airdropLedger/internal/loader"
)

const contract = "0x1111111111111111111111111111111111111111"

func TestLoadScanDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("contract", "", "")
	flags.Uint64("start-block", 0, "")
	if err := flags.Parse([]string{"--rpc", "http://localhost:8545", "--contract", contract, "--start-block", "10"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadScan("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WindowSize != 1000 || cfg.RetryDelay != time.Second || cfg.WindowDelay != time.Second {
		t.Fatalf("scan defaults mismatch: %+v", cfg)
	}
	if cfg.EventName != "Buy" || cfg.PrimaryDecimals != 6 || cfg.SecondaryDecimals != 18 || cfg.ClaimPercent != 100 {
		t.Fatalf("domain defaults mismatch: %+v", cfg)
	}
	if cfg.StartBlock != 10 || cfg.Contract != contract {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadScanConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airdrop.yaml")
	content := "rpc: http://node:8545\ncontract: " + contract + "\nwindow-size: 50\nprice: \"500000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AIRDROP_CLAIM_PERCENT", "10")

	cfg, err := LoadScan(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WindowSize != 50 || cfg.Price != "500000" || cfg.ClaimPercent != 10 {
		t.Fatalf("file/env not applied: %+v", cfg)
	}
	if !cfg.AllocationEnabled() {
		t.Fatalf("expected allocation enabled")
	}
}

func TestScanValidate(t *testing.T) {
	base := ScanConfig{
		RPCURL:            "http://localhost:8545",
		Contract:          contract,
		WindowSize:        1000,
		EventName:         "Buy",
		Out:               "ledger.json",
		PrimaryDecimals:   6,
		SecondaryDecimals: 18,
		ClaimPercent:      100,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}

	cases := map[string]func(c *ScanConfig){
		"window":   func(c *ScanConfig) { c.WindowSize = 0 },
		"contract": func(c *ScanConfig) { c.Contract = "0x12" },
		"decimals": func(c *ScanConfig) { c.Price, c.SecondaryDecimals = "1", 2 },
		"too many": func(c *ScanConfig) { c.SecondaryDecimals = MaxDecimals + 1 },
		"negative": func(c *ScanConfig) { c.PrimaryDecimals = -1 },
		"percent":  func(c *ScanConfig) { c.Price, c.ClaimPercent = "1", 101 },
		"level":    func(c *ScanConfig) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestScanValidateAllowsEmptyRange(t *testing.T) {
	for _, end := range []uint64{10, 9} {
		cfg := ScanConfig{
			RPCURL:     "http://localhost:8545",
			Contract:   contract,
			StartBlock: 10,
			EndBlock:   end,
			WindowSize: 1000,
			EventName:  "Buy",
			Out:        "ledger.json",
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("end %d: expected empty range to validate, got %v", end, err)
		}
	}
}

func TestLoadValidate(t *testing.T) {
	flags := pflag.NewFlagSet("load", pflag.ContinueOnError)
	flags.Bool("dry-run", false, "")
	if err := flags.Parse([]string{"--dry-run"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := LoadLoad("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != loader.DefaultChunkSize || cfg.Amount != "primary" {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dry run should not need a chain: %v", err)
	}

	cfg.DryRun = false
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "private key") {
		t.Fatalf("expected private key error, got %v", err)
	}

	cfg.ChunkSize = 0
	if err := cfg.Validate(); !errors.Is(err, loader.ErrInvalidChunkSize) {
		t.Fatalf("expected ErrInvalidChunkSize, got %v", err)
	}

	cfg = LoadConfig{In: "ledger.json", ChunkSize: 250, Resume: true, StartChunk: 2, DryRun: true}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected resume/start chunk conflict")
	}

	cfg = LoadConfig{RPCURL: "http://localhost:8545", Contract: contract}
	if err := cfg.ValidateRead(); err != nil {
		t.Fatalf("validate read: %v", err)
	}
}

func TestLoadScanRejectsOversizedDecimals(t *testing.T) {
	flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("contract", "", "")
	flags.Uint("primary-decimals", 6, "")
	flags.Uint("secondary-decimals", 18, "")
	args := []string{
		"--rpc", "http://localhost:8545",
		"--contract", contract,
		"--primary-decimals", "262",
		"--secondary-decimals", "274",
	}
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadScan("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PrimaryDecimals != 262 || cfg.SecondaryDecimals != 274 {
		t.Fatalf("decimals were altered: primary=%d secondary=%d", cfg.PrimaryDecimals, cfg.SecondaryDecimals)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for decimals above %d", MaxDecimals)
	}
}

func TestLoadReportEvents(t *testing.T) {
	flags := pflag.NewFlagSet("report", pflag.ContinueOnError)
	flags.String("events", "", "")
	if err := flags.Parse([]string{"--events", "./data/events.jsonl"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := LoadReport("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Events != "./data/events.jsonl" || cfg.EventName != "Buy" {
		t.Fatalf("report config mismatch: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.EventName = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for archive without event name")
	}
}

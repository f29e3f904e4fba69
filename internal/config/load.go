package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"airdropLedger/internal/loader"
)

// LoadConfig holds configuration for the load, status and verify commands.
type LoadConfig struct {
	RPCURL      string
	Contract    string
	In          string
	PrivateKey  string
	ChunkSize   int
	Amount      string
	StartChunk  int
	Resume      bool
	DryRun      bool
	Progress    string
	PgDSN       string
	MetricsAddr string
	LogLevel    string
}

// LoadLoad merges config file, environment variables, and flags into LoadConfig.
func LoadLoad(cfgFile string, flags *pflag.FlagSet) (LoadConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":         "./data/ledger.json",
		"chunk-size": loader.DefaultChunkSize,
		"amount":     string(loader.AmountPrimary),
		"progress":   "./data/load_progress.json",
		"log-level":  "info",
	})
	if err != nil {
		return LoadConfig{}, err
	}

	return LoadConfig{
		RPCURL:      v.GetString("rpc"),
		Contract:    v.GetString("contract"),
		In:          v.GetString("in"),
		PrivateKey:  v.GetString("private-key"),
		ChunkSize:   v.GetInt("chunk-size"),
		Amount:      v.GetString("amount"),
		StartChunk:  v.GetInt("start-chunk"),
		Resume:      v.GetBool("resume"),
		DryRun:      v.GetBool("dry-run"),
		Progress:    v.GetString("progress"),
		PgDSN:       v.GetString("pg-dsn"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}

// ValidateRead checks the settings needed to read the sink.
func (c LoadConfig) ValidateRead() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if err := validateAddress("contract", c.Contract); err != nil {
		return err
	}
	return validateLogLevel(c.LogLevel)
}

// Validate checks the settings for a load. A dry run needs neither a chain
// connection nor a key.
func (c LoadConfig) Validate() error {
	if c.In == "" {
		return fmt.Errorf("ledger input path is required")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: %d", loader.ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.StartChunk < 0 {
		return fmt.Errorf("start chunk must not be negative")
	}
	if c.Resume && c.StartChunk > 0 {
		return fmt.Errorf("resume and start chunk are mutually exclusive")
	}
	if _, err := loader.ParseAmountField(c.Amount); err != nil {
		return err
	}
	if c.DryRun {
		return validateLogLevel(c.LogLevel)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	return c.ValidateRead()
}

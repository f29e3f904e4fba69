package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// MaxDecimals bounds token decimals so that 10^decimals fits in a uint256.
const MaxDecimals = 77

// ScanConfig holds configuration for the scan command.
type ScanConfig struct {
	RPCURL            string
	Contract          string
	StartBlock        uint64
	EndBlock          uint64
	WindowSize        uint64
	RetryDelay        time.Duration
	WindowDelay       time.Duration
	EventName         string
	PrimaryToken      string
	SecondaryToken    string
	PrimaryDecimals   int
	SecondaryDecimals int
	Price             string
	ClaimPercent      int64
	Out               string
	EventsOut         string
	ReportOut         string
	PgDSN             string
	MetricsAddr       string
	LogLevel          string
}

// LoadScan merges config file, environment variables, and flags into ScanConfig.
func LoadScan(cfgFile string, flags *pflag.FlagSet) (ScanConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"window-size":        uint64(1000),
		"retry-delay":        time.Second,
		"window-delay":       time.Second,
		"event-name":         "Buy",
		"primary-decimals":   6,
		"secondary-decimals": 18,
		"claim-percent":      int64(100),
		"out":                "./data/ledger.json",
		"log-level":          "info",
	})
	if err != nil {
		return ScanConfig{}, err
	}

	return ScanConfig{
		RPCURL:            v.GetString("rpc"),
		Contract:          v.GetString("contract"),
		StartBlock:        v.GetUint64("start-block"),
		EndBlock:          v.GetUint64("end-block"),
		WindowSize:        v.GetUint64("window-size"),
		RetryDelay:        v.GetDuration("retry-delay"),
		WindowDelay:       v.GetDuration("window-delay"),
		EventName:         v.GetString("event-name"),
		PrimaryToken:      v.GetString("primary-token"),
		SecondaryToken:    v.GetString("secondary-token"),
		PrimaryDecimals:   v.GetInt("primary-decimals"),
		SecondaryDecimals: v.GetInt("secondary-decimals"),
		Price:             v.GetString("price"),
		ClaimPercent:      v.GetInt64("claim-percent"),
		Out:               v.GetString("out"),
		EventsOut:         v.GetString("events-out"),
		ReportOut:         v.GetString("report-out"),
		PgDSN:             v.GetString("pg-dsn"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}

// AllocationEnabled reports whether a secondary allocation is requested.
func (c ScanConfig) AllocationEnabled() bool {
	return c.Price != ""
}

// Validate checks the scan settings. Allocation settings are only checked
// when a price is set. Decimals read from token contracts are checked again
// by the allocation calculator.
func (c ScanConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if err := validateAddress("contract", c.Contract); err != nil {
		return err
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window size must be at least 1")
	}
	if c.RetryDelay < 0 || c.WindowDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.PrimaryToken != "" {
		if err := validateAddress("primary token", c.PrimaryToken); err != nil {
			return err
		}
	}
	if c.SecondaryToken != "" {
		if err := validateAddress("secondary token", c.SecondaryToken); err != nil {
			return err
		}
	}
	if err := validateDecimals("primary decimals", c.PrimaryDecimals); err != nil {
		return err
	}
	if err := validateDecimals("secondary decimals", c.SecondaryDecimals); err != nil {
		return err
	}
	if c.EventName == "" {
		return fmt.Errorf("event name is required")
	}
	if c.Out == "" {
		return fmt.Errorf("ledger output path is required")
	}
	if c.AllocationEnabled() {
		if c.SecondaryDecimals < c.PrimaryDecimals {
			return fmt.Errorf("secondary decimals %d below primary decimals %d", c.SecondaryDecimals, c.PrimaryDecimals)
		}
		if c.ClaimPercent < 0 || c.ClaimPercent > 100 {
			return fmt.Errorf("claim percent must be within 0..100, got %d", c.ClaimPercent)
		}
	}
	return validateLogLevel(c.LogLevel)
}

func validateDecimals(name string, value int) error {
	if value < 0 || value > MaxDecimals {
		return fmt.Errorf("%s must be within 0..%d, got %d", name, MaxDecimals, value)
	}
	return nil
}

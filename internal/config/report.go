package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the report command.
type ReportConfig struct {
	In        string
	Out       string
	Events    string
	EventName string
	LogLevel  string
}

// LoadReport merges config file, environment variables, and flags into ReportConfig.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":         "./data/ledger.json",
		"event-name": "Buy",
		"log-level":  "info",
	})
	if err != nil {
		return ReportConfig{}, err
	}

	return ReportConfig{
		In:        v.GetString("in"),
		Out:       v.GetString("out"),
		Events:    v.GetString("events"),
		EventName: v.GetString("event-name"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}

// Validate checks the report settings.
func (c ReportConfig) Validate() error {
	if c.In == "" {
		return fmt.Errorf("ledger input path is required")
	}
	if c.Events != "" && c.EventName == "" {
		return fmt.Errorf("event name is required to check an event archive")
	}
	return validateLogLevel(c.LogLevel)
}

// Package config loads the optional HCL configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/text/language"
)

const (
	DefaultDatabasePath = "hh-replayer.db"
	DefaultLocale       = "fr-FR"
	DefaultPollInterval = "500ms"
)

// Config represents the complete configuration file.
type Config struct {
	// DatabasePath is the SQLite file; empty means DefaultDatabasePath. The
	// --db flag overrides it and --memory bypasses it.
	DatabasePath string         `hcl:"database_path,optional"`
	LogDebug     bool           `hcl:"log_debug,optional"`
	Display      *DisplayConfig `hcl:"display,block"`
	Watch        *WatchConfig   `hcl:"watch,block"`
}

type DisplayConfig struct {
	ShowInBB bool   `hcl:"show_in_bb,optional"`
	Locale   string `hcl:"locale,optional"`
}

type WatchConfig struct {
	PollInterval string `hcl:"poll_interval,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DatabasePath: DefaultDatabasePath,
		Display:      &DisplayConfig{Locale: DefaultLocale},
		Watch:        &WatchConfig{PollInterval: DefaultPollInterval},
	}
}

// Load reads an HCL configuration file. A missing file yields Default().
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath
	}
	if cfg.Display == nil {
		cfg.Display = &DisplayConfig{}
	}
	if cfg.Display.Locale == "" {
		cfg.Display.Locale = DefaultLocale
	}
	if cfg.Watch == nil {
		cfg.Watch = &WatchConfig{}
	}
	if cfg.Watch.PollInterval == "" {
		cfg.Watch.PollInterval = DefaultPollInterval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := language.Parse(c.Display.Locale); err != nil {
		return fmt.Errorf("invalid display locale %q: %w", c.Display.Locale, err)
	}
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid watch poll_interval %q: %w", c.Watch.PollInterval, err)
	}
	if d <= 0 {
		return fmt.Errorf("watch poll_interval must be positive, got %s", d)
	}
	return nil
}

// PollInterval returns the parsed watch poll interval.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultPollInterval)
	}
	return d
}

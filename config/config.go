// Package config reads the settlement service configuration.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress   = ":8080"
	defaultDatabasePath = "gym.db"
	defaultLogLevel     = "info"
)

// Config holds the service settings. Environment variables take precedence
// over command-line flags.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	DatabasePath string `env:"DATABASE_PATH"`
	LogLevel     string `env:"LOG_LEVEL"`

	// Printed on salary slips.
	GymName        string `env:"GYM_NAME" envDefault:"Gym"`
	GymAddress     string `env:"GYM_ADDRESS"`
	GymPhone       string `env:"GYM_PHONE"`
	CurrencySymbol string `env:"CURRENCY_SYMBOL" envDefault:"Rs."`
}

// Parse reads configuration from the environment and os.Args.
func Parse() (*Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs reads configuration from the environment and the given arguments.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabasePath := cfg.DatabasePath
	envLogLevel := cfg.LogLevel

	fs := flag.NewFlagSet("gym-settlement", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	fs.StringVar(&cfg.DatabasePath, "db", defaultDatabasePath, "SQLite database path (:memory: for in-memory)")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabasePath != "" {
		cfg.DatabasePath = envDatabasePath
	}
	if envLogLevel != "" {
		cfg.LogLevel = envLogLevel
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}

	return cfg, nil
}

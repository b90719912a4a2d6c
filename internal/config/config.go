package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	ProviderAPIURL     string
	ProviderAPISecret  string
	JWTSecret          string
	AdminPasswordHash  string
	VerifyTimeout      time.Duration
	VerifyPollInterval time.Duration
	WorkerPoolSize     int
	VerifyBatchSize    int
	ShutdownTimeout    time.Duration
}

const (
	defaultRunAddress         = ":8080"
	defaultProviderAPIURL     = "https://api.portone.io"
	defaultJWTSecret          = "change-me-in-production"
	defaultVerifyTimeout      = 5 * time.Second
	defaultVerifyPollInterval = 15 * time.Second
	defaultWorkerPoolSize     = 4
	defaultVerifyBatchSize    = 16
	defaultShutdownTimeout    = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		ProviderAPIURL:     getString(lookup, "PROVIDER_API_URL", defaultProviderAPIURL),
		ProviderAPISecret:  getString(lookup, "PROVIDER_API_SECRET", ""),
		JWTSecret:          getString(lookup, "JWT_SECRET", defaultJWTSecret),
		AdminPasswordHash:  getString(lookup, "ADMIN_PASSWORD_HASH", ""),
		VerifyTimeout:      getDuration(lookup, "VERIFY_TIMEOUT", defaultVerifyTimeout),
		VerifyPollInterval: getDuration(lookup, "VERIFY_POLL_INTERVAL", defaultVerifyPollInterval),
		WorkerPoolSize:     getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		VerifyBatchSize:    getInt(lookup, "VERIFY_BATCH_SIZE", defaultVerifyBatchSize),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("coursepay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		verifyTimeoutStr   = cfg.VerifyTimeout.String()
		pollIntervalStr    = cfg.VerifyPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.ProviderAPIURL, "provider-url", cfg.ProviderAPIURL, "Payment provider API base URL")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for validating identity tokens")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent verification workers")
	fs.StringVar(&verifyTimeoutStr, "verify-timeout", verifyTimeoutStr, "Timeout for a single provider verification call")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between verification sweeps")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.VerifyBatchSize, "verify-batch", cfg.VerifyBatchSize, "Maximum purchases per verification sweep")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.VerifyTimeout, err = time.ParseDuration(verifyTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid verify timeout: %w", err)
	}

	if cfg.VerifyPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = string(content)
	}

	if secretFile, ok := lookup("PROVIDER_API_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read provider secret file: %w", err)
		}
		cfg.ProviderAPISecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.VerifyBatchSize <= 0 {
		cfg.VerifyBatchSize = defaultVerifyBatchSize
	}

	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = defaultVerifyTimeout
	}

	if cfg.VerifyPollInterval <= 0 {
		cfg.VerifyPollInterval = defaultVerifyPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

// VerificationEnabled reports whether the payment provider collaborator is
// configured. Without a secret purchases still go through; verification is
// skipped and logged.
func (c *Config) VerificationEnabled() bool {
	return c.ProviderAPISecret != ""
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

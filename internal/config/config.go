package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// DefaultDirName is the default directory name for cipherkit data
	DefaultDirName = ".cipherkit"
	// AuditDBFileName is the SQLite database holding the call audit trail
	AuditDBFileName = "audit.db"

	// DefaultLogLevel keeps the bridge quiet unless something goes wrong
	DefaultLogLevel = "warn"
	// DefaultWorkers bounds concurrent bridge calls. Each password hash holds
	// 256 MiB while it runs.
	DefaultWorkers = 2
)

// Environment overrides
const (
	EnvHome     = "CIPHERKIT_HOME"
	EnvLogLevel = "CIPHERKIT_LOG_LEVEL"
	EnvWorkers  = "CIPHERKIT_WORKERS"
)

// Config holds the configuration for cipherkit
type Config struct {
	// DataDir is the directory where cipherkit stores its data
	DataDir string
	// AuditDBPath is the full path to the audit database
	AuditDBPath string
	// LogLevel is a zap level name (debug, info, warn, error)
	LogLevel string
	// Workers is the maximum number of bridge calls running at once
	Workers int
}

// DefaultDataDir returns $CIPHERKIT_HOME if set, otherwise ~/.cipherkit
func DefaultDataDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// New creates a Config from the default data directory and environment overrides
func New() (*Config, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}
	cfg := NewWithDataDir(dataDir)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewWithDataDir creates a new Config with a custom data directory and defaults
func NewWithDataDir(dataDir string) *Config {
	return &Config{
		DataDir:     dataDir,
		AuditDBPath: filepath.Join(dataDir, AuditDBFileName),
		LogLevel:    DefaultLogLevel,
		Workers:     DefaultWorkers,
	}
}

func (c *Config) applyEnv() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if raw := os.Getenv(EnvWorkers); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvWorkers, raw)
		}
		c.Workers = n
	}
	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist
// Sets permissions to 0700 (owner read/write/execute only)
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// AuditExists checks if the audit database exists
func (c *Config) AuditExists() bool {
	_, err := os.Stat(c.AuditDBPath)
	return err == nil
}

// RemoveAudit deletes the audit database with its WAL files. A missing
// database is not an error.
func (c *Config) RemoveAudit() error {
	for _, path := range []string{c.AuditDBPath, c.AuditDBPath + "-wal", c.AuditDBPath + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

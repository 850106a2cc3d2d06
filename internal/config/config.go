// Package config loads the per-repository settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/codebase-index/internal/discover"
)

// FileName is looked up in the repository root.
const FileName = ".codeindex.yaml"

// Defaults.
const (
	DefaultBatchSize = 5000
	DefaultDatabase  = ".codeindex/index.db"
	DefaultDebounce  = 500 * time.Millisecond
)

// Config holds user-overridable indexing settings.
type Config struct {
	// Parallelism is the total worker budget. Zero means the CPU count.
	Parallelism int `yaml:"parallelism"`

	// BatchSize is the number of symbols per write batch.
	BatchSize int `yaml:"batch_size"`

	// Ignore holds doublestar patterns excluded from discovery, in addition
	// to the built-in skip list and .codeindexignore.
	Ignore []string `yaml:"ignore"`

	// Database is the index path, relative to the repository root unless
	// absolute.
	Database string `yaml:"database"`

	// MaxFileSize skips larger source files when positive.
	MaxFileSize int64 `yaml:"max_file_size"`

	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// Debounce is a duration string such as "500ms".
	Debounce string `yaml:"debounce"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{}
}

// Load reads FileName from root. A missing file yields defaults; an
// unreadable or invalid one is an error.
func Load(root string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", c.BatchSize)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative, got %d", c.MaxFileSize)
	}
	if _, err := c.EffectiveDebounce(); err != nil {
		return err
	}
	return discover.ValidatePatterns(c.Ignore)
}

// EffectiveParallelism returns the configured worker budget or the CPU count.
func (c *Config) EffectiveParallelism() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.NumCPU()
}

// ParseWorkers is 60% of the budget, at least one.
func (c *Config) ParseWorkers() int {
	return max(1, c.EffectiveParallelism()*60/100)
}

// ReadWorkers is 20% of the budget, at least one.
func (c *Config) ReadWorkers() int {
	return max(1, c.EffectiveParallelism()*20/100)
}

// EffectiveBatchSize returns the configured batch size or DefaultBatchSize.
func (c *Config) EffectiveBatchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

// DatabasePath returns the absolute index path for a repository root.
func (c *Config) DatabasePath(root string) string {
	p := c.Database
	if p == "" {
		p = DefaultDatabase
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// EffectiveDebounce returns the watch debounce or DefaultDebounce.
func (c *Config) EffectiveDebounce() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return DefaultDebounce, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("watch.debounce must be positive, got %s", d)
	}
	return d, nil
}

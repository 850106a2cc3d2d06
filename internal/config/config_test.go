package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EffectiveBatchSize() != DefaultBatchSize {
		t.Errorf("batch size = %d", cfg.EffectiveBatchSize())
	}
	if cfg.EffectiveParallelism() != runtime.NumCPU() {
		t.Errorf("parallelism = %d, want %d", cfg.EffectiveParallelism(), runtime.NumCPU())
	}
	if got, want := cfg.DatabasePath(dir), filepath.Join(dir, ".codeindex", "index.db"); got != want {
		t.Errorf("DatabasePath = %q, want %q", got, want)
	}
	if d, err := cfg.EffectiveDebounce(); err != nil || d != DefaultDebounce {
		t.Errorf("debounce = %v, %v", d, err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := writeConfig(t, `
parallelism: 10
batch_size: 200
ignore:
  - "**/testdata/**"
  - "*.gen.go"
database: /var/lib/index.db
max_file_size: 1048576
watch:
  debounce: 2s
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ParseWorkers() != 6 || cfg.ReadWorkers() != 2 {
		t.Errorf("workers = parse %d read %d, want 6/2", cfg.ParseWorkers(), cfg.ReadWorkers())
	}
	if cfg.EffectiveBatchSize() != 200 {
		t.Errorf("batch size = %d", cfg.EffectiveBatchSize())
	}
	if len(cfg.Ignore) != 2 || cfg.Ignore[1] != "*.gen.go" {
		t.Errorf("ignore = %v", cfg.Ignore)
	}
	if cfg.DatabasePath(dir) != "/var/lib/index.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath(dir))
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("max file size = %d", cfg.MaxFileSize)
	}
	if d, _ := cfg.EffectiveDebounce(); d != 2*time.Second {
		t.Errorf("debounce = %v", d)
	}
}

func TestWorkerSplitMinimum(t *testing.T) {
	tests := []struct {
		parallelism, parse, read int
	}{
		{1, 1, 1},
		{2, 1, 1},
		{5, 3, 1},
		{16, 9, 3},
	}
	for _, tt := range tests {
		cfg := &Config{Parallelism: tt.parallelism}
		if cfg.ParseWorkers() != tt.parse || cfg.ReadWorkers() != tt.read {
			t.Errorf("parallelism %d: parse %d read %d, want %d/%d",
				tt.parallelism, cfg.ParseWorkers(), cfg.ReadWorkers(), tt.parse, tt.read)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"yaml", "parallelism: [valid: yaml"},
		{"negative parallelism", "parallelism: -1"},
		{"negative batch", "batch_size: -5"},
		{"debounce", "watch:\n  debounce: soon"},
		{"zero debounce", "watch:\n  debounce: 0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadBadIgnorePattern(t *testing.T) {
	_, err := Load(writeConfig(t, "ignore:\n  - \"[oops\"\n"))
	if !errors.Is(err, doublestar.ErrBadPattern) {
		t.Errorf("err = %v, want ErrBadPattern", err)
	}
}

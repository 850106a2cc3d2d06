// Command codebase-index builds and queries a symbol index of a repository.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-index/internal/config"
	"github.com/DeusData/codebase-index/internal/pipeline"
	"github.com/DeusData/codebase-index/internal/store"
)

var version = "dev"

var (
	flagDB          string
	flagParallelism int
	flagBatchSize   int
	flagIgnore      []string
	flagVerbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codebase-index",
	Short:         "Incremental symbol and call-graph index for source repositories",
	Long:          "codebase-index parses a repository with tree-sitter, resolves calls, implementations and definitions across files, and keeps the result in a SQLite index that is updated incrementally.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: "+config.DefaultDatabase+" under the repository root)")
	rootCmd.PersistentFlags().IntVar(&flagParallelism, "parallelism", 0, "total worker budget (default: CPU count)")
	rootCmd.PersistentFlags().IntVar(&flagBatchSize, "batch-size", 0, "symbols per database write batch")
	rootCmd.PersistentFlags().StringSliceVar(&flagIgnore, "ignore", nil, "extra doublestar ignore patterns")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(indexCmd, watchCmd, serveCmd, statusCmd)
}

// session is an opened repository: its settings, store and pipeline.
type session struct {
	root  string
	cfg   *config.Config
	store *store.Store
	pipe  *pipeline.Pipeline
}

// openSession loads the repository config, applies flag overrides, opens
// the store and loads the persisted index.
func openSession(ctx context.Context, cmd *cobra.Command, args []string) (*session, error) {
	root, err := resolveRoot(args)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = flagDB
	}
	if flags.Changed("parallelism") {
		cfg.Parallelism = flagParallelism
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = flagBatchSize
	}
	if flags.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, flagIgnore...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DatabasePath(root))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	p, err := pipeline.New(pipeline.ConfigFrom(root, cfg), st)
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := p.Load(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return &session{root: root, cfg: cfg, store: st, pipe: p}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// resolveRoot returns the absolute repository directory from args.
func resolveRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

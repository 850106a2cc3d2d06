package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-index/internal/discover"
	"github.com/DeusData/codebase-index/internal/watcher"
)

var flagDebounce string

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index once, then re-index on every settled burst of file changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagDebounce, "debounce", "", "quiet period before re-indexing (default 500ms)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	if cmd.Flags().Changed("debounce") {
		s.cfg.Watch.Debounce = flagDebounce
	}
	debounce, err := s.cfg.EffectiveDebounce()
	if err != nil {
		return err
	}

	sum, err := s.pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("initial index: %w", err)
	}
	printSummary(s.root, s.store.Path(), sum)

	w, err := watcher.New(s.root, &watcher.Options{
		Debounce: debounce,
		Discover: &discover.Options{Ignore: s.cfg.Ignore, MaxFileSize: s.cfg.MaxFileSize},
	}, func(ctx context.Context) error {
		sum, err := s.pipe.Run(ctx)
		if err != nil {
			return err
		}
		slog.Info("watch.reindexed", "indexed", sum.Indexed, "removed", sum.Removed, "failed", sum.Failed)
		printSummary(s.root, s.store.Path(), sum)
		return nil
	})
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	return w.Run(ctx)
}

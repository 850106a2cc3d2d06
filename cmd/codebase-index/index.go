package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-index/internal/pipeline"
)

var flagJSON bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository incrementally",
	Long:  "Discovers source files, skips those whose content hash is unchanged, and re-indexes the rest in one transaction.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagJSON, "json", false, "print the run summary as JSON")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	printSummary(s.root, s.store.Path(), sum)
	return nil
}

func printSummary(root, dbPath string, sum *pipeline.Summary) {
	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", root, sum.Timings["total"].Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  files: %d discovered, %d indexed, %d unchanged, %d removed, %d failed\n",
		sum.Discovered, sum.Indexed, sum.Unchanged, sum.Removed, sum.Failed)
	fmt.Fprintf(os.Stderr, "  symbols: +%d -%d, relationships resolved: %d\n",
		sum.SymbolsAdded, sum.SymbolsRemoved, sum.RelationshipsResolved)
	if st := sum.Resolve; st.TotalProcessed > 0 {
		fmt.Fprintf(os.Stderr, "  unresolved: %d no candidates, %d ambiguous, %d missing owner\n",
			st.NoCandidates, st.Ambiguous, st.MissingOwner)
	}
	for _, e := range sum.Errors() {
		fmt.Fprintf(os.Stderr, "  error: %s\n", e)
	}
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
}

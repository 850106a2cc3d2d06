package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeusData/codebase-index/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve the index to MCP clients over stdio",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	tools.Version = version
	if err := tools.NewServer(s.pipe, s.store).Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

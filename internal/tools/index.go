package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleIndexRepository(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.pipe.Run(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	symbols, _ := s.store.CountSymbols(ctx)
	rels, _ := s.store.CountRelationships(ctx)
	return jsonResult(map[string]any{
		"root":          s.pipe.Root(),
		"summary":       sum,
		"errors":        sum.Errors(),
		"symbols":       symbols,
		"relationships": rels,
	}), nil
}

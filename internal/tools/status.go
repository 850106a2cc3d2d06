package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleIndexStatus(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := s.store.GetSchema(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("schema: %v", err)), nil
	}
	data := map[string]any{
		"root":   s.pipe.Root(),
		"schema": schema,
	}
	if sum := s.pipe.LastSummary(); sum != nil {
		data["last_run"] = sum
	}
	return jsonResult(data), nil
}

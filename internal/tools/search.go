package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-index/internal/store"
	"github.com/DeusData/codebase-index/internal/types"
)

func (s *Server) handleFindSymbol(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	params := store.SearchParams{
		NamePattern: getStringArg(args, "name_pattern"),
		Kind:        types.SymbolKind(getStringArg(args, "kind")),
		Language:    types.LanguageID(getStringArg(args, "language")),
		FilePattern: getStringArg(args, "file_pattern"),
		Limit:       clamp(getIntArg(args, "limit", 20), 1, 200),
		Offset:      max(0, getIntArg(args, "offset", 0)),
	}
	output, err := s.store.Search(ctx, params)
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	type resultEntry struct {
		symbolEntry
		InDegree  int `json:"in_degree"`
		OutDegree int `json:"out_degree"`
	}
	results := make([]resultEntry, 0, len(output.Results))
	for _, r := range output.Results {
		results = append(results, resultEntry{
			symbolEntry: s.newSymbolEntry(r.Symbol),
			InDegree:    r.InDegree,
			OutDegree:   r.OutDegree,
		})
	}

	return jsonResult(map[string]any{
		"total":    output.Total,
		"limit":    params.Limit,
		"offset":   params.Offset,
		"has_more": params.Offset+len(results) < output.Total,
		"results":  results,
	}), nil
}

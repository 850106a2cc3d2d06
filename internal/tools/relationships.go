package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-index/internal/store"
	"github.com/DeusData/codebase-index/internal/types"
)

type hopEntry struct {
	Hop     int           `json:"hop"`
	Symbols []symbolEntry `json:"symbols"`
}

type edgeEntry struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
	Line uint32 `json:"line,omitempty"`
}

func (s *Server) handleGetRelationships(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	root, matches, err := s.lookupSymbol(ctx, args)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.notFound(ctx, getStringArg(args, "name"), err), nil
		}
		return errResult(err.Error()), nil
	}

	direction := getStringArg(args, "direction")
	if direction == "" {
		direction = string(store.Outbound)
	}
	var dirs []store.Direction
	switch direction {
	case "outbound":
		dirs = []store.Direction{store.Outbound}
	case "inbound":
		dirs = []store.Direction{store.Inbound}
	case "both":
		dirs = []store.Direction{store.Outbound, store.Inbound}
	default:
		return errResult(fmt.Sprintf("invalid direction: %s", direction)), nil
	}
	var kinds []types.RelationKind
	for _, k := range getStringsArg(args, "kinds") {
		kinds = append(kinds, types.RelationKind(k))
	}
	depth := clamp(getIntArg(args, "depth", 1), 1, 5)

	var visited []*store.SymbolHop
	var edges []store.EdgeInfo
	for _, dir := range dirs {
		res, err := s.store.BFS(ctx, root.ID, dir, kinds, depth, 200)
		if err != nil {
			return errResult(fmt.Sprintf("bfs err: %v", err)), nil
		}
		visited = append(visited, res.Visited...)
		edges = append(edges, res.Edges...)
	}

	data := map[string]any{
		"root":      s.newSymbolEntry(root),
		"direction": direction,
		"depth":     depth,
		"hops":      s.buildHops(visited),
		"edges":     buildEdges(edges),
	}
	if len(matches) > 1 {
		others := make([]symbolEntry, 0, len(matches)-1)
		for _, m := range matches[1:] {
			others = append(others, s.newSymbolEntry(m))
		}
		data["other_matches"] = others
	}
	return jsonResult(data), nil
}

// buildHops groups visited symbols by hop distance, dropping repeats seen
// in both directions.
func (s *Server) buildHops(visited []*store.SymbolHop) []hopEntry {
	var hops []hopEntry
	seen := make(map[types.SymbolID]bool, len(visited))
	for _, v := range visited {
		if seen[v.Symbol.ID] {
			continue
		}
		seen[v.Symbol.ID] = true
		for len(hops) < v.Hop {
			hops = append(hops, hopEntry{Hop: len(hops) + 1})
		}
		hops[v.Hop-1].Symbols = append(hops[v.Hop-1].Symbols, s.newSymbolEntry(v.Symbol))
	}
	return hops
}

func buildEdges(edges []store.EdgeInfo) []edgeEntry {
	out := make([]edgeEntry, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeEntry{From: e.FromName, To: e.ToName, Kind: string(e.Kind), Line: e.Line})
	}
	return out
}

// notFound suggests symbols whose names contain name.
func (s *Server) notFound(ctx context.Context, name string, err error) *mcp.CallToolResult {
	if name == "" {
		return errResult(err.Error())
	}
	out, searchErr := s.store.Search(ctx, store.SearchParams{NamePattern: "(?i)" + regexp.QuoteMeta(name), Limit: 5})
	if searchErr != nil || len(out.Results) == 0 {
		return errResult(err.Error())
	}
	suggestions := make([]symbolEntry, 0, len(out.Results))
	for _, r := range out.Results {
		suggestions = append(suggestions, s.newSymbolEntry(r.Symbol))
	}
	return jsonResult(map[string]any{
		"error":       err.Error(),
		"suggestions": suggestions,
	})
}

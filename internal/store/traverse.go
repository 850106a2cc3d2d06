package store

import (
	"context"

	"github.com/DeusData/codebase-index/internal/types"
)

// Direction selects which end of an edge a traversal follows.
type Direction string

const (
	Outbound Direction = "outbound" // from_id -> to_id
	Inbound  Direction = "inbound"  // to_id -> from_id
)

// TraverseResult holds BFS traversal results.
type TraverseResult struct {
	Root    *types.Symbol
	Visited []*SymbolHop
	Edges   []EdgeInfo
}

// SymbolHop is a symbol with its BFS hop distance.
type SymbolHop struct {
	Symbol *types.Symbol
	Hop    int
}

// EdgeInfo is a simplified edge for output.
type EdgeInfo struct {
	FromName string
	ToName   string
	Kind     types.RelationKind
	Line     uint32
}

type bfsQueue struct {
	id  types.SymbolID
	hop int
}

// BFS performs breadth-first traversal following edges of the given kinds
// (all kinds when empty). maxDepth caps the depth, maxResults caps the
// number of visited symbols.
func (s *Store) BFS(ctx context.Context, start types.SymbolID, dir Direction, kinds []types.RelationKind, maxDepth, maxResults int) (*TraverseResult, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxResults <= 0 {
		maxResults = 200
	}

	root, err := s.FindSymbolByID(ctx, start)
	if err != nil {
		return nil, err
	}
	result := &TraverseResult{Root: root}
	visited := map[types.SymbolID]int{start: 0}
	symCache := map[types.SymbolID]*types.Symbol{start: root}
	queue := []bfsQueue{{start, 0}}

	for len(queue) > 0 && len(result.Visited) < maxResults {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := queue[0]
		queue = queue[1:]
		if item.hop >= maxDepth {
			continue
		}

		var edges []types.Relationship
		if dir == Outbound {
			edges, err = s.RelationshipsFrom(ctx, item.id, kinds...)
		} else {
			edges, err = s.RelationshipsTo(ctx, item.id, kinds...)
		}
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			nextID := e.ToID
			if dir == Inbound {
				nextID = e.FromID
			}
			if _, seen := visited[nextID]; !seen {
				visited[nextID] = item.hop + 1
				next, lookupErr := s.FindSymbolByID(ctx, nextID)
				if lookupErr != nil {
					continue
				}
				symCache[nextID] = next
				result.Visited = append(result.Visited, &SymbolHop{Symbol: next, Hop: item.hop + 1})
				queue = append(queue, bfsQueue{nextID, item.hop + 1})
				if len(result.Visited) >= maxResults {
					break
				}
			}

			info := EdgeInfo{
				FromName: s.symbolName(ctx, symCache, e.FromID),
				ToName:   s.symbolName(ctx, symCache, e.ToID),
				Kind:     e.Kind,
			}
			if e.Metadata != nil {
				info.Line = e.Metadata.Line
			}
			result.Edges = append(result.Edges, info)
		}
	}
	return result, nil
}

// symbolName returns the name for a symbol id, using the cache first.
func (s *Store) symbolName(ctx context.Context, cache map[types.SymbolID]*types.Symbol, id types.SymbolID) string {
	if sym, ok := cache[id]; ok {
		return sym.Name
	}
	sym, err := s.FindSymbolByID(ctx, id)
	if err != nil {
		return ""
	}
	cache[id] = sym
	return sym.Name
}

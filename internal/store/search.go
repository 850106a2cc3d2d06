package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

// SearchParams defines structured symbol search parameters.
type SearchParams struct {
	NamePattern string // regex matched against the name and module path
	Kind        types.SymbolKind
	Language    types.LanguageID
	FilePattern string // glob, converted to LIKE
	Limit       int
	Offset      int
}

// SearchResult is a symbol with edge degree info.
type SearchResult struct {
	Symbol    *types.Symbol
	InDegree  int
	OutDegree int
}

// SearchOutput wraps search results with total count for pagination.
type SearchOutput struct {
	Results []*SearchResult
	Total   int
}

// Search executes a parameterized symbol query with pagination support.
func (s *Store) Search(ctx context.Context, params SearchParams) (*SearchOutput, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}

	var conditions []string
	var args []any
	if params.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(params.Kind))
	}
	if params.Language != "" {
		conditions = append(conditions, "language = ?")
		args = append(args, string(params.Language))
	}
	if params.FilePattern != "" {
		conditions = append(conditions, "file_path LIKE ?")
		args = append(args, globToLike(params.FilePattern))
	}
	query := `SELECT ` + symbolCols + ` FROM symbols`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	syms, err := s.querySymbols(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if params.NamePattern != "" {
		if syms, err = filterByNamePattern(syms, params.NamePattern); err != nil {
			return nil, err
		}
	}

	total := len(syms)
	start := min(params.Offset, total)
	end := min(start+params.Limit, total)

	out := &SearchOutput{Total: total}
	for _, sym := range syms[start:end] {
		sr := &SearchResult{Symbol: sym}
		if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships WHERE to_id=?", sym.ID).Scan(&sr.InDegree); err != nil {
			return nil, fmt.Errorf("search in-degree: %w", err)
		}
		if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships WHERE from_id=?", sym.ID).Scan(&sr.OutDegree); err != nil {
			return nil, fmt.Errorf("search out-degree: %w", err)
		}
		out.Results = append(out.Results, sr)
	}
	return out, nil
}

// globToLike converts a glob pattern to SQL LIKE pattern.
func globToLike(pattern string) string {
	result := strings.ReplaceAll(pattern, "**", "%")
	result = strings.ReplaceAll(result, "*", "%")
	result = strings.ReplaceAll(result, "?", "_")
	return result
}

// filterByNamePattern filters symbols by a regex name pattern.
func filterByNamePattern(syms []*types.Symbol, pattern string) ([]*types.Symbol, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern: %w", err)
	}
	var filtered []*types.Symbol
	for _, sym := range syms {
		if re.MatchString(sym.Name) || (sym.ModulePath != "" && re.MatchString(sym.ModulePath)) {
			filtered = append(filtered, sym)
		}
	}
	return filtered, nil
}

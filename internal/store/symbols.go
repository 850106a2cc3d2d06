package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

const symbolCols = `id, name, kind, file_id, file_path, start_line, start_col, end_line, end_col,
	signature, doc, visibility, module_path, scope_kind, scope_parent, language`

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numSymbolCols = 16
const symbolsBatchSize = 999 / numSymbolCols // = 62

// InsertSymbols inserts symbols in batched multi-row INSERTs. An existing
// row with the same id is replaced.
func (s *Store) InsertSymbols(ctx context.Context, syms []types.Symbol) error {
	for i := 0; i < len(syms); i += symbolsBatchSize {
		end := min(i+symbolsBatchSize, len(syms))
		if err := s.insertSymbolChunk(ctx, syms[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertSymbolChunk(ctx context.Context, batch []types.Symbol) error {
	var sb strings.Builder
	sb.WriteString(`INSERT OR REPLACE INTO symbols (` + symbolCols + `) VALUES `)

	args := make([]any, 0, len(batch)*numSymbolCols)
	for i, sym := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, sym.ID, sym.Name, string(sym.Kind), sym.FileID, sym.FilePath,
			sym.Range.StartLine, sym.Range.StartColumn, sym.Range.EndLine, sym.Range.EndColumn,
			sym.Signature, sym.Doc, int(sym.Visibility), sym.ModulePath,
			string(sym.Scope.Kind), sym.Scope.Parent, string(sym.Language))
	}
	if _, err := s.q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert symbol batch: %w", err)
	}
	return nil
}

// FindSymbolByID returns the symbol with id, or ErrNotFound.
func (s *Store) FindSymbolByID(ctx context.Context, id types.SymbolID) (*types.Symbol, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+symbolCols+` FROM symbols WHERE id=?`, id)
	sym, err := scanSymbol(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find symbol %d: %w", id, err)
	}
	return sym, nil
}

// FindSymbolsByIDs batch-loads symbols by id. Missing ids are absent from
// the map.
func (s *Store) FindSymbolsByIDs(ctx context.Context, ids []types.SymbolID) (map[types.SymbolID]*types.Symbol, error) {
	result := make(map[types.SymbolID]*types.Symbol, len(ids))
	const batchSize = 998 // leave room under 999 limit
	for i := 0; i < len(ids); i += batchSize {
		chunk := ids[i:min(i+batchSize, len(ids))]
		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for j, id := range chunk {
			placeholders[j] = "?"
			args[j] = id
		}
		q := `SELECT ` + symbolCols + ` FROM symbols WHERE id IN (` + strings.Join(placeholders, ",") + `)`
		if err := func() error {
			rows, err := s.q.QueryContext(ctx, q, args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			syms, err := scanSymbols(rows)
			if err != nil {
				return err
			}
			for _, sym := range syms {
				result[sym.ID] = sym
			}
			return nil
		}(); err != nil {
			return nil, fmt.Errorf("find symbols by ids: %w", err)
		}
	}
	return result, nil
}

// FindSymbolsByName returns every symbol called name, ordered by id.
func (s *Store) FindSymbolsByName(ctx context.Context, name string) ([]*types.Symbol, error) {
	return s.querySymbols(ctx, `SELECT `+symbolCols+` FROM symbols WHERE name=? ORDER BY id`, name)
}

// FindSymbolsByFile returns the symbols of one file ordered by position.
func (s *Store) FindSymbolsByFile(ctx context.Context, fileID types.FileID) ([]*types.Symbol, error) {
	return s.querySymbols(ctx, `SELECT `+symbolCols+` FROM symbols WHERE file_id=? ORDER BY start_line, start_col, id`, fileID)
}

// AllSymbols returns every symbol ordered by id.
func (s *Store) AllSymbols(ctx context.Context) ([]*types.Symbol, error) {
	return s.querySymbols(ctx, `SELECT `+symbolCols+` FROM symbols ORDER BY id`)
}

// CountSymbols returns the number of stored symbols.
func (s *Store) CountSymbols(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&n)
	return n, err
}

func (s *Store) querySymbols(ctx context.Context, query string, args ...any) ([]*types.Symbol, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSymbol(row scanner) (*types.Symbol, error) {
	var sym types.Symbol
	var kind, scopeKind, language string
	var vis int
	err := row.Scan(&sym.ID, &sym.Name, &kind, &sym.FileID, &sym.FilePath,
		&sym.Range.StartLine, &sym.Range.StartColumn, &sym.Range.EndLine, &sym.Range.EndColumn,
		&sym.Signature, &sym.Doc, &vis, &sym.ModulePath, &scopeKind, &sym.Scope.Parent, &language)
	if err != nil {
		return nil, err
	}
	sym.Kind = types.SymbolKind(kind)
	sym.Visibility = types.Visibility(vis)
	sym.Scope.Kind = types.ScopeKind(scopeKind)
	sym.Language = types.LanguageID(language)
	return &sym, nil
}

func scanSymbols(rows *sql.Rows) ([]*types.Symbol, error) {
	var result []*types.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sym)
	}
	return result, rows.Err()
}

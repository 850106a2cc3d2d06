package store

import (
	"context"
	"fmt"

	"github.com/DeusData/codebase-index/internal/types"
)

// ReplaceImports stores the import list of one file, dropping the old one.
func (s *Store) ReplaceImports(ctx context.Context, fileID types.FileID, imports []types.Import) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM imports WHERE file_id=?", fileID); err != nil {
		return fmt.Errorf("clear imports: %w", err)
	}
	for i, imp := range imports {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO imports (file_id, seq, path, name, alias, is_glob, is_type_only) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, i, imp.Path, imp.Name, imp.Alias, imp.IsGlob, imp.IsTypeOnly)
		if err != nil {
			return fmt.Errorf("insert import %s: %w", imp.Path, err)
		}
	}
	return nil
}

// AllImports returns the imports of every file in declaration order.
func (s *Store) AllImports(ctx context.Context) (map[types.FileID][]types.Import, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT file_id, path, name, alias, is_glob, is_type_only FROM imports ORDER BY file_id, seq")
	if err != nil {
		return nil, fmt.Errorf("all imports: %w", err)
	}
	defer rows.Close()
	result := make(map[types.FileID][]types.Import)
	for rows.Next() {
		var imp types.Import
		if err := rows.Scan(&imp.FileID, &imp.Path, &imp.Name, &imp.Alias, &imp.IsGlob, &imp.IsTypeOnly); err != nil {
			return nil, err
		}
		result[imp.FileID] = append(result[imp.FileID], imp)
	}
	return result, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DeusData/codebase-index/internal/types"
)

// UpsertFile stores a file's change-tracking record. The path is unique, so
// a record for the same path under a different id replaces the old one.
func (s *Store) UpsertFile(ctx context.Context, f types.FileInfo) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM files WHERE path=? AND id<>?", f.Path, f.ID); err != nil {
		return fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO files (id, path, hash, language, indexed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path=excluded.path, hash=excluded.hash,
			language=excluded.language, indexed_at=excluded.indexed_at`,
		f.ID, f.Path, f.Hash, string(f.Language), f.IndexedAt)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	return nil
}

// FileByPath returns the record for path, or ErrNotFound.
func (s *Store) FileByPath(ctx context.Context, path string) (*types.FileInfo, error) {
	row := s.q.QueryRowContext(ctx, "SELECT id, path, hash, language, indexed_at FROM files WHERE path=?", path)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// Files returns all file records ordered by id.
func (s *Store) Files(ctx context.Context) ([]types.FileInfo, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, path, hash, language, indexed_at FROM files ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var result []types.FileInfo
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

// FileHashes returns path -> content hash for every indexed file.
func (s *Store) FileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT path, hash FROM files")
	if err != nil {
		return nil, fmt.Errorf("get file hashes: %w", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		result[path] = hash
	}
	return result, rows.Err()
}

// RemoveFile deletes a file with its symbols, imports and every relationship
// touching one of its symbols.
func (s *Store) RemoveFile(ctx context.Context, id types.FileID) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM files WHERE id=?", id); err != nil {
		return fmt.Errorf("remove file %d: %w", id, err)
	}
	return nil
}

func scanFile(row scanner) (*types.FileInfo, error) {
	var f types.FileInfo
	var language string
	if err := row.Scan(&f.ID, &f.Path, &f.Hash, &language, &f.IndexedAt); err != nil {
		return nil, err
	}
	f.Language = types.LanguageID(language)
	return &f, nil
}

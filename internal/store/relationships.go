package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

// relsBatchSize is the max rows per batch INSERT for relationships (4 cols × 240 = 960 vars < 999).
const relsBatchSize = 240

// InsertRelationships inserts resolved relationships in batched multi-row INSERTs.
func (s *Store) InsertRelationships(ctx context.Context, rels []types.Relationship) error {
	for i := 0; i < len(rels); i += relsBatchSize {
		end := min(i+relsBatchSize, len(rels))
		if err := s.insertRelationshipChunk(ctx, rels[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertRelationshipChunk(ctx context.Context, batch []types.Relationship) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO relationships (from_id, to_id, kind, metadata) VALUES `)

	args := make([]any, 0, len(batch)*4)
	for i, r := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?)")
		args = append(args, r.FromID, r.ToID, string(r.Kind), marshalMetadata(r.Metadata))
	}
	if _, err := s.q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert relationship batch: %w", err)
	}
	return nil
}

// RemoveRelationshipsFromFile deletes the edges leaving the symbols of one
// file. The symbols and the edges into them stay.
func (s *Store) RemoveRelationshipsFromFile(ctx context.Context, fileID types.FileID) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM relationships WHERE from_id IN (SELECT id FROM symbols WHERE file_id=?)", fileID)
	if err != nil {
		return fmt.Errorf("remove relationships from file %d: %w", fileID, err)
	}
	return nil
}

// RelationshipsFrom returns outgoing edges of id, optionally limited to kinds.
func (s *Store) RelationshipsFrom(ctx context.Context, id types.SymbolID, kinds ...types.RelationKind) ([]types.Relationship, error) {
	return s.queryRelationships(ctx, "from_id", id, kinds)
}

// RelationshipsTo returns incoming edges of id, optionally limited to kinds.
func (s *Store) RelationshipsTo(ctx context.Context, id types.SymbolID, kinds ...types.RelationKind) ([]types.Relationship, error) {
	return s.queryRelationships(ctx, "to_id", id, kinds)
}

// AllRelationships returns every edge in insertion order.
func (s *Store) AllRelationships(ctx context.Context) ([]types.Relationship, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT from_id, to_id, kind, metadata FROM relationships ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("all relationships: %w", err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

// CountRelationships returns the number of stored edges.
func (s *Store) CountRelationships(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships").Scan(&n)
	return n, err
}

func (s *Store) queryRelationships(ctx context.Context, col string, id types.SymbolID, kinds []types.RelationKind) ([]types.Relationship, error) {
	query := "SELECT from_id, to_id, kind, metadata FROM relationships WHERE " + col + "=?"
	args := []any{id}
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " AND kind IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY id"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("relationships by %s: %w", col, err)
	}
	defer rows.Close()
	return scanRelationships(rows)
}

func scanRelationships(rows *sql.Rows) ([]types.Relationship, error) {
	var result []types.Relationship
	for rows.Next() {
		var r types.Relationship
		var kind, meta string
		if err := rows.Scan(&r.FromID, &r.ToID, &kind, &meta); err != nil {
			return nil, err
		}
		r.Kind = types.RelationKind(kind)
		r.Metadata = unmarshalMetadata(meta)
		result = append(result, r)
	}
	return result, rows.Err()
}

package store

import (
	"context"
	"fmt"
)

// SchemaInfo contains index statistics.
type SchemaInfo struct {
	Files             int          `json:"files"`
	Symbols           int          `json:"symbols"`
	Relationships     int          `json:"relationships"`
	SymbolKinds       []LabelCount `json:"symbol_kinds"`
	RelationshipKinds []LabelCount `json:"relationship_kinds"`
	Languages         []LabelCount `json:"languages"`
	IndexedAt         string       `json:"indexed_at,omitempty"`
	Root              string       `json:"root,omitempty"`
}

// LabelCount is a label with its count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GetSchema returns statistics about the stored index.
func (s *Store) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	info := &SchemaInfo{}
	for _, c := range []struct {
		table string
		dst   *int
	}{{"files", &info.Files}, {"symbols", &info.Symbols}, {"relationships", &info.Relationships}} {
		if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	var err error
	if info.SymbolKinds, err = s.countBy(ctx, "symbols", "kind"); err != nil {
		return nil, err
	}
	if info.RelationshipKinds, err = s.countBy(ctx, "relationships", "kind"); err != nil {
		return nil, err
	}
	if info.Languages, err = s.countBy(ctx, "files", "language"); err != nil {
		return nil, err
	}
	info.IndexedAt, _ = s.GetMeta(ctx, MetaIndexedAt)
	info.Root, _ = s.GetMeta(ctx, MetaRoot)
	return info, nil
}

func (s *Store) countBy(ctx context.Context, table, col string) ([]LabelCount, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+col+", COUNT(*) AS cnt FROM "+table+" GROUP BY "+col+" ORDER BY cnt DESC, "+col)
	if err != nil {
		return nil, fmt.Errorf("schema %s.%s: %w", table, col, err)
	}
	defer rows.Close()
	var counts []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}

package store

import (
	"context"
	"fmt"

	"github.com/DeusData/codebase-index/internal/types"
)

// Batch is one unit of index writes: files with their symbols, imports and
// the relationships resolved for them.
type Batch struct {
	Files         []types.FileInfo
	Symbols       []types.Symbol
	Relationships []types.Relationship
	Imports       map[types.FileID][]types.Import
}

// WriteBatch applies b. Files go first so symbol foreign keys hold, and
// relationships go last so both endpoints exist. Symbols are flushed in
// chunks of batchSize; zero means one chunk.
func (s *Store) WriteBatch(ctx context.Context, b *Batch, batchSize int) error {
	for _, f := range b.Files {
		if err := s.UpsertFile(ctx, f); err != nil {
			return err
		}
	}
	if batchSize <= 0 {
		batchSize = len(b.Symbols)
	}
	for i := 0; i < len(b.Symbols); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.InsertSymbols(ctx, b.Symbols[i:min(i+batchSize, len(b.Symbols))]); err != nil {
			return err
		}
	}
	for fid, imps := range b.Imports {
		if err := s.ReplaceImports(ctx, fid, imps); err != nil {
			return err
		}
	}
	return s.InsertRelationships(ctx, b.Relationships)
}

// LoadIndexData reads the whole index into memory.
func (s *Store) LoadIndexData(ctx context.Context) (*types.IndexData, error) {
	d := types.NewIndexData()

	files, err := s.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	for _, f := range files {
		d.Files[f.Path] = f.ID
		d.FileInfos[f.ID] = f
	}

	syms, err := s.AllSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	d.Symbols = make([]types.Symbol, 0, len(syms))
	for _, sym := range syms {
		d.Symbols = append(d.Symbols, *sym)
	}

	if d.Relationships, err = s.AllRelationships(ctx); err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	imports, err := s.AllImports(ctx)
	if err != nil {
		return nil, fmt.Errorf("load imports: %w", err)
	}
	for fid, imps := range imports {
		d.Imports[fid] = imps
	}

	if d.NextFileID, d.NextSymbolID, err = s.Counters(ctx); err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	// Counters never fall behind stored ids, even in a database written by
	// something other than SaveIndexData.
	for id := range d.FileInfos {
		if id >= d.NextFileID {
			d.NextFileID = id + 1
		}
	}
	for _, sym := range d.Symbols {
		if sym.ID >= d.NextSymbolID {
			d.NextSymbolID = sym.ID + 1
		}
	}
	return d, nil
}

// SaveIndexData replaces the stored index with d in one transaction.
func (s *Store) SaveIndexData(ctx context.Context, d *types.IndexData) error {
	return s.WithTransaction(ctx, func(tx *Store) error {
		for _, table := range []string{"relationships", "imports", "symbols", "files"} {
			if _, err := tx.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		b := &Batch{
			Symbols:       d.Symbols,
			Relationships: d.Relationships,
			Imports:       d.Imports,
		}
		for _, f := range d.FileInfos {
			b.Files = append(b.Files, f)
		}
		if err := tx.WriteBatch(ctx, b, 0); err != nil {
			return err
		}
		return tx.SetCounters(ctx, d.NextFileID, d.NextSymbolID)
	})
}

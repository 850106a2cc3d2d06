package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/DeusData/codebase-index/internal/types"
)

// Meta keys.
const (
	MetaRoot         = "root"
	MetaIndexedAt    = "indexed_at"
	MetaNextFileID   = "next_file_id"
	MetaNextSymbolID = "next_symbol_id"
)

// SetMeta stores a key/value pair.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// GetMeta returns the value stored under key, or ErrNotFound.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.q.QueryRowContext(ctx, "SELECT value FROM meta WHERE key=?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return v, nil
}

// SetCounters persists the id counters so ids are never reused by a later run.
func (s *Store) SetCounters(ctx context.Context, nextFile types.FileID, nextSymbol types.SymbolID) error {
	if err := s.SetMeta(ctx, MetaNextFileID, strconv.FormatUint(uint64(nextFile), 10)); err != nil {
		return err
	}
	return s.SetMeta(ctx, MetaNextSymbolID, strconv.FormatUint(uint64(nextSymbol), 10))
}

// Counters returns the persisted id counters. A fresh database yields 1, 1.
func (s *Store) Counters(ctx context.Context) (types.FileID, types.SymbolID, error) {
	nf, err := s.counter(ctx, MetaNextFileID)
	if err != nil {
		return 0, 0, err
	}
	ns, err := s.counter(ctx, MetaNextSymbolID)
	if err != nil {
		return 0, 0, err
	}
	return types.FileID(nf), types.SymbolID(ns), nil
}

func (s *Store) counter(ctx context.Context, key string) (uint32, error) {
	v, err := s.GetMeta(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("meta %s: %w", key, err)
	}
	if n == 0 {
		n = 1
	}
	return uint32(n), nil
}

// Package pipeline indexes a repository incrementally.
//
// A run moves through DISCOVER, READ, CLEANUP, PARSE, COLLECT, CONTEXT,
// RESOLVE and WRITE. Only files whose content hash changed are parsed
// again. Every mutation of the in-memory index happens under a txn
// transaction and every write to the store under a SQL transaction, so a
// failed or cancelled run leaves both as they were.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DeusData/codebase-index/internal/changes"
	"github.com/DeusData/codebase-index/internal/config"
	"github.com/DeusData/codebase-index/internal/discover"
	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/resolve"
	"github.com/DeusData/codebase-index/internal/store"
	"github.com/DeusData/codebase-index/internal/symcache"
	"github.com/DeusData/codebase-index/internal/traits"
	"github.com/DeusData/codebase-index/internal/txn"
	"github.com/DeusData/codebase-index/internal/types"
)

// Config controls one pipeline.
type Config struct {
	Root         string
	Registry     *lang.Registry // defaults to lang.DefaultRegistry()
	Ignore       []string
	IgnoreFile   string
	MaxFileSize  int64
	ParseWorkers int // defaults to the CPU count
	ReadWorkers  int // defaults to the CPU count
	BatchSize    int // symbols per store write; defaults to config.DefaultBatchSize
}

// ConfigFrom derives a pipeline Config from a repository config file.
func ConfigFrom(root string, c *config.Config) Config {
	return Config{
		Root:         root,
		Ignore:       c.Ignore,
		MaxFileSize:  c.MaxFileSize,
		ParseWorkers: c.ParseWorkers(),
		ReadWorkers:  c.ReadWorkers(),
		BatchSize:    c.EffectiveBatchSize(),
	}
}

// Pipeline owns the live index of one repository. Runs are serialized.
type Pipeline struct {
	mu     sync.Mutex
	cfg    Config
	store  *store.Store // nil keeps the index in memory only
	index  *types.IndexData
	cache  *symcache.Cache
	traits *traits.Resolver
	last   *Summary
}

// New creates a pipeline over cfg.Root writing to st. Call Load to pick up
// an index persisted by an earlier process.
func New(cfg Config, st *store.Store) (*Pipeline, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	cfg.Root = root
	if cfg.Registry == nil {
		cfg.Registry = lang.DefaultRegistry()
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = runtime.NumCPU()
	}
	if cfg.ReadWorkers <= 0 {
		cfg.ReadWorkers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.DefaultBatchSize
	}
	return &Pipeline{
		cfg:    cfg,
		store:  st,
		index:  types.NewIndexData(),
		cache:  symcache.New(),
		traits: traits.New(),
	}, nil
}

// Root returns the absolute repository root.
func (p *Pipeline) Root() string {
	return p.cfg.Root
}

// Registry returns the language registry the pipeline parses with.
func (p *Pipeline) Registry() *lang.Registry {
	return p.cfg.Registry
}

// Load replaces the in-memory index with the one in the store.
func (p *Pipeline) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	d, err := p.store.LoadIndexData(ctx)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	p.index = d
	p.rebuildCache()
	slog.Info("pipeline.loaded", "files", len(d.Files), "symbols", len(d.Symbols), "relationships", len(d.Relationships))
	return nil
}

// Snapshot returns a deep copy of the current index.
func (p *Pipeline) Snapshot() *types.IndexData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index.Clone()
}

// LastSummary returns the summary of the latest successful run, or nil.
func (p *Pipeline) LastSummary() *Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pipeline) rebuildCache() {
	p.cache = symcache.NewWithCapacity(len(p.index.Symbols))
	for _, s := range p.index.Symbols {
		p.cache.Insert(s)
	}
}

// stage runs fn and records its duration.
func stage(sum *Summary, name string, fn func() error) error {
	t := time.Now()
	err := fn()
	d := time.Since(t)
	sum.Timings[name] += d
	slog.Info("pass.timing", "pass", name, "elapsed", d)
	return err
}

// Run indexes the files that changed since the previous run. Per-file
// failures are reported in the Summary; an error is returned only when the
// run was cancelled or the store failed, and then nothing was applied.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	sum := newSummary()
	slog.Info("pipeline.start", "root", p.cfg.Root)

	var files []discover.File
	err := stage(sum, StageDiscover, func() error {
		var err error
		files, err = discover.Discover(ctx, p.cfg.Root, &discover.Options{
			Registry:    p.cfg.Registry,
			Ignore:      p.cfg.Ignore,
			IgnoreFile:  p.cfg.IgnoreFile,
			MaxFileSize: p.cfg.MaxFileSize,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	sum.Discovered = len(files)
	slog.Info("pipeline.discovered", "files", len(files))

	var contents []*types.FileContent
	if err := stage(sum, StageRead, func() error {
		var err error
		contents, err = p.readFiles(ctx, files, sum)
		return err
	}); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	pl := p.classify(files, contents, sum)
	slog.Info("incremental.classify", "changed", len(pl.changed), "unchanged", sum.Unchanged, "removed", sum.Removed)
	if len(pl.changed) == 0 && len(pl.cleanup) == 0 {
		slog.Info("incremental.noop", "reason", "no_changes")
		sum.Timings["total"] = time.Since(start)
		p.last = sum
		return sum, nil
	}

	tx := p.begin(pl)
	if err := p.apply(ctx, pl, sum); err != nil {
		p.index = tx.Rollback()
		p.rebuildCache()
		slog.Warn("pipeline.rollback", "err", err)
		return nil, err
	}
	tx.Complete()

	sum.Timings["total"] = time.Since(start)
	p.last = sum
	slog.Info("pipeline.done", "indexed", sum.Indexed, "dependents", sum.Dependents, "unchanged", sum.Unchanged,
		"removed", sum.Removed, "failed", sum.Failed, "symbols", len(p.index.Symbols), "relationships", len(p.index.Relationships),
		"elapsed", sum.Timings["total"])
	return sum, nil
}

// plan is the outcome of comparing discovered files with the index.
type plan struct {
	changed []*types.FileContent
	// keep maps the path of a changed file to the FileID it keeps.
	keep map[string]types.FileID
	// cleanup lists the files whose entries are dropped before re-indexing.
	cleanup []types.FileID
	// dependents are unchanged files parsed again only to resolve their
	// outgoing relationships. Their symbols and ids stay.
	dependents map[types.FileID]bool
}

// begin opens the transaction for pl. Replacing a single file records the
// symbols it owned.
func (p *Pipeline) begin(pl *plan) *txn.IndexTransaction {
	if len(pl.cleanup) == 1 {
		id := pl.cleanup[0]
		if info, ok := p.index.FileInfos[id]; ok && pl.keep[info.Path] == id {
			ft := txn.BeginFile(p.index, id, info.Path)
			slog.Debug("pipeline.replace_file", "path", ft.Path, "old_symbols", len(ft.OldSymbols))
			return ft.IndexTransaction
		}
	}
	return txn.Begin(p.index, "pipeline.run")
}

func (p *Pipeline) classify(files []discover.File, contents []*types.FileContent, sum *Summary) *plan {
	pl := &plan{keep: make(map[string]types.FileID), dependents: make(map[types.FileID]bool)}
	seen := make(map[string]bool, len(files))
	unchanged := make(map[types.FileID]*types.FileContent)
	for i, f := range files {
		seen[f.RelPath] = true
		fc := contents[i]
		if fc == nil {
			continue // unreadable: keep whatever was indexed before
		}
		id, ok := p.index.Files[f.RelPath]
		if !ok {
			pl.changed = append(pl.changed, fc)
			continue
		}
		if !changes.HasChanged(p.index.FileInfos[id], fc.Content) {
			unchanged[id] = fc
			sum.Unchanged++
			continue
		}
		pl.changed = append(pl.changed, fc)
		pl.keep[f.RelPath] = id
		pl.cleanup = append(pl.cleanup, id)
	}
	for path, id := range p.index.Files {
		if !seen[path] {
			pl.cleanup = append(pl.cleanup, id)
			sum.Removed++
		}
	}
	p.addDependents(pl, unchanged, sum)
	slices.Sort(pl.cleanup)
	slices.SortFunc(pl.changed, func(a, b *types.FileContent) int { return strings.Compare(a.RelPath, b.RelPath) })
	return pl
}

// addDependents queues unchanged files holding relationships into a file
// that is cleaned up, so those relationships are resolved again instead of
// being lost with their targets. A dependent keeps its symbols, so edges
// into it survive and nothing further needs to be queued.
func (p *Pipeline) addDependents(pl *plan, unchanged map[types.FileID]*types.FileContent, sum *Summary) {
	if len(pl.cleanup) == 0 || len(unchanged) == 0 {
		return
	}
	cleaned := make(map[types.FileID]bool, len(pl.cleanup))
	for _, id := range pl.cleanup {
		cleaned[id] = true
	}
	targets := make(map[types.SymbolID]bool)
	for _, s := range p.index.Symbols {
		if cleaned[s.FileID] {
			targets[s.ID] = true
		}
	}
	var deps []types.FileID
	for _, r := range p.index.Relationships {
		if !targets[r.ToID] {
			continue
		}
		from, ok := p.cache.Get(r.FromID)
		if !ok || unchanged[from.FileID] == nil || slices.Contains(deps, from.FileID) {
			continue
		}
		deps = append(deps, from.FileID)
	}
	for _, id := range deps {
		fc := unchanged[id]
		pl.changed = append(pl.changed, fc)
		pl.keep[fc.RelPath] = id
		pl.dependents[id] = true
		sum.Unchanged--
		sum.Dependents++
	}
}

// apply runs CLEANUP through WRITE. The caller rolls the index back when
// it returns an error.
func (p *Pipeline) apply(ctx context.Context, pl *plan, sum *Summary) error {
	_ = stage(sum, StageCleanup, func() error {
		for _, id := range pl.cleanup {
			sum.SymbolsRemoved += len(p.index.RemoveFile(id))
			p.cache.RemoveFile(id)
		}
		for id := range pl.dependents {
			p.index.RemoveOutgoing(id)
		}
		return nil
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	var parsed []*types.ParsedFile
	if err := stage(sum, StageParse, func() error {
		var err error
		parsed, err = p.parseFiles(ctx, pl.changed, sum)
		return err
	}); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	var batch *collected
	_ = stage(sum, StageCollect, func() error {
		batch = p.collect(parsed, pl)
		p.populateTraits(batch)
		return nil
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	var behaviors map[types.LanguageID]lang.Behavior
	_ = stage(sum, StageContext, func() error {
		behaviors = p.behaviors(batch.contexts)
		return nil
	})

	var rels []types.Relationship
	if err := stage(sum, StageResolve, func() error {
		var err error
		rels, sum.Resolve, err = resolve.New(p.cache, p.traits, behaviors).Run(ctx, batch.contexts)
		return err
	}); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	p.index.Relationships = append(p.index.Relationships, rels...)

	sum.Indexed = len(batch.files)
	sum.SymbolsAdded = len(batch.symbols)
	sum.RelationshipsResolved = len(rels)

	if err := stage(sum, StageWrite, func() error {
		return p.write(ctx, pl, &store.Batch{
			Files:         batch.files,
			Symbols:       batch.symbols,
			Relationships: rels,
			Imports:       batch.imports,
		})
	}); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// behaviors attaches the behavior of every language in the batch.
func (p *Pipeline) behaviors(contexts []*types.ResolutionContext) map[types.LanguageID]lang.Behavior {
	out := make(map[types.LanguageID]lang.Behavior)
	for _, rc := range contexts {
		if _, ok := out[rc.Language]; ok {
			continue
		}
		if b := p.cfg.Registry.Behavior(rc.Language); b != nil {
			out[rc.Language] = b
		}
	}
	return out
}

// write applies the batch to the store in one SQL transaction.
func (p *Pipeline) write(ctx context.Context, pl *plan, b *store.Batch) error {
	if p.store == nil {
		return nil
	}
	return p.store.WithTransaction(ctx, func(tx *store.Store) error {
		for _, id := range pl.cleanup {
			if err := tx.RemoveFile(ctx, id); err != nil {
				return err
			}
		}
		for id := range pl.dependents {
			if err := tx.RemoveRelationshipsFromFile(ctx, id); err != nil {
				return err
			}
		}
		if err := tx.WriteBatch(ctx, b, p.cfg.BatchSize); err != nil {
			return err
		}
		if err := tx.SetCounters(ctx, p.index.NextFileID, p.index.NextSymbolID); err != nil {
			return err
		}
		if err := tx.SetMeta(ctx, store.MetaRoot, p.cfg.Root); err != nil {
			return err
		}
		return tx.SetMeta(ctx, store.MetaIndexedAt, store.Now())
	})
}

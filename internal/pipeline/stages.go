package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codebase-index/internal/changes"
	"github.com/DeusData/codebase-index/internal/discover"
	"github.com/DeusData/codebase-index/internal/parser"
	"github.com/DeusData/codebase-index/internal/types"
)

// readFiles loads and hashes every file. The result is index-aligned with
// files; an unreadable file leaves a nil entry and a FileError.
func (p *Pipeline) readFiles(ctx context.Context, files []discover.File, sum *Summary) ([]*types.FileContent, error) {
	contents := make([]*types.FileContent, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(p.cfg.ReadWorkers, len(files))))
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				errs[i] = err
				return nil
			}
			contents[i] = &types.FileContent{
				Path:    f.Path,
				RelPath: f.RelPath,
				Content: data,
				Hash:    changes.Hash(data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			slog.Warn("read.file.err", "path", files[i].RelPath, "err", err)
			sum.fail(files[i].RelPath, StageRead, err)
		}
	}
	return contents, nil
}

// parseFiles parses files on a fixed set of goroutines. Each goroutine owns
// one parser.Worker, so tree-sitter parsers never cross goroutines. The
// result is index-aligned with files; failures leave nil entries.
func (p *Pipeline) parseFiles(ctx context.Context, files []*types.FileContent, sum *Summary) ([]*types.ParsedFile, error) {
	results := make([]*types.ParsedFile, len(files))
	errs := make([]error, len(files))
	var next atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	workers := max(1, min(p.cfg.ParseWorkers, len(files)))
	for range workers {
		g.Go(func() error {
			w := parser.NewWorker(p.cfg.Registry, p.cfg.Root)
			defer w.Close()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(files) {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i], errs[i] = w.ParseFile(*files[i])
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parsed := make([]*types.ParsedFile, 0, len(results))
	for i, err := range errs {
		if err != nil {
			slog.Warn("parse.file.err", "path", files[i].RelPath, "err", err)
			sum.fail(files[i].RelPath, StageParse, err)
			continue
		}
		parsed = append(parsed, results[i])
	}
	return parsed, nil
}

// Package discover enumerates the source files of a repository.
package discover

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DeusData/codebase-index/internal/lang"
)

// IgnoreFileName is read from the repository root when Options.IgnoreFile
// is empty. It holds one doublestar pattern per line.
const IgnoreFileName = ".codeindexignore"

// ignoredDirs are directory names skipped everywhere.
var ignoredDirs = map[string]bool{
	".cache": true, ".claude": true, ".codeindex": true, ".eclipse": true,
	".eggs": true, ".git": true, ".gradle": true, ".hg": true,
	".idea": true, ".maven": true, ".mypy_cache": true, ".nox": true,
	".npm": true, ".nyc_output": true, ".pnpm-store": true,
	".pytest_cache": true, ".ruff_cache": true, ".svn": true,
	".tmp": true, ".tox": true, ".venv": true, ".vs": true,
	".vscode": true, ".yarn": true, "__pycache__": true,
	"bower_components": true, "build": true, "coverage": true,
	"dist": true, "htmlcov": true, "node_modules": true, "obj": true,
	"Pods": true, "site-packages": true, "target": true,
	"vendor": true, "venv": true, "zig-cache": true, "zig-out": true,
}

// ignoredSuffixes are file suffixes skipped everywhere.
var ignoredSuffixes = []string{".min.js", ".d.ts.map", ".pb.go", "~", ".tmp"}

// File is a discovered source file.
type File struct {
	Path     string        // absolute path
	RelPath  string        // slash separated, relative to the root
	Language lang.Language // detected language
}

// Options configures discovery.
type Options struct {
	// Registry decides which extensions are source files. Defaults to
	// lang.DefaultRegistry().
	Registry *lang.Registry
	// Ignore holds extra doublestar patterns matched against slash
	// separated relative paths.
	Ignore []string
	// IgnoreFile overrides the path of the ignore file.
	IgnoreFile string
	// MaxFileSize skips larger files when positive.
	MaxFileSize int64
}

// Discover walks root and returns its source files sorted by RelPath.
func Discover(ctx context.Context, root string, opts *Options) ([]File, error) {
	if opts == nil {
		opts = &Options{}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = lang.DefaultRegistry()
	}

	patterns := append([]string(nil), opts.Ignore...)
	ignPath := opts.IgnoreFile
	if ignPath == "" {
		ignPath = filepath.Join(root, IgnoreFileName)
	}
	extra, err := LoadIgnoreFile(ignPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	patterns = append(patterns, extra...)
	if err := ValidatePatterns(patterns); err != nil {
		return nil, err
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (ignoredDirs[d.Name()] || Ignored(rel, patterns)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || hasIgnoredSuffix(d.Name()) || Ignored(rel, patterns) {
			return nil
		}
		spec := reg.ForPath(path)
		if spec == nil {
			return nil
		}
		if opts.MaxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > opts.MaxFileSize {
				return nil
			}
		}
		files = append(files, File{Path: path, RelPath: rel, Language: spec.Language})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// IgnoredDir reports whether a directory called name is always skipped.
func IgnoredDir(name string) bool {
	return ignoredDirs[name]
}

func hasIgnoredSuffix(name string) bool {
	for _, s := range ignoredSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Ignored reports whether rel matches any pattern. A pattern without a
// slash also matches the base name, so "*.gen.go" works at any depth.
func Ignored(rel string, patterns []string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		p = strings.TrimSuffix(p, "/")
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}

// ValidatePatterns rejects malformed doublestar patterns.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return &PatternError{Pattern: p}
		}
	}
	return nil
}

// PatternError reports a malformed ignore pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "discover: bad ignore pattern " + e.Pattern + ": " + doublestar.ErrBadPattern.Error()
}

func (e *PatternError) Unwrap() error { return doublestar.ErrBadPattern }

// LoadIgnoreFile reads patterns from path, skipping blanks and # comments.
func LoadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}

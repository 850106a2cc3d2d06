package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-index/internal/store"
)

func (s *Server) handleGetCodeSnippet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	sym, matches, err := s.lookupSymbol(ctx, args)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.notFound(ctx, getStringArg(args, "name"), err), nil
		}
		return errResult(err.Error()), nil
	}
	if sym.FilePath == "" {
		return errResult("symbol has no file path"), nil
	}

	entry := s.newSymbolEntry(sym)
	absPath := filepath.Join(s.pipe.Root(), filepath.FromSlash(sym.FilePath))
	source, err := readLines(absPath, int(entry.StartLine), int(entry.EndLine))
	if err != nil {
		return errResult(fmt.Sprintf("read file: %v", err)), nil
	}

	data := map[string]any{
		"symbol": entry,
		"source": source,
	}
	if len(matches) > 1 {
		data["matches"] = len(matches)
	}
	return jsonResult(data), nil
}

// readLines reads lines startLine..endLine (1-based, inclusive), prefixed
// with their numbers.
func readLines(path string, startLine, endLine int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum > endLine {
			break
		}
		if lineNum >= startLine {
			fmt.Fprintf(&sb, "%4d | %s\n", lineNum, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan: %w", err)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no lines found in range %d-%d (file has %d lines)", startLine, endLine, lineNum)
	}
	return sb.String(), nil
}

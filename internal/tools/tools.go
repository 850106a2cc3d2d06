// Package tools exposes the index over the Model Context Protocol.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/pipeline"
	"github.com/DeusData/codebase-index/internal/store"
	"github.com/DeusData/codebase-index/internal/types"
)

// Version is reported to MCP clients.
var Version = "dev"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	pipe  *pipeline.Pipeline
	store *store.Store
	reg   *lang.Registry
}

// NewServer creates an MCP server over one repository. p indexes into st;
// queries read st.
func NewServer(p *pipeline.Pipeline, st *store.Store) *Server {
	srv := &Server{
		pipe:  p,
		store: st,
		reg:   p.Registry(),
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codebase-index",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_repository",
		Description: "Index the repository incrementally. Unchanged files are skipped by content hash; changed, added and removed files are re-indexed in one transaction. Returns the run summary.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleIndexRepository)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_symbol",
		Description: "Search indexed symbols by name (regex), kind, language and file glob. Returns matches with their location, signature and edge counts.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name_pattern": {
					"type": "string",
					"description": "Regex matched against the symbol name or module path (e.g. '^parse', 'Handler$')"
				},
				"kind": {
					"type": "string",
					"description": "Symbol kind: function, method, struct, class, enum, trait, interface, type_alias, module, field, variable, constant, macro"
				},
				"language": {
					"type": "string",
					"description": "Language id (e.g. rust, go, python, typescript)"
				},
				"file_pattern": {
					"type": "string",
					"description": "Glob for the file path (e.g. 'src/**/*.rs')"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 20, max 200)"
				},
				"offset": {
					"type": "integer",
					"description": "Results to skip, for paging"
				}
			}
		}`),
	}, s.handleFindSymbol)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_relationships",
		Description: "Follow resolved relationships from a symbol: what it calls, implements, extends, uses or defines (outbound) or what points at it (inbound). Depth above 1 walks the graph breadth first.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Symbol name. Ignored when symbol_id is set."
				},
				"symbol_id": {
					"type": "integer",
					"description": "Exact symbol id from find_symbol"
				},
				"direction": {
					"type": "string",
					"description": "'outbound', 'inbound' or 'both' (default outbound)",
					"enum": ["outbound", "inbound", "both"]
				},
				"kinds": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Relationship kinds to follow: calls, implements, extends, uses, defines. All when empty."
				},
				"depth": {
					"type": "integer",
					"description": "Traversal depth (1-5, default 1)"
				}
			}
		}`),
	}, s.handleGetRelationships)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_code_snippet",
		Description: "Return the source of a symbol, read from disk using its stored file and line range.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Symbol name. Ignored when symbol_id is set."
				},
				"symbol_id": {
					"type": "integer",
					"description": "Exact symbol id from find_symbol"
				}
			}
		}`),
	}, s.handleGetCodeSnippet)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_status",
		Description: "Report what the index holds: file, symbol and relationship counts by kind and language, when it was last indexed, and the summary of the latest run in this session.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleIndexStatus)
}

// jsonResult marshals data to JSON and returns it as a tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getStringsArg(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// symbolEntry is the JSON shape of a symbol in tool output. Lines are
// 1-based.
type symbolEntry struct {
	ID         types.SymbolID `json:"id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Language   string         `json:"language"`
	ModulePath string         `json:"module_path,omitempty"`
	Qualified  string         `json:"qualified_name,omitempty"`
	FilePath   string         `json:"file_path"`
	StartLine  uint32         `json:"start_line"`
	EndLine    uint32         `json:"end_line"`
	Signature  string         `json:"signature,omitempty"`
	Visibility string         `json:"visibility"`
	Parent     string         `json:"parent,omitempty"`
}

func (s *Server) newSymbolEntry(sym *types.Symbol) symbolEntry {
	e := symbolEntry{
		ID:         sym.ID,
		Name:       sym.Name,
		Kind:       string(sym.Kind),
		Language:   string(sym.Language),
		ModulePath: sym.ModulePath,
		FilePath:   sym.FilePath,
		StartLine:  sym.Range.StartLine + 1,
		EndLine:    sym.Range.EndLine + 1,
		Signature:  sym.Signature,
		Visibility: sym.Visibility.String(),
		Parent:     sym.Scope.Parent,
	}
	if b := s.reg.Behavior(sym.Language); b != nil && sym.ModulePath != "" {
		e.Qualified = b.FormatModulePath(sym.ModulePath, sym.Name)
	}
	return e
}

// lookupSymbol resolves the symbol_id or name argument. A name with several
// matches returns them all so the caller can ask for one by id.
func (s *Server) lookupSymbol(ctx context.Context, args map[string]any) (*types.Symbol, []*types.Symbol, error) {
	if id := getIntArg(args, "symbol_id", 0); id > 0 {
		sym, err := s.store.FindSymbolByID(ctx, types.SymbolID(id))
		if err != nil {
			return nil, nil, fmt.Errorf("symbol %d: %w", id, err)
		}
		return sym, nil, nil
	}
	name := getStringArg(args, "name")
	if name == "" {
		return nil, nil, fmt.Errorf("name or symbol_id is required")
	}
	syms, err := s.store.FindSymbolsByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	switch len(syms) {
	case 0:
		return nil, nil, fmt.Errorf("symbol not found: %s: %w", name, store.ErrNotFound)
	case 1:
		return syms[0], nil, nil
	}
	return syms[0], syms, nil
}

package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-index/internal/pipeline"
	"github.com/DeusData/codebase-index/internal/store"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"src/main.rs": "use crate::util::helper;\n\nfn main() {\n    helper();\n}\n",
		"src/util.rs": "/// Does the work.\npub fn helper() {\n    inner();\n}\n\nfn inner() {}\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	p, err := pipeline.New(pipeline.Config{Root: dir, ParseWorkers: 1, ReadWorkers: 1}, st)
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(p, st)
}

func call(t *testing.T, h mcp.ToolHandler, args string) (map[string]any, bool) {
	t.Helper()
	res, err := h(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: json.RawMessage(args),
	}})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if res.IsError {
		return map[string]any{"error": text}, true
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("unmarshal %q: %v", text, err)
	}
	return out, false
}

func indexed(t *testing.T) *Server {
	t.Helper()
	s := setupServer(t)
	out, isErr := call(t, s.handleIndexRepository, `{}`)
	if isErr {
		t.Fatalf("index_repository: %v", out["error"])
	}
	return s
}

func TestIndexRepository(t *testing.T) {
	s := setupServer(t)
	out, isErr := call(t, s.handleIndexRepository, `{}`)
	if isErr {
		t.Fatalf("index_repository: %v", out["error"])
	}
	if out["symbols"].(float64) != 3 {
		t.Errorf("symbols = %v, want 3", out["symbols"])
	}
	if out["relationships"].(float64) != 2 {
		t.Errorf("relationships = %v, want 2", out["relationships"])
	}
	sum := out["summary"].(map[string]any)
	if sum["indexed"].(float64) != 2 {
		t.Errorf("indexed = %v", sum["indexed"])
	}

	// Second call is a no-op.
	out, _ = call(t, s.handleIndexRepository, `{}`)
	if out["summary"].(map[string]any)["unchanged"].(float64) != 2 {
		t.Errorf("second run summary = %v", out["summary"])
	}
}

func TestFindSymbol(t *testing.T) {
	s := indexed(t)
	tests := []struct {
		name string
		args string
		want []string
	}{
		{"all", `{}`, []string{"main", "helper", "inner"}},
		{"regex", `{"name_pattern": "^h"}`, []string{"helper"}},
		{"file", `{"file_pattern": "src/util*"}`, []string{"helper", "inner"}},
		{"kind", `{"kind": "struct"}`, nil},
		{"paged", `{"limit": 1, "offset": 1}`, []string{"helper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, isErr := call(t, s.handleFindSymbol, tt.args)
			if isErr {
				t.Fatalf("find_symbol: %v", out["error"])
			}
			results := out["results"].([]any)
			var names []string
			for _, r := range results {
				names = append(names, r.(map[string]any)["name"].(string))
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestFindSymbolBadPattern(t *testing.T) {
	s := indexed(t)
	if _, isErr := call(t, s.handleFindSymbol, `{"name_pattern": "("}`); !isErr {
		t.Error("expected an error for an invalid regex")
	}
}

func TestGetRelationships(t *testing.T) {
	s := indexed(t)

	out, isErr := call(t, s.handleGetRelationships, `{"name": "main", "depth": 2}`)
	if isErr {
		t.Fatalf("get_relationships: %v", out["error"])
	}
	hops := out["hops"].([]any)
	if len(hops) != 2 {
		t.Fatalf("hops = %v", hops)
	}
	first := hops[0].(map[string]any)["symbols"].([]any)[0].(map[string]any)
	second := hops[1].(map[string]any)["symbols"].([]any)[0].(map[string]any)
	if first["name"] != "helper" || second["name"] != "inner" {
		t.Errorf("hop names = %v, %v", first["name"], second["name"])
	}
	edges := out["edges"].([]any)
	if len(edges) != 2 || edges[0].(map[string]any)["kind"] != "calls" {
		t.Errorf("edges = %v", edges)
	}

	out, _ = call(t, s.handleGetRelationships, `{"name": "helper", "direction": "inbound"}`)
	hops = out["hops"].([]any)
	if len(hops) != 1 || hops[0].(map[string]any)["symbols"].([]any)[0].(map[string]any)["name"] != "main" {
		t.Errorf("inbound hops = %v", hops)
	}
}

func TestGetRelationshipsNotFound(t *testing.T) {
	s := indexed(t)

	out, isErr := call(t, s.handleGetRelationships, `{"name": "help"}`)
	if isErr {
		t.Fatalf("expected suggestions, got error %v", out["error"])
	}
	sugg := out["suggestions"].([]any)
	if len(sugg) != 1 || sugg[0].(map[string]any)["name"] != "helper" {
		t.Errorf("suggestions = %v", sugg)
	}

	if _, isErr := call(t, s.handleGetRelationships, `{"name": "zzz"}`); !isErr {
		t.Error("expected an error without suggestions")
	}
	if _, isErr := call(t, s.handleGetRelationships, `{"name": "main", "direction": "sideways"}`); !isErr {
		t.Error("expected an error for a bad direction")
	}
}

func TestGetCodeSnippet(t *testing.T) {
	s := indexed(t)
	out, isErr := call(t, s.handleGetCodeSnippet, `{"name": "inner"}`)
	if isErr {
		t.Fatalf("get_code_snippet: %v", out["error"])
	}
	src := out["source"].(string)
	if !strings.Contains(src, "fn inner() {}") || !strings.HasPrefix(src, "   6 | ") {
		t.Errorf("source = %q", src)
	}
	if q := out["symbol"].(map[string]any)["qualified_name"]; q != "crate::util::inner" {
		t.Errorf("qualified_name = %v", q)
	}
}

func TestIndexStatus(t *testing.T) {
	s := setupServer(t)
	out, _ := call(t, s.handleIndexStatus, `{}`)
	if _, ok := out["last_run"]; ok {
		t.Error("last_run reported before any run")
	}

	s = indexed(t)
	out, isErr := call(t, s.handleIndexStatus, `{}`)
	if isErr {
		t.Fatalf("index_status: %v", out["error"])
	}
	schema := out["schema"].(map[string]any)
	if schema["files"].(float64) != 2 || schema["symbols"].(float64) != 3 {
		t.Errorf("schema = %v", schema)
	}
	if _, ok := out["last_run"]; !ok {
		t.Error("missing last_run")
	}
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := readLines(path, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "   2 | b\n   3 | c\n" {
		t.Errorf("readLines = %q", got)
	}
	if _, err := readLines(path, 10, 12); err == nil {
		t.Error("expected an error past the end of the file")
	}
}

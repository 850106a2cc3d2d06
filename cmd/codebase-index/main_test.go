package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DeusData/codebase-index/internal/store"
)

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.go")
	if err := os.WriteFile(file, []byte("package f\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got, err := resolveRoot([]string{dir}); err != nil || got != dir {
		t.Errorf("resolveRoot(dir) = %q, %v", got, err)
	}
	if _, err := resolveRoot([]string{file}); err == nil {
		t.Error("expected an error for a file")
	}
	if _, err := resolveRoot([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	src := "package main\n\nfunc main() {\n\trun()\n}\n\nfunc run() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(t.TempDir(), "index.db")

	rootCmd.SetArgs([]string{"index", dir, "--db", dbPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("index: %v", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	n, err := st.CountSymbols(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("stored symbols = %d, want 2", n)
	}
	rels, err := st.CountRelationships(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if rels != 1 {
		t.Errorf("stored relationships = %d, want 1", rels)
	}
}

func TestIndexCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".codeindex.yaml"), []byte("parallelism: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{"index", dir, "--db", filepath.Join(t.TempDir(), "index.db")})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected an error for a negative parallelism")
	}
}

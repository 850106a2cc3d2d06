package changes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	content := []byte("fn main() { helper(); }\n")
	if Hash(content) != Hash(content) {
		t.Fatal("hash is not deterministic")
	}
	if Hash(content) != Hash(append([]byte(nil), content...)) {
		t.Fatal("hash depends on slice identity")
	}
	if len(Hash(content)) != 32 {
		t.Errorf("expected 128-bit hex digest, got %q", Hash(content))
	}
}

func TestHashDetectsSingleByteChange(t *testing.T) {
	a := []byte("fn helper() {}")
	b := []byte("fn helper() {} ")
	if Hash(a) == Hash(b) {
		t.Fatal("different content produced equal digests")
	}
}

func TestHashFileMatchesHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	content := []byte("pub fn helper() {}\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if got != Hash(content) {
		t.Errorf("HashFile = %s, Hash = %s", got, Hash(content))
	}
}

func TestHasChanged(t *testing.T) {
	content := []byte("package main\n")
	info := NewFileInfo(1, "main.go", "go", Hash(content))
	if HasChanged(info, content) {
		t.Error("unchanged content reported as changed")
	}
	if !HasChanged(info, []byte("package lib\n")) {
		t.Error("changed content not detected")
	}
	if info.IndexedAt <= 0 {
		t.Errorf("expected UTC seconds timestamp, got %d", info.IndexedAt)
	}
}

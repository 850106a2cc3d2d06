package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-index/internal/lang"
)

func parseTree(t *testing.T, l lang.Language, source []byte) *tree_sitter.Tree {
	t.Helper()
	p, err := newTSParser(l)
	if err != nil {
		t.Fatalf("newTSParser(%s): %v", l, err)
	}
	t.Cleanup(p.Close)
	tree := p.Parse(source, nil)
	if tree == nil {
		t.Fatalf("parse %s: no tree", l)
	}
	t.Cleanup(tree.Close)
	return tree
}

func countKinds(root *tree_sitter.Node, kinds ...string) map[string]int {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	counts := make(map[string]int)
	Walk(root, func(n *tree_sitter.Node) bool {
		if want[n.Kind()] {
			counts[n.Kind()]++
		}
		return true
	})
	return counts
}

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree := parseTree(t, lang.Go, source)
	if got := countKinds(tree.RootNode(), "function_declaration")["function_declaration"]; got != 2 {
		t.Errorf("expected 2 function_declarations, got %d", got)
	}
}

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree := parseTree(t, lang.Python, source)
	counts := countKinds(tree.RootNode(), "function_definition", "class_definition")
	if counts["function_definition"] != 2 {
		t.Errorf("expected 2 function_definitions, got %d", counts["function_definition"])
	}
	if counts["class_definition"] != 1 {
		t.Errorf("expected 1 class_definition, got %d", counts["class_definition"])
	}
}

func TestAllLanguagesLoad(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		if _, err := GetLanguage(l); err != nil {
			t.Errorf("GetLanguage(%s): %v", l, err)
		}
	}
}

func TestUnknownLanguage(t *testing.T) {
	if _, err := GetLanguage("cobol"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestNodeText(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}
`)
	tree := parseTree(t, lang.Go, source)
	found := false
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			found = true
			if name := NodeText(n.ChildByFieldName("name"), source); name != "Hello" {
				t.Errorf("expected Hello, got %s", name)
			}
			return false
		}
		return true
	})
	if !found {
		t.Fatal("function_declaration not found")
	}
}

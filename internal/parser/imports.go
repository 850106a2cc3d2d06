package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/types"
)

// importsOf extracts the imports declared by one import node.
func importsOf(l lang.Language, n *tree_sitter.Node, src []byte) []types.Import {
	switch l {
	case lang.Go:
		return goImports(n, src)
	case lang.Python:
		return pythonImports(n, src)
	case lang.Rust:
		if arg := n.ChildByFieldName("argument"); arg != nil {
			return expandImportTree(NodeText(arg, src), "::")
		}
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		return jsImports(n, src)
	case lang.Java, lang.Kotlin:
		return []types.Import{dottedImport(NodeText(n, src), "import")}
	case lang.Scala:
		text := strings.TrimSpace(strings.TrimPrefix(NodeText(n, src), "import"))
		return expandImportTree(text, ".")
	case lang.CSharp:
		return []types.Import{csharpImport(NodeText(n, src))}
	case lang.PHP:
		text := NodeText(n, src)
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
		text = strings.TrimPrefix(text, "use")
		for _, kw := range []string{"function", "const"} {
			text = strings.TrimPrefix(strings.TrimSpace(text), kw+" ")
		}
		var out []types.Import
		for _, part := range splitTopLevel(text, ',') {
			out = append(out, expandImportTree(strings.TrimPrefix(strings.TrimSpace(part), "\\"), "\\")...)
		}
		return out
	case lang.CPP:
		if p := n.ChildByFieldName("path"); p != nil {
			return []types.Import{{Path: unquote(NodeText(p, src)), IsGlob: true}}
		}
	}
	return nil
}

func goImports(n *tree_sitter.Node, src []byte) []types.Import {
	p := n.ChildByFieldName("path")
	if p == nil {
		return nil
	}
	imp := types.Import{Path: unquote(NodeText(p, src))}
	if name := n.ChildByFieldName("name"); name != nil {
		switch alias := NodeText(name, src); alias {
		case ".":
			imp.IsGlob = true
		case "_":
		default:
			imp.Alias = alias
		}
	}
	return []types.Import{imp}
}

func pythonImports(n *tree_sitter.Node, src []byte) []types.Import {
	var out []types.Import
	module := ""
	if m := n.ChildByFieldName("module_name"); m != nil {
		module = NodeText(m, src)
	}
	join := func(name string) string {
		switch {
		case module == "":
			return name
		case strings.HasSuffix(module, "."):
			return module + name
		default:
			return module + "." + name
		}
	}
	for _, c := range fieldChildren(n, "name") {
		imp := types.Import{}
		switch c.Kind() {
		case "aliased_import":
			imp.Path = NodeText(c.ChildByFieldName("name"), src)
			imp.Alias = NodeText(c.ChildByFieldName("alias"), src)
		default:
			imp.Path = NodeText(c, src)
		}
		imp.Path = join(imp.Path)
		out = append(out, imp)
	}
	for _, c := range namedChildren(n) {
		if c.Kind() == "wildcard_import" {
			out = append(out, types.Import{Path: join("*"), IsGlob: true})
		}
	}
	return out
}

func jsImports(n *tree_sitter.Node, src []byte) []types.Import {
	source := n.ChildByFieldName("source")
	if source == nil {
		return nil
	}
	path := unquote(NodeText(source, src))
	typeOnly := strings.HasPrefix(NodeText(n, src), "import type")
	var out []types.Import
	add := func(name, alias string, glob bool) {
		out = append(out, types.Import{Path: path, Name: name, Alias: alias, IsGlob: glob, IsTypeOnly: typeOnly})
	}
	for _, c := range namedChildren(n) {
		if c.Kind() != "import_clause" {
			continue
		}
		for _, part := range namedChildren(c) {
			switch part.Kind() {
			case "identifier":
				add("default", NodeText(part, src), false)
			case "namespace_import":
				for _, id := range namedChildren(part) {
					add("", NodeText(id, src), true)
				}
			case "named_imports":
				for _, spec := range namedChildren(part) {
					if spec.Kind() != "import_specifier" {
						continue
					}
					name := NodeText(spec.ChildByFieldName("name"), src)
					alias := ""
					if a := spec.ChildByFieldName("alias"); a != nil {
						alias = NodeText(a, src)
					}
					add(name, alias, false)
				}
			}
		}
	}
	if len(out) == 0 {
		add("", "", false)
	}
	return out
}

// dottedImport parses "import a.b.C", "import static a.b.C.m;",
// "import a.b.*" and "import a.b.C as D".
func dottedImport(text, keyword string) types.Import {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	text = strings.TrimSpace(strings.TrimPrefix(text, keyword))
	text = strings.TrimSpace(strings.TrimPrefix(text, "static "))
	imp := types.Import{}
	if i := strings.Index(text, " as "); i >= 0 {
		imp.Alias = strings.TrimSpace(text[i+4:])
		text = text[:i]
	}
	imp.Path = strings.ReplaceAll(text, " ", "")
	imp.IsGlob = strings.HasSuffix(imp.Path, ".*")
	return imp
}

// csharpImport parses using directives. A namespace using brings every
// member into scope.
func csharpImport(text string) types.Import {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "global"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "using"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "static "))
	if i := strings.Index(text, "="); i >= 0 {
		return types.Import{Alias: strings.TrimSpace(text[:i]), Path: strings.TrimSpace(text[i+1:])}
	}
	return types.Import{Path: text, IsGlob: true}
}

// expandImportTree flattens brace groups: "a::{b, c::d as e, *}" yields
// a::b, a::c::d (alias e) and the glob a::*.
func expandImportTree(text, sep string) []types.Import {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	open := strings.IndexByte(text, '{')
	closing := strings.LastIndexByte(text, '}')
	if open < 0 || closing < open {
		return []types.Import{importLeaf(text, sep)}
	}
	prefix := strings.TrimSuffix(strings.TrimSpace(text[:open]), sep)
	var out []types.Import
	for _, part := range splitTopLevel(text[open+1:closing], ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "self" {
			out = append(out, types.Import{Path: prefix})
			continue
		}
		for _, imp := range expandImportTree(part, sep) {
			if prefix != "" {
				imp.Path = prefix + sep + imp.Path
			}
			out = append(out, imp)
		}
	}
	return out
}

func importLeaf(text, sep string) types.Import {
	imp := types.Import{}
	for _, arrow := range []string{" as ", "=>"} {
		if i := strings.Index(text, arrow); i >= 0 {
			imp.Alias = strings.TrimSpace(text[i+len(arrow):])
			text = strings.TrimSpace(text[:i])
			break
		}
	}
	imp.Path = strings.ReplaceAll(text, " ", "")
	if strings.HasSuffix(imp.Path, sep+"_") || imp.Path == "_" {
		imp.Path = strings.TrimSuffix(imp.Path, "_") + "*"
	}
	imp.IsGlob = imp.Path == "*" || strings.HasSuffix(imp.Path, sep+"*")
	return imp
}

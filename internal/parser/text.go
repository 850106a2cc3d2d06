package parser

import (
	"strings"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-index/internal/types"
)

func rangeOf(n *tree_sitter.Node) types.Range {
	s, e := n.StartPosition(), n.EndPosition()
	return types.NewRange(uint32(s.Row), uint32(s.Column), uint32(e.Row), uint32(e.Column))
}

// fieldChildren returns every child attached to field.
func fieldChildren(n *tree_sitter.Node, field string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.FieldNameForChild(uint32(i)) == field {
			if c := n.Child(i); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// namedChildren returns the named children of n.
func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	out := make([]*tree_sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// hasTokenChild reports whether n has an anonymous child with the given text.
func hasTokenChild(n *tree_sitter.Node, token string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() && c.Kind() == token {
			return true
		}
	}
	return false
}

var identifierKinds = map[string]bool{
	"identifier":          true,
	"type_identifier":     true,
	"field_identifier":    true,
	"property_identifier": true,
	"simple_identifier":   true,
	"constant":            true,
	"name":                true,
	"word":                true,
	"destructor_name":     true,
	"operator_name":       true,
}

func isIdentChar(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isIdentChar(r) {
			return false
		}
	}
	return true
}

// isTypeLike reports whether name looks like a type by convention.
func isTypeLike(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

var primitiveTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true, "float": true, "float32": true, "float64": true, "double": true,
	"bool": true, "boolean": true, "Boolean": true, "byte": true, "rune": true, "char": true,
	"short": true, "long": true, "void": true, "str": true, "string": true, "String": true,
	"any": true, "object": true, "Object": true, "error": true, "number": true, "Self": true,
	"unknown": true, "never": true, "undefined": true, "null": true, "None": true,
	"list": true, "dict": true, "set": true, "tuple": true, "bytes": true,
	"var": true, "auto": true, "let": true, "val": true, "dynamic": true, "const": true,
	"Int": true, "Long": true, "Double": true, "Float": true, "Unit": true, "Any": true,
}

// baseTypeName reduces a type expression to its head identifier:
// "*pkg.Server" -> "Server", "Vec<Foo>" -> "Vec", "&mut Foo" -> "Foo".
func baseTypeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimSpace(s)
	for {
		trimmed := strings.TrimLeft(s, "&*?^[] ")
		for _, p := range []string{"mut ", "dyn ", "impl ", "const ", "new ", "readonly ", "...", "typename "} {
			trimmed = strings.TrimPrefix(trimmed, p)
		}
		if trimmed == s {
			break
		}
		s = trimmed
	}
	if i := strings.IndexAny(s, "<[({ "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "?!*&")
	for _, sep := range []string{"::", "\\", "."} {
		if i := strings.LastIndex(s, sep); i >= 0 {
			s = s[i+len(sep):]
		}
	}
	if !isIdentifier(s) {
		return ""
	}
	return s
}

// splitCallee splits a callee expression at its last member separator.
// "a.b.c" -> ("a.b", "c", "."), "Foo::new" -> ("Foo", "new", "::"),
// "helper" -> ("", "helper", "").
func splitCallee(expr string) (receiver, method, sep string) {
	expr = strings.TrimSpace(stripGenericArgs(expr))
	expr = strings.TrimPrefix(expr, "new ")
	expr = strings.TrimSuffix(expr, "!")
	depth := 0
	for i := len(expr) - 1; i >= 0; i-- {
		switch c := expr[i]; c {
		case ')', ']', '}':
			depth++
		case '(', '[', '{':
			depth--
		case '.':
			if depth != 0 {
				continue
			}
			if i > 0 && expr[i-1] == '?' {
				return expr[:i-1], expr[i+1:], "?."
			}
			return expr[:i], expr[i+1:], "."
		case ':':
			if depth != 0 {
				continue
			}
			if i > 0 && expr[i-1] == ':' {
				return expr[:i-1], expr[i+1:], "::"
			}
			return expr[:i], expr[i+1:], ":"
		case '>':
			if depth == 0 && i > 0 && expr[i-1] == '-' {
				return expr[:i-1], expr[i+1:], "->"
			}
		case '\\':
			if depth == 0 {
				return expr[:i], expr[i+1:], "\\"
			}
		}
	}
	return "", expr, ""
}

// stripGenericArgs removes <...> groups and Rust turbofish from expr.
func stripGenericArgs(expr string) string {
	if !strings.Contains(expr, "<") {
		return expr
	}
	out := make([]byte, 0, len(expr))
	depth := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '<' && i > 0 && expr[i-1] == '-':
			out = append(out, c)
		case c == '<':
			if depth == 0 && len(out) >= 2 && string(out[len(out)-2:]) == "::" {
				out = out[:len(out)-2]
			}
			depth++
		case c == '>' && depth > 0:
			depth--
		case depth == 0:
			out = append(out, c)
		}
	}
	return string(out)
}

// splitTopLevel splits s at sep characters that are not nested in brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// heritageTokens splits a supertype clause into keywords and type
// expressions: "extends A<T> implements B, C" -> [extends A<T> implements B C].
func heritageTokens(text string) []string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = text[1 : len(text)-1]
	}
	var out []string
	for _, part := range splitTopLevel(text, ',') {
		var cur strings.Builder
		depth := 0
		flush := func() {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			switch {
			case c == '(' || c == '<' || c == '[':
				depth++
			case (c == ')' || c == '>' || c == ']') && depth > 0:
				depth--
			}
			isColon := c == ':' && !(i+1 < len(part) && part[i+1] == ':') && !(i > 0 && part[i-1] == ':')
			if depth == 0 && (unicode.IsSpace(rune(c)) || isColon) {
				flush()
				continue
			}
			cur.WriteByte(c)
		}
		flush()
	}
	return out
}

// cleanComment strips comment markers from one comment node's text.
func cleanComment(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(l), "*/"))
		for _, p := range []string{"///", "//!", "//", "/**", "/*", "--", "#", "*"} {
			if strings.HasPrefix(l, p) {
				l = strings.TrimSpace(l[len(p):])
				break
			}
		}
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// cleanDocstring strips the quotes of a Python docstring.
func cleanDocstring(text string) string {
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return strings.TrimSpace(text)
}

const maxSignature = 240

// compactSignature collapses whitespace and trims a trailing opener.
func compactSignature(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, "{: =")
	if len(s) > maxSignature {
		s = s[:maxSignature]
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "\"'`<>")
}

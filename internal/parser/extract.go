package parser

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/zeebo/xxh3"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/types"
)

// facts is everything one walk over a file produces.
type facts struct {
	symbols     []types.Symbol
	calls       []Call
	methodCalls []MethodCall
	implements  []Relation
	extends     []Relation
	uses        []Relation
	defines     []Relation
	imports     []types.Import
	varTypes    []VariableType
}

// TreeSitterParser implements LanguageParser for any language described by
// a lang.LanguageSpec. It owns one tree-sitter parser and is not safe for
// concurrent use.
type TreeSitterParser struct {
	spec *lang.LanguageSpec
	ts   *tree_sitter.Parser

	// The Find* methods are called back to back on the same content, so the
	// last walk is kept.
	lastKey uint64
	lastLen int
	last    *facts
}

// NewTreeSitterParser creates a parser for spec's language.
func NewTreeSitterParser(spec *lang.LanguageSpec) (*TreeSitterParser, error) {
	ts, err := newTSParser(spec.Language)
	if err != nil {
		return nil, err
	}
	return &TreeSitterParser{spec: spec, ts: ts}, nil
}

func (p *TreeSitterParser) Language() lang.Language { return p.spec.Language }

// Close releases the tree-sitter parser.
func (p *TreeSitterParser) Close() {
	if p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
	p.last = nil
}

func (p *TreeSitterParser) extract(content []byte) (*facts, error) {
	key := xxh3.Hash(content)
	if p.last != nil && p.lastKey == key && p.lastLen == len(content) {
		return p.last, nil
	}
	if p.ts == nil {
		return nil, fmt.Errorf("%s parser is closed", p.spec.Language)
	}
	tree := p.ts.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed for language %s", p.spec.Language)
	}
	defer tree.Close()

	e := newExtractor(p.spec, content)
	e.visitChildren(tree.RootNode(), scope{})
	p.lastKey, p.lastLen, p.last = key, len(content), e.f
	return e.f, nil
}

// Parse returns the file's symbols with placeholder ids 1..n.
func (p *TreeSitterParser) Parse(content []byte, fileID types.FileID) ([]types.Symbol, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	out := make([]types.Symbol, len(f.symbols))
	for i, s := range f.symbols {
		s.ID = types.SymbolID(i + 1)
		s.FileID = fileID
		out[i] = s
	}
	return out, nil
}

func (p *TreeSitterParser) FindCalls(content []byte) ([]Call, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]Call(nil), f.calls...), nil
}

func (p *TreeSitterParser) FindMethodCalls(content []byte) ([]MethodCall, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]MethodCall(nil), f.methodCalls...), nil
}

func (p *TreeSitterParser) FindImplementations(content []byte) ([]Relation, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]Relation(nil), f.implements...), nil
}

func (p *TreeSitterParser) FindExtends(content []byte) ([]Relation, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]Relation(nil), f.extends...), nil
}

func (p *TreeSitterParser) FindUses(content []byte) ([]Relation, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]Relation(nil), f.uses...), nil
}

func (p *TreeSitterParser) FindDefines(content []byte) ([]Relation, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]Relation(nil), f.defines...), nil
}

func (p *TreeSitterParser) FindImports(content []byte, fileID types.FileID) ([]types.Import, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	out := make([]types.Import, len(f.imports))
	for i, imp := range f.imports {
		imp.FileID = fileID
		out[i] = imp
	}
	return out, nil
}

func (p *TreeSitterParser) FindVariableTypes(content []byte) ([]VariableType, error) {
	f, err := p.extract(content)
	if err != nil {
		return nil, err
	}
	return append([]VariableType(nil), f.varTypes...), nil
}

// scope is the lexical position of the walk.
type scope struct {
	typeName  string // enclosing type, or the impl target
	typeKind  types.SymbolKind
	trait     string // trait of the enclosing impl block
	funcName  string // enclosing named function
	funcRange types.Range
	inFunc    bool
}

type extractor struct {
	spec *lang.LanguageSpec
	src  []byte
	f    *facts

	functions map[string]bool
	impls     map[string]bool
	modules   map[string]bool
	fields    map[string]bool
	calls     map[string]bool
	imports   map[string]bool
	variables map[string]bool
	selfNames map[string]bool

	seenUses map[[2]string]bool
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func newExtractor(spec *lang.LanguageSpec, src []byte) *extractor {
	return &extractor{
		spec:      spec,
		src:       src,
		f:         &facts{},
		functions: toSet(spec.FunctionNodeTypes),
		impls:     toSet(spec.ImplNodeTypes),
		modules:   toSet(spec.ModuleNodeTypes),
		fields:    toSet(spec.FieldNodeTypes),
		calls:     toSet(spec.CallNodeTypes),
		imports:   toSet(spec.ImportNodeTypes),
		variables: toSet(spec.VariableNodeTypes),
		selfNames: toSet(spec.SelfNames),
		seenUses:  make(map[[2]string]bool),
	}
}

func (e *extractor) text(n *tree_sitter.Node) string { return NodeText(n, e.src) }

func (e *extractor) visitChildren(n *tree_sitter.Node, sc scope) {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			e.visit(c, sc)
		}
	}
}

func (e *extractor) visit(n *tree_sitter.Node, sc scope) {
	if !n.IsNamed() {
		return
	}
	kind := n.Kind()
	switch {
	case e.functions[kind]:
		e.function(n, sc)
		return
	case e.spec.TypeNodeKinds[kind] != "":
		e.typeDecl(n, sc)
		return
	case e.impls[kind]:
		e.implBlock(n, sc)
		return
	case e.modules[kind]:
		e.module(n, sc)
		return
	case e.imports[kind]:
		e.f.imports = append(e.f.imports, importsOf(e.spec.Language, n, e.src)...)
		return
	}

	switch {
	case e.fields[kind] && sc.typeName != "" && !sc.inFunc:
		e.field(n, sc)
	case e.spec.ConstantNodeTypes[kind] != "" && !sc.inFunc:
		e.constant(n, sc, e.spec.ConstantNodeTypes[kind])
	}
	if e.variables[kind] && sc.inFunc {
		e.variable(n, sc)
	}
	if e.calls[kind] && sc.inFunc {
		e.call(n, sc)
	}
	e.visitChildren(n, sc)
}

// symbolScope places a declaration relative to sc.
func symbolScope(sc scope) types.ScopeContext {
	switch {
	case sc.inFunc:
		return types.ScopeContext{Kind: types.ScopeLocal, Parent: sc.funcName}
	case sc.typeName != "":
		return types.ScopeContext{Kind: types.ScopeClassMember, Parent: sc.typeName}
	default:
		return types.ScopeContext{Kind: types.ScopeModuleLevel}
	}
}

func (e *extractor) addSymbol(n *tree_sitter.Node, name string, kind types.SymbolKind, sig string, sc types.ScopeContext) types.Range {
	r := rangeOf(n)
	e.f.symbols = append(e.f.symbols, types.Symbol{
		Name:       name,
		Kind:       kind,
		Range:      r,
		Signature:  sig,
		Doc:        e.doc(n),
		Visibility: e.spec.Behavior.ParseVisibility(sig),
		Scope:      sc,
		Language:   e.spec.Language,
	})
	return r
}

func (e *extractor) function(n *tree_sitter.Node, sc scope) {
	name, owner := e.functionName(n, sc)
	if name == "" {
		// Anonymous: its calls belong to the enclosing function.
		e.visitChildren(n, sc)
		return
	}

	kind := types.KindFunction
	symScope := symbolScope(sc)
	if owner != "" {
		kind = types.KindMethod
		symScope = types.ScopeContext{Kind: types.ScopeClassMember, Parent: owner}
	}
	r := e.addSymbol(n, name, kind, e.signature(n), symScope)
	if owner != "" {
		e.f.defines = append(e.f.defines, Relation{From: owner, To: name, Range: r, Trait: sc.trait})
	}

	inner := scope{
		typeName:  sc.typeName,
		typeKind:  sc.typeKind,
		trait:     sc.trait,
		funcName:  name,
		funcRange: r,
		inFunc:    true,
	}
	if owner != "" {
		inner.typeName = owner
	}
	e.visitChildren(n, inner)
}

// functionName returns the declared name and, for methods, the owning type.
func (e *extractor) functionName(n *tree_sitter.Node, sc scope) (name, owner string) {
	if !sc.inFunc {
		owner = sc.typeName
	}
	if e.spec.ReceiverField != "" {
		if recv := n.ChildByFieldName(e.spec.ReceiverField); recv != nil {
			for _, p := range namedChildren(recv) {
				if t := p.ChildByFieldName("type"); t != nil {
					owner = baseTypeName(e.text(t))
				}
			}
		}
	}

	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = declaratorName(n)
	}
	if nameNode == nil {
		return e.nameFromParent(n), owner
	}
	full := e.text(nameNode)
	if recv, method, sep := splitCallee(full); sep != "" && method != "" {
		// C++ "Widget::draw", Lua "M.helper" or "Obj:method".
		name = method
		if owner == "" && !sc.inFunc {
			if t := baseTypeName(recv); t != "" && (sep == "::" || sep == ":") {
				owner = t
			}
		}
	} else {
		name = full
	}
	if !isIdentifier(name) {
		return "", owner
	}
	return name, owner
}

// declaratorName digs through C/C++ declarators to the declared identifier.
func declaratorName(n *tree_sitter.Node) *tree_sitter.Node {
	return declaratorIdent(n.ChildByFieldName("declarator"))
}

func declaratorIdent(d *tree_sitter.Node) *tree_sitter.Node {
	for depth := 0; d != nil && depth < 8; depth++ {
		switch d.Kind() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return d
		}
		next := d.ChildByFieldName("declarator")
		if next == nil {
			next = d.ChildByFieldName("name")
		}
		d = next
	}
	return nil
}

var namingParents = map[string]bool{
	"variable_declarator":     true,
	"variable_declaration":    true,
	"lexical_declaration":     true,
	"pair":                    true,
	"assignment":              true,
	"assignment_expression":   true,
	"public_field_definition": true,
	"field_definition":        true,
	"property_declaration":    true,
}

// nameFromParent names anonymous functions and classes bound to a
// variable, field or object key.
func (e *extractor) nameFromParent(n *tree_sitter.Node) string {
	parent := n.Parent()
	if parent == nil || !namingParents[parent.Kind()] {
		return ""
	}
	for _, field := range []string{"name", "key", "property", "left"} {
		if c := parent.ChildByFieldName(field); c != nil {
			if t := e.text(c); isIdentifier(t) {
				return t
			}
			return ""
		}
	}
	for _, c := range namedChildren(parent) {
		if identifierKinds[c.Kind()] {
			return e.text(c)
		}
	}
	return ""
}

// declNames returns the identifiers a declaration binds.
func (e *extractor) declNames(n *tree_sitter.Node) []string {
	var out []string
	add := func(c *tree_sitter.Node) {
		if c == nil {
			return
		}
		switch c.Kind() {
		case "expression_list", "identifier_list", "pattern_list", "tuple_pattern":
			for _, id := range namedChildren(c) {
				if identifierKinds[id.Kind()] {
					out = append(out, e.text(id))
				}
			}
			return
		}
		if t := e.text(c); isIdentifier(t) {
			out = append(out, t)
		}
	}
	for _, field := range []string{"name", "left", "pattern"} {
		if cs := fieldChildren(n, field); len(cs) > 0 {
			for _, c := range cs {
				add(c)
			}
			return out
		}
	}
	for _, d := range fieldChildren(n, "declarator") {
		if d.Kind() == "function_declarator" {
			continue
		}
		if nm := d.ChildByFieldName("name"); nm != nil {
			add(nm)
		} else if id := declaratorIdent(d); id != nil {
			add(id)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range namedChildren(n) {
		switch {
		case c.Kind() == "variable_declarator":
			if nm := c.ChildByFieldName("name"); nm != nil {
				add(nm)
			} else if first := c.NamedChild(0); first != nil {
				add(first)
			}
		case c.Kind() == "variable_declaration" || c.Kind() == "property_element":
			out = append(out, e.declNames(c)...)
		case identifierKinds[c.Kind()] || c.Kind() == "variable_name":
			if len(out) == 0 {
				add(c)
			}
		}
	}
	return out
}

// valueOf returns the initializer of a declaration.
func (e *extractor) valueOf(n *tree_sitter.Node) *tree_sitter.Node {
	v := n.ChildByFieldName("value")
	if v == nil {
		v = n.ChildByFieldName("right")
	}
	if v == nil {
		for _, d := range append(fieldChildren(n, "declarator"), namedChildren(n)...) {
			if d.Kind() == "variable_declarator" || d.Kind() == "init_declarator" {
				if dv := d.ChildByFieldName("value"); dv != nil {
					v = dv
					break
				}
				if cnt := d.NamedChildCount(); cnt > 1 {
					v = d.NamedChild(cnt - 1)
					break
				}
			}
		}
	}
	if v == nil {
		if cnt := n.NamedChildCount(); cnt > 1 {
			if last := n.NamedChild(cnt - 1); e.bindsDeclaration(last) {
				v = last
			}
		}
	}
	if v != nil && v.Kind() == "expression_list" {
		v = v.NamedChild(0)
	}
	return v
}

// bindsDeclaration reports whether v is a function or type that will be
// named after the declaration holding it.
func (e *extractor) bindsDeclaration(v *tree_sitter.Node) bool {
	if v == nil {
		return false
	}
	return e.functions[v.Kind()] || e.spec.TypeNodeKinds[v.Kind()] != ""
}

func (e *extractor) typeDecl(n *tree_sitter.Node, sc scope) {
	name := ""
	if nm := n.ChildByFieldName("name"); nm != nil {
		name = e.text(nm)
	} else {
		for _, c := range namedChildren(n) {
			if identifierKinds[c.Kind()] {
				name = e.text(c)
				break
			}
		}
	}
	if name == "" || !isIdentifier(name) {
		name = e.nameFromParent(n)
	}
	if name == "" {
		e.visitChildren(n, sc)
		return
	}

	kind := e.spec.TypeNodeKinds[n.Kind()]
	if body := n.ChildByFieldName("type"); body != nil {
		if bk, ok := e.spec.TypeBodyKinds[body.Kind()]; ok {
			kind = bk
		}
	}
	if hasTokenChild(n, "interface") {
		kind = types.KindInterface
	}

	r := e.addSymbol(n, name, kind, e.signature(n), symbolScope(sc))
	if sc.typeName != "" && !sc.inFunc {
		e.f.defines = append(e.f.defines, Relation{From: sc.typeName, To: name, Range: r})
	}
	for _, c := range namedChildren(n) {
		if rel, ok := e.spec.HeritageNodeTypes[c.Kind()]; ok {
			e.heritage(name, kind, c, rel, r)
		}
	}

	inner := scope{typeName: name, typeKind: kind}
	if sc.inFunc {
		inner.funcName, inner.funcRange = sc.funcName, sc.funcRange
	}
	e.visitChildren(n, inner)
}

func (e *extractor) heritage(name string, kind types.SymbolKind, n *tree_sitter.Node, def types.RelationKind, declRange types.Range) {
	constructorStyle := strings.HasPrefix(n.Kind(), "delegation_specifier")
	rel := def
	skipNext := false
	for _, tok := range heritageTokens(e.text(n)) {
		if skipNext {
			skipNext = false
			continue
		}
		switch tok {
		case "extends":
			rel = types.Extends
			continue
		case "implements", "with":
			rel = types.Implements
			continue
		case "by":
			skipNext = true
			continue
		case "public", "private", "protected", "virtual", "internal", "final", "sealed":
			continue
		}
		if strings.Contains(tok, "=") {
			continue
		}
		base := baseTypeName(tok)
		if base == "" || base == name || base == "object" || base == "Object" {
			continue
		}
		r := rel
		if constructorStyle {
			r = types.Implements
			if strings.Contains(tok, "(") {
				r = types.Extends
			}
		}
		if p := e.spec.InterfacePrefix; p != "" && len(base) > len(p) && strings.HasPrefix(base, p) && isTypeLike(base[len(p):]) {
			r = types.Implements
		}
		if kind == types.KindInterface || kind == types.KindTrait {
			r = types.Extends
		}
		fact := Relation{From: name, To: base, Range: declRange, FromRange: &declRange}
		if r == types.Implements {
			e.f.implements = append(e.f.implements, fact)
		} else {
			e.f.extends = append(e.f.extends, fact)
		}
	}
}

// implBlock handles Rust impl blocks: methods inside belong to the target
// type, and a trait impl is an implements fact.
func (e *extractor) implBlock(n *tree_sitter.Node, sc scope) {
	target := baseTypeName(e.text(n.ChildByFieldName("type")))
	trait := ""
	if t := n.ChildByFieldName("trait"); t != nil {
		trait = baseTypeName(e.text(t))
	}
	if target != "" && trait != "" {
		r := rangeOf(n)
		e.f.implements = append(e.f.implements, Relation{From: target, To: trait, Range: r, FromRange: &r})
	}
	inner := scope{typeName: target, trait: trait}
	if target == "" {
		inner = sc
	}
	e.visitChildren(n, inner)
}

func (e *extractor) module(n *tree_sitter.Node, sc scope) {
	if nm := n.ChildByFieldName("name"); nm != nil {
		e.addSymbol(n, e.text(nm), types.KindModule, e.signature(n), symbolScope(sc))
	}
	e.visitChildren(n, sc)
}

func (e *extractor) field(n *tree_sitter.Node, sc scope) {
	if e.bindsDeclaration(e.valueOf(n)) {
		return
	}
	sig := compactSignature(firstLine(e.text(n)))
	for _, name := range e.declNames(n) {
		r := e.addSymbol(n, name, types.KindField, sig, symbolScope(sc))
		e.f.defines = append(e.f.defines, Relation{From: sc.typeName, To: name, Range: r, Trait: sc.trait})
	}
	if t := e.declaredType(n); t != "" {
		e.addUse(sc.typeName, t, rangeOf(n), nil)
	}
}

func (e *extractor) constant(n *tree_sitter.Node, sc scope, kind types.SymbolKind) {
	if e.bindsDeclaration(e.valueOf(n)) {
		return
	}
	if sc.typeName != "" {
		e.field(n, sc)
		return
	}
	sig := compactSignature(firstLine(e.text(n)))
	for _, name := range e.declNames(n) {
		e.addSymbol(n, name, kind, sig, symbolScope(sc))
	}
}

// declaredType returns the non-primitive head type of a declaration.
func (e *extractor) declaredType(n *tree_sitter.Node) string {
	t := n.ChildByFieldName("type")
	if t == nil {
		for _, c := range namedChildren(n) {
			if c.Kind() == "type_annotation" || c.Kind() == "user_type" {
				t = c
				break
			}
		}
	}
	if t == nil {
		return ""
	}
	name := baseTypeName(e.text(t))
	if primitiveTypes[name] {
		return ""
	}
	return name
}

// constructedType infers the type of an initializer: T{}, &T{}, new T(),
// T::new(), T().
func (e *extractor) constructedType(v *tree_sitter.Node) string {
	if v == nil {
		return ""
	}
	switch v.Kind() {
	case "unary_expression", "reference_expression", "await_expression", "parenthesized_expression":
		if inner := v.NamedChild(0); inner != nil {
			return e.constructedType(inner)
		}
	case "composite_literal", "object_creation_expression", "new_expression":
		for _, f := range []string{"type", "constructor"} {
			if t := v.ChildByFieldName(f); t != nil {
				return baseTypeName(e.text(t))
			}
		}
		if c := v.NamedChild(0); c != nil {
			return baseTypeName(e.text(c))
		}
	case "struct_expression":
		return baseTypeName(e.text(v.ChildByFieldName("name")))
	}
	if !e.calls[v.Kind()] {
		return ""
	}
	recv, method, sep := splitCallee(e.calleeExpr(v))
	switch {
	case sep == "::" && isTypeLike(baseTypeName(recv)):
		return baseTypeName(recv)
	case sep == "" && isTypeLike(method):
		return method
	}
	return ""
}

func (e *extractor) variable(n *tree_sitter.Node, sc scope) {
	t := e.declaredType(n)
	if t == "" {
		t = e.constructedType(e.valueOf(n))
	}
	if t == "" || primitiveTypes[t] {
		return
	}
	r := rangeOf(n)
	for _, name := range e.declNames(n) {
		if e.selfNames[name] {
			continue
		}
		e.f.varTypes = append(e.f.varTypes, VariableType{Variable: name, Type: t, Range: r})
	}
	fr := sc.funcRange
	e.addUse(sc.funcName, t, r, &fr)
}

func (e *extractor) addUse(from, to string, r types.Range, fromRange *types.Range) {
	if from == "" || to == "" || from == to {
		return
	}
	key := [2]string{from, to}
	if e.seenUses[key] {
		return
	}
	e.seenUses[key] = true
	e.f.uses = append(e.f.uses, Relation{From: from, To: to, Range: r, FromRange: fromRange})
}

// calleeExpr returns the textual callee of a call node.
func (e *extractor) calleeExpr(n *tree_sitter.Node) string {
	for _, f := range []string{"function", "macro"} {
		if c := n.ChildByFieldName(f); c != nil {
			return e.text(c)
		}
	}
	if nm := n.ChildByFieldName("name"); nm != nil {
		if o := n.ChildByFieldName("object"); o != nil {
			return e.text(o) + "." + e.text(nm)
		}
		if s := n.ChildByFieldName("scope"); s != nil {
			return e.text(s) + "::" + e.text(nm)
		}
		return e.text(nm)
	}
	for _, f := range []string{"constructor", "type"} {
		if c := n.ChildByFieldName(f); c != nil {
			return e.text(c)
		}
	}
	if c := n.NamedChild(0); c != nil {
		return e.text(c)
	}
	return ""
}

func (e *extractor) call(n *tree_sitter.Node, sc scope) {
	if sc.funcName == "" {
		return
	}
	receiver, method, sep := splitCallee(e.calleeExpr(n))
	method = strings.TrimSpace(method)
	if !isIdentifier(method) {
		return
	}
	r := rangeOf(n)
	if receiver == "" {
		e.f.calls = append(e.f.calls, Call{Caller: sc.funcName, Callee: method, Range: r, CallerRange: sc.funcRange})
		return
	}
	receiver = strings.TrimSpace(receiver)
	mc := MethodCall{
		Caller:   sc.funcName,
		Method:   method,
		Receiver: receiver,
		Range:    r,
	}
	fr := sc.funcRange
	mc.CallerRange = &fr
	switch {
	case e.selfNames[receiver]:
		mc.ReceiverType = sc.typeName
		mc.IsStatic = sep == "::" || receiver == "Self"
	case sep == "::" || (isTypeLike(baseTypeName(receiver)) && isIdentifier(receiver)):
		mc.IsStatic = true
		mc.ReceiverType = baseTypeName(receiver)
	}
	e.f.methodCalls = append(e.f.methodCalls, mc)
}

// signature is the declaration text up to its body.
func (e *extractor) signature(n *tree_sitter.Node) string {
	var sig string
	if b := n.ChildByFieldName("body"); b != nil {
		sig = string(e.src[n.StartByte():b.StartByte()])
	} else {
		sig = firstLine(e.text(n))
	}
	sig = compactSignature(sig)
	if exportedByParent(n) {
		sig = "export " + sig
	}
	return sig
}

// exportedByParent reports whether n sits under a JS/TS export statement.
func exportedByParent(n *tree_sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "export_statement":
			return true
		case "variable_declarator", "lexical_declaration", "variable_declaration":
			continue
		}
		return false
	}
	return false
}

// docParents wrap a declaration; their leading comments document it.
var docParents = map[string]bool{
	"export_statement":     true,
	"decorated_definition": true,
	"lexical_declaration":  true,
	"variable_declarator":  true,
	"type_declaration":     true,
	"const_declaration":    true,
	"var_declaration":      true,
}

// doc collects the comments directly above n, or a Python docstring.
func (e *extractor) doc(n *tree_sitter.Node) string {
	target := n
	for p := n.Parent(); p != nil; p = p.Parent() {
		k := p.Kind()
		if docParents[k] {
			target = p
			continue
		}
		break
	}
	var parts []string
	row := target.StartPosition().Row
	for prev := target.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if !strings.Contains(prev.Kind(), "comment") || prev.EndPosition().Row+1 < row {
			break
		}
		parts = append([]string{cleanComment(e.text(prev))}, parts...)
		row = prev.StartPosition().Row
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if e.spec.Language == lang.Python {
		if body := n.ChildByFieldName("body"); body != nil {
			if first := body.NamedChild(0); first != nil && first.Kind() == "expression_statement" {
				if s := first.NamedChild(0); s != nil && s.Kind() == "string" {
					return cleanDocstring(e.text(s))
				}
			}
		}
	}
	return ""
}

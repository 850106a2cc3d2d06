// Package types holds the data model shared by every indexing stage.
package types

import "fmt"

// FileID identifies an indexed file. Zero is never a valid id.
type FileID uint32

// SymbolID identifies an indexed symbol. Zero is never a valid id.
type SymbolID uint32

// Valid reports whether the id was assigned.
func (id FileID) Valid() bool { return id != 0 }

// Valid reports whether the id was assigned.
func (id SymbolID) Valid() bool { return id != 0 }

// LanguageID names a source language ("go", "rust", ...).
type LanguageID string

// Range is a source span in zero-based lines and byte columns.
type Range struct {
	StartLine   uint32 `json:"start_line"`
	StartColumn uint32 `json:"start_column"`
	EndLine     uint32 `json:"end_line"`
	EndColumn   uint32 `json:"end_column"`
}

// NewRange builds a Range.
func NewRange(startLine, startCol, endLine, endCol uint32) Range {
	return Range{StartLine: startLine, StartColumn: startCol, EndLine: endLine, EndColumn: endCol}
}

// Contains reports whether the point (line, col) lies inside r.
// The start is inclusive and the end exclusive.
func (r Range) Contains(line, col uint32) bool {
	if line < r.StartLine || line > r.EndLine {
		return false
	}
	if line == r.StartLine && col < r.StartColumn {
		return false
	}
	if line == r.EndLine && col >= r.EndColumn {
		return false
	}
	return true
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

// SymbolKind classifies a symbol.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindClass     SymbolKind = "class"
	KindEnum      SymbolKind = "enum"
	KindTrait     SymbolKind = "trait"
	KindInterface SymbolKind = "interface"
	KindTypeAlias SymbolKind = "type_alias"
	KindModule    SymbolKind = "module"
	KindField     SymbolKind = "field"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindMacro     SymbolKind = "macro"
)

// IsType reports whether symbols of this kind can own members.
func (k SymbolKind) IsType() bool {
	switch k {
	case KindStruct, KindClass, KindEnum, KindTrait, KindInterface, KindTypeAlias:
		return true
	}
	return false
}

// Visibility is the access level of a symbol.
type Visibility int

const (
	Private Visibility = iota
	Module
	Crate
	Public
)

func (v Visibility) String() string {
	switch v {
	case Module:
		return "module"
	case Crate:
		return "crate"
	case Public:
		return "public"
	default:
		return "private"
	}
}

// ParseVisibilityName is the inverse of Visibility.String.
func ParseVisibilityName(s string) Visibility {
	switch s {
	case "module":
		return Module
	case "crate":
		return Crate
	case "public":
		return Public
	default:
		return Private
	}
}

// ScopeKind tells where a symbol was declared.
type ScopeKind string

const (
	ScopeUnknown     ScopeKind = ""
	ScopeModuleLevel ScopeKind = "module"
	ScopeClassMember ScopeKind = "member"
	ScopeLocal       ScopeKind = "local"
)

// ScopeContext records the declaring scope. Parent is the enclosing type
// for members and the enclosing function for locals.
type ScopeContext struct {
	Kind   ScopeKind `json:"kind,omitempty"`
	Parent string    `json:"parent,omitempty"`
}

// Symbol is a named, located code entity with an assigned identity.
type Symbol struct {
	ID         SymbolID     `json:"id"`
	Name       string       `json:"name"`
	Kind       SymbolKind   `json:"kind"`
	FileID     FileID       `json:"file_id"`
	FilePath   string       `json:"file_path"`
	Range      Range        `json:"range"`
	Signature  string       `json:"signature,omitempty"`
	Doc        string       `json:"doc,omitempty"`
	Visibility Visibility   `json:"visibility"`
	ModulePath string       `json:"module_path,omitempty"`
	Scope      ScopeContext `json:"scope"`
	Language   LanguageID   `json:"language,omitempty"`
}

// RelationKind is the kind of a directed edge between two symbols.
type RelationKind string

const (
	Calls      RelationKind = "calls"
	Implements RelationKind = "implements"
	Extends    RelationKind = "extends"
	Uses       RelationKind = "uses"
	Defines    RelationKind = "defines"
)

// RelationshipMetadata carries optional call-site details.
type RelationshipMetadata struct {
	Line         uint32 `json:"line,omitempty"`
	Column       uint32 `json:"column,omitempty"`
	Receiver     string `json:"receiver,omitempty"`
	ReceiverType string `json:"receiver_type,omitempty"`
	IsStatic     bool   `json:"is_static,omitempty"`
	// Trait is set on defines edges that come from a trait or interface
	// implementation block.
	Trait string `json:"trait,omitempty"`
}

// Import is one import statement of a file.
type Import struct {
	Path       string `json:"path"`
	Name       string `json:"name,omitempty"`
	Alias      string `json:"alias,omitempty"`
	IsGlob     bool   `json:"is_glob,omitempty"`
	IsTypeOnly bool   `json:"is_type_only,omitempty"`
	FileID     FileID `json:"file_id"`
}

// Relationship is a resolved edge. Both endpoints existed in the lookup
// cache when it was produced.
type Relationship struct {
	FromID   SymbolID              `json:"from_id"`
	ToID     SymbolID              `json:"to_id"`
	Kind     RelationKind          `json:"kind"`
	Metadata *RelationshipMetadata `json:"metadata,omitempty"`
}

// FileInfo is the change-tracking record of one indexed file.
type FileInfo struct {
	ID        FileID     `json:"id"`
	Path      string     `json:"path"`
	Hash      string     `json:"hash"`
	Language  LanguageID `json:"language"`
	IndexedAt int64      `json:"indexed_at"` // UTC seconds
}

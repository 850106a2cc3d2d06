package parser

import (
	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/types"
)

// Call is a plain call site inside a named function.
type Call struct {
	Caller      string
	Callee      string
	Range       types.Range // call site
	CallerRange types.Range // caller definition
}

// MethodCall is a call through a receiver (obj.m(), Type::m(), self.m()).
type MethodCall struct {
	Caller       string
	Method       string
	Receiver     string
	ReceiverType string // static type of the receiver when known
	IsStatic     bool
	Range        types.Range
	CallerRange  *types.Range
}

// Relation is a name-to-name fact such as (type, trait) or (definer, member).
type Relation struct {
	From  string
	To    string
	Range types.Range
	// FromRange is the definition of From when it is known.
	FromRange *types.Range
	// Trait is set on defines facts that come from an implementation block.
	Trait string
}

// VariableType binds a variable name to its declared or constructed type.
type VariableType struct {
	Variable string
	Type     string
	Range    types.Range
}

// LanguageParser is the per-language parsing capability. Implementations
// are not safe for concurrent use.
type LanguageParser interface {
	Language() lang.Language
	// Parse returns the symbols of content. Ids are placeholders local to
	// this call.
	Parse(content []byte, fileID types.FileID) ([]types.Symbol, error)
	FindCalls(content []byte) ([]Call, error)
	FindMethodCalls(content []byte) ([]MethodCall, error)
	FindImplementations(content []byte) ([]Relation, error)
	FindExtends(content []byte) ([]Relation, error)
	FindUses(content []byte) ([]Relation, error)
	FindDefines(content []byte) ([]Relation, error)
	FindImports(content []byte, fileID types.FileID) ([]types.Import, error)
	FindVariableTypes(content []byte) ([]VariableType, error)
	Close()
}

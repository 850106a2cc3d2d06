// Package traits records which types implement which traits or interfaces
// and answers which trait a method on a type comes from.
package traits

import (
	"sort"
	"sync"

	"github.com/DeusData/codebase-index/internal/types"
)

type traitImpl struct {
	trait string
	file  types.FileID
}

type typeMethod struct {
	typ, method string
}

// Resolver is safe for concurrent use.
type Resolver struct {
	mu           sync.RWMutex
	typeTraits   map[string][]traitImpl
	traitMethods map[string][]string
	methodTrait  map[typeMethod]string
}

// New creates an empty resolver.
func New() *Resolver {
	return &Resolver{
		typeTraits:   make(map[string][]traitImpl),
		traitMethods: make(map[string][]string),
		methodTrait:  make(map[typeMethod]string),
	}
}

// AddTraitImpl records that typ implements trait, declared in file.
func (r *Resolver) AddTraitImpl(typ, trait string, file types.FileID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ti := range r.typeTraits[typ] {
		if ti.trait == trait {
			return
		}
	}
	r.typeTraits[typ] = append(r.typeTraits[typ], traitImpl{trait: trait, file: file})
}

// AddTraitMethods replaces the method list declared by trait.
func (r *Resolver) AddTraitMethods(trait string, methods []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traitMethods[trait] = append([]string(nil), methods...)
}

// AddTypeMethod records that method on typ is provided for trait.
func (r *Resolver) AddTypeMethod(typ, method, trait string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methodTrait[typeMethod{typ, method}] = trait
}

// ResolveMethodTrait returns the trait that method on typ comes from. A
// direct AddTypeMethod fact wins; otherwise the traits typ implements are
// searched, in registration order, for one declaring method.
func (r *Resolver) ResolveMethodTrait(typ, method string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.methodTrait[typeMethod{typ, method}]; ok {
		return t, true
	}
	for _, ti := range r.typeTraits[typ] {
		for _, m := range r.traitMethods[ti.trait] {
			if m == method {
				return ti.trait, true
			}
		}
	}
	return "", false
}

// ImplementedTraits lists the traits typ implements.
func (r *Resolver) ImplementedTraits(typ string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.typeTraits[typ]))
	for _, ti := range r.typeTraits[typ] {
		out = append(out, ti.trait)
	}
	return out
}

// TraitMethods returns the methods declared by trait.
func (r *Resolver) TraitMethods(trait string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.traitMethods[trait]
	return append([]string(nil), m...), ok
}

// Impl is a type/trait pair found by InferImplementations.
type Impl struct {
	Type, Trait string
}

// InferImplementations matches method sets against the declared traits for
// structurally typed languages: a type implements a trait when it has every
// method the trait declares. Traits without methods never match. New pairs
// are registered and returned in type, then trait order.
func (r *Resolver) InferImplementations(typeMethods map[string][]string, files map[string]types.FileID) []Impl {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []Impl
	for _, typ := range sortedKeys(typeMethods) {
		set := make(map[string]bool, len(typeMethods[typ]))
		for _, m := range typeMethods[typ] {
			set[m] = true
		}
		for _, trait := range sortedKeys(r.traitMethods) {
			declared := r.traitMethods[trait]
			if trait == typ || len(declared) == 0 || !satisfies(declared, set) || r.implements(typ, trait) {
				continue
			}
			r.typeTraits[typ] = append(r.typeTraits[typ], traitImpl{trait: trait, file: files[typ]})
			found = append(found, Impl{Type: typ, Trait: trait})
		}
	}
	return found
}

func (r *Resolver) implements(typ, trait string) bool {
	for _, ti := range r.typeTraits[typ] {
		if ti.trait == trait {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func satisfies(declared []string, methods map[string]bool) bool {
	for _, m := range declared {
		if !methods[m] {
			return false
		}
	}
	return true
}

// Clear drops every recorded fact.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.typeTraits)
	clear(r.traitMethods)
	clear(r.methodTrait)
}

// Package scope implements the symbol/scope graph of spec §3.1/§4.B:
// named entities (types, constants, variables) organized into nested
// symbol scopes with a `uses` list for the prelude module.
//
// Grounded on trunk/src/langobj.h's ShScope/ShState/ShModule hierarchy.
// Per spec §9's design note, ownership is modeled as "Scope owns its
// Types/Vars/Consts by value-of-pointer; Type.Owner is a weak
// back-reference" (types.Owner), which dissolves the original's cyclic
// ShType<->ShScope ownership without needing a GC.
package scope

import (
	"sort"

	"shannon/internal/bytecode"
	"shannon/internal/errors"
	"shannon/internal/types"
	"shannon/internal/value"
	"shannon/internal/vecbuf"
)

// Variable is a named, typed entity with an offset either in the
// module data segment or in the local stack frame (spec §3.1
// "Variable").
type Variable struct {
	NameStr string
	Type    types.Type
	Offset  int
	// Slot is the variable's index into its owning segment's flat
	// value.Value storage array (data segment or locals frame). Offset
	// keeps tracking the byte-aligned layout a reader familiar with the
	// original memory model expects; Slot is what the VM actually
	// indexes with, since this implementation's storage is an array of
	// tagged value.Value rather than raw bytes.
	Slot  int
	Local bool
}

func (v *Variable) symbolName() string { return v.NameStr }

// Constant is a named, typed entity holding a value captured at
// definition time (spec §3.1 "Constant"). Type aliases are constants of
// type TypeRef holding the aliased type (spec §4.B).
type Constant struct {
	NameStr string
	Type    types.Type
	Value   value.Value
}

func (c *Constant) symbolName() string { return c.NameStr }

// symbol is the unexported common interface Variable and Constant
// satisfy, letting SymScope's table hold either without an interface
// exported to callers (callers always know which kind they're looking
// for via the typed accessors below).
type symbol interface {
	symbolName() string
}

// SymScope holds a parent pointer, a sorted-by-name symbol table, and a
// `uses` list of other scopes searched after local symbols and before
// the parent (spec §4.B) — in practice the prelude/built-in module.
type SymScope struct {
	parent  *SymScope
	symbols []symbol // sorted by NameStr
	uses    []*SymScope
}

func NewSymScope(parent *SymScope) *SymScope {
	return &SymScope{parent: parent}
}

// Uses appends a non-owning reference to another scope searched during
// name resolution (spec §4.B: "typically the prelude module").
func (s *SymScope) Uses(other *SymScope) {
	s.uses = append(s.uses, other)
}

func (s *SymScope) indexOf(name string) (int, bool) {
	i := sort.Search(len(s.symbols), func(i int) bool { return s.symbols[i].symbolName() >= name })
	if i < len(s.symbols) && s.symbols[i].symbolName() == name {
		return i, true
	}
	return i, false
}

// insert adds sym to the sorted table, failing with Duplicate if the
// name already exists (spec §4.B).
func (s *SymScope) insert(sym symbol) error {
	i, found := s.indexOf(sym.symbolName())
	if found {
		return errors.Duplicatef(errors.Location{}, sym.symbolName())
	}
	s.symbols = append(s.symbols, nil)
	copy(s.symbols[i+1:], s.symbols[i:])
	s.symbols[i] = sym
	return nil
}

// Find does a single-scope binary search (spec §4.B "find(name)").
func (s *SymScope) Find(name string) (interface{}, bool) {
	if i, ok := s.indexOf(name); ok {
		return s.symbols[i], true
	}
	return nil, false
}

// DeepFind searches self, then the uses list from last to first, then
// recurses into parent (spec §4.B "deepFind(name)").
func (s *SymScope) DeepFind(name string) (interface{}, bool) {
	if sym, ok := s.Find(name); ok {
		return sym, true
	}
	for i := len(s.uses) - 1; i >= 0; i-- {
		if sym, ok := s.uses[i].Find(name); ok {
			return sym, true
		}
	}
	if s.parent != nil {
		return s.parent.DeepFind(name)
	}
	return nil, false
}

// Parent exposes the lexical parent scope.
func (s *SymScope) Parent() *SymScope { return s.parent }

// Scope adds three owning lists to SymScope: Types, Vars, Consts (spec
// §4.B).
type Scope struct {
	*SymScope
	Types  []types.Type
	Vars   []*Variable
	Consts []*Constant
}

func NewScope(parent *Scope) *Scope {
	var parentSym *SymScope
	if parent != nil {
		parentSym = parent.SymScope
	}
	return &Scope{SymScope: NewSymScope(parentSym)}
}

// OwnAnonymousType implements types.Owner: attaches ownership of a
// derived type to this scope's anonymous-types list (spec §4.B "Adding
// an anonymous type attaches ownership (setOwner)").
func (s *Scope) OwnAnonymousType(t types.Type) {
	s.Types = append(s.Types, t)
}

// AddNamedType registers a named type under this scope and owns it.
func (s *Scope) AddNamedType(name string, t types.Type) error {
	t.SetName(name)
	t.SetOwner(s)
	if err := s.insert(typeSymbol{name, t}); err != nil {
		return err
	}
	s.Types = append(s.Types, t)
	return nil
}

// typeSymbol lets a named type sit in the SymScope table directly
// (looked up and then type-asserted back to types.Type by callers via
// LookupType).
type typeSymbol struct {
	name string
	t    types.Type
}

func (ts typeSymbol) symbolName() string { return ts.name }

// LookupType resolves name to a type if the found symbol is one,
// searching local-then-uses-then-parent per DeepFind.
func (s *Scope) LookupType(name string) (types.Type, bool) {
	sym, ok := s.DeepFind(name)
	if !ok {
		return nil, false
	}
	if ts, ok := sym.(typeSymbol); ok {
		return ts.t, true
	}
	// A type alias is stored as a Constant of TypeRef type (spec §4.B).
	if c, ok := sym.(*Constant); ok {
		if _, isRef := c.Type.(*types.TypeRef); isRef {
			return c.Value.TypePayload, true
		}
	}
	return nil, false
}

// AddVariable declares a variable in this scope without assigning it an
// offset or slot (Module.AddModuleVariable does that for module
// variables; nothing assigns them for local ones).
func (s *Scope) AddVariable(name string, t types.Type, local bool) (*Variable, error) {
	v := &Variable{NameStr: name, Type: t, Local: local}
	if err := s.insert(v); err != nil {
		return nil, err
	}
	s.Vars = append(s.Vars, v)
	return v, nil
}

// AddConstant declares a named constant holding val.
func (s *Scope) AddConstant(name string, t types.Type, val value.Value) (*Constant, error) {
	c := &Constant{NameStr: name, Type: t, Value: val}
	if err := s.insert(c); err != nil {
		return nil, err
	}
	s.Consts = append(s.Consts, c)
	return c, nil
}

// AddTypeAlias materializes a Constant of type TypeRef holding the
// aliased type (spec §4.B: "Adding a type alias materializes a
// Constant of type TypeRef holding the type pointer").
func (s *Scope) AddTypeAlias(name string, typeRefType *types.TypeRef, aliased types.Type) (*Constant, error) {
	return s.AddConstant(name, typeRefType, value.NewTypeRef(typeRefType, aliased))
}

// Close releases every Vec-storage constant value owned directly by
// this scope, in the destruction order spec §3.3 requires: constants,
// then variables, then types (constants may reference types, so types
// must stay valid until constants are done releasing). Variables never
// carry a value directly (their storage lives in the data segment or
// stack frame and is released by the VM's Fin* opcodes), so this only
// has real work to do for Consts.
func (s *Scope) Close() {
	for _, c := range s.Consts {
		c.Value.Release()
	}
}

// Module is a top-level Scope that additionally owns the source
// filename, the interned vector/string constant buffer, the bytecode
// segment produced by the driver, and the static data size (spec §3.1
// "Module").
type Module struct {
	*Scope
	FileName  string
	VecConsts []*vecbuf.Buf
	Code      *bytecode.CodeSegment
	DataSize  int
}

func NewModule(fileName string) *Module {
	return &Module{Scope: NewScope(nil), FileName: fileName, Code: bytecode.NewCodeSegment()}
}

// InternVec interns a compile-time vector/string constant into the
// module's constant buffer, returning its index for LoadVecConst.
func (m *Module) InternVec(buf *vecbuf.Buf) int {
	m.VecConsts = append(m.VecConsts, buf)
	return len(m.VecConsts) - 1
}

// AddModuleVariable declares a variable in the module's data segment.
// Per the Open Question resolution in SPEC_FULL.md, the offset
// semantics are "assign current DataSize, then advance by the
// variable's aligned size" (post-increment).
func (m *Module) AddModuleVariable(name string, t types.Type) (*Variable, error) {
	v, err := m.Scope.AddVariable(name, t, false)
	if err != nil {
		return nil, err
	}
	v.Offset = m.DataSize
	v.Slot = len(m.Vars) - 1
	m.DataSize += t.AlignedSize()
	return v, nil
}

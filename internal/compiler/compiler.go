// Package compiler implements the single-pass parser driver (the
// "compiler" proper): it consumes tokens from the parser package,
// resolves names and types against the scope package, and emits
// bytecode directly via the codegen package as it goes — there is no
// separate AST stage to walk afterward.
//
// Grounded on the teacher's internal/compiler package for the overall
// shape of a hand-written recursive-descent compiler driving a Chunk
// builder, and on trunk/src/compiler.cpp/codegen.cpp for the
// particular grammar and constant-folding discipline this language
// actually specifies (the teacher's AST/Visitor compiler is not
// reused: this grammar compiles directly from tokens).
package compiler

import (
	"shannon/internal/bytecode"
	"shannon/internal/codegen"
	"shannon/internal/errors"
	"shannon/internal/lexer"
	"shannon/internal/parser"
	"shannon/internal/scope"
	"shannon/internal/types"
	"shannon/internal/value"
	"shannon/internal/vm"
)

// Prelude holds the handful of built-in named types every module sees
// through its scope's `uses` list (the non-owning scope list searched
// during name resolution right after the local scope, ahead of the
// parent — this implementation's home for the built-in module).
type Prelude struct {
	Scope    *scope.Scope
	IntT     *types.Ordinal
	LargeT   *types.Ordinal
	CharT    *types.Ordinal
	BoolT    *types.Ordinal
	StrT     *types.Vector
	VoidT    *types.VoidType
	TypeRefT *types.TypeRef
}

// NewPrelude builds the built-in module: default Int (full int32
// range; an unsuffixed literal outside it is rejected as out of range),
// an explicit full-range Large, Char, Bool, and str (Vector of Char).
func NewPrelude() *Prelude {
	s := scope.NewScope(nil)
	p := &Prelude{Scope: s}
	p.IntT = types.NewInteger(-2147483648, 2147483647)
	p.LargeT = types.NewInteger(-9223372036854775808, 9223372036854775807)
	p.CharT = types.NewChar()
	p.BoolT = types.NewBool()
	p.VoidT = types.NewVoid()
	p.StrT = types.DeriveVectorType(p.CharT, s)
	p.TypeRefT = types.NewTypeRef()
	must(s.AddNamedType("int", p.IntT))
	must(s.AddNamedType("large", p.LargeT))
	must(s.AddNamedType("char", p.CharT))
	must(s.AddNamedType("bool", p.BoolT))
	must(s.AddNamedType("str", p.StrT))
	must(s.AddNamedType("void", p.VoidT))
	return p
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Compiler drives one module's compilation: tokens in, a populated
// scope.Module with a finished bytecode.CodeSegment out. This replaces
// the original's process-wide singletons (the built-in module, the
// runtime stack, the module registry) with an explicit value passed
// down the call chain instead.
type Compiler struct {
	P       *parser.Parser
	Mod     *scope.Module
	Gen     *codegen.CodeGen
	Prelude *Prelude
}

// New wires up a Compiler ready to Compile() src under fileName.
func New(src, fileName string, prelude *Prelude) (*Compiler, error) {
	p, err := parser.New(src, fileName)
	if err != nil {
		return nil, err
	}
	mod := scope.NewModule(fileName)
	mod.Uses(prelude.Scope.SymScope)
	return &Compiler{P: p, Mod: mod, Gen: codegen.New(mod), Prelude: prelude}, nil
}

// Compile parses the whole module: a header followed by a sequence of
// def/const/var definitions, and finishes the code segment with an End
// opcode.
func (c *Compiler) Compile() (*scope.Module, error) {
	if err := c.header(); err != nil {
		return nil, err
	}
	c.P.SkipBlankSeps()
	for c.P.Peek() != lexer.EOF {
		if err := c.definition(); err != nil {
			return nil, err
		}
		if err := c.P.SkipSep(); err != nil {
			return nil, err
		}
		c.P.SkipBlankSeps()
	}
	c.Gen.Seg.Emit(bytecode.End, c.P.LineNum)
	return c.Mod, nil
}

func (c *Compiler) header() error {
	if err := c.P.Skip(lexer.Module, "module header"); err != nil {
		return err
	}
	if _, err := c.P.GetIdent(); err != nil {
		return err
	}
	return c.P.SkipSep()
}

func (c *Compiler) definition() error {
	c.Gen.Line = c.P.LineNum
	switch c.P.Peek() {
	case lexer.Def:
		return c.defStmt()
	case lexer.Const:
		return c.constStmt()
	case lexer.Var:
		return c.varStmt()
	default:
		return c.P.Errorf("expected a definition (def/const/var), found %s", c.P.Peek())
	}
}

// defStmt parses `def IDENT = <const-expr>` (type alias) or
// `def enum IDENT = (a, b, c)` (enum + constants).
func (c *Compiler) defStmt() error {
	c.P.Next() // def
	if c.P.Peek() == lexer.Enum {
		return c.defEnum()
	}
	name, err := c.P.GetIdent()
	if err != nil {
		return err
	}
	if err := c.P.Skip(lexer.Eq, "def"); err != nil {
		return err
	}
	t, err := c.constTypeExpr()
	if err != nil {
		return err
	}
	if _, err := c.Mod.AddTypeAlias(name, c.Prelude.TypeRefT, t); err != nil {
		return err
	}
	return nil
}

func (c *Compiler) defEnum() error {
	c.P.Next() // enum
	name, err := c.P.GetIdent()
	if err != nil {
		return err
	}
	if err := c.P.Skip(lexer.Eq, "def enum"); err != nil {
		return err
	}
	if err := c.P.Skip(lexer.LParen, "enum constant list"); err != nil {
		return err
	}
	var consts []string
	for {
		ident, err := c.P.GetIdent()
		if err != nil {
			return err
		}
		consts = append(consts, ident)
		if !c.P.SkipIf(lexer.Comma) {
			break
		}
	}
	if err := c.P.Skip(lexer.RParen, "enum constant list"); err != nil {
		return err
	}
	enumT, err := types.NewEnum(consts)
	if err != nil {
		return err
	}
	if err := c.Mod.AddNamedType(name, enumT); err != nil {
		return err
	}
	for i, cname := range consts {
		if _, err := c.Mod.AddConstant(cname, enumT, value.NewEnum(enumT, int64(i))); err != nil {
			return err
		}
	}
	return nil
}

// constStmt parses `const [TYPE] IDENT = <expr>`, folding the
// initializer to a compile-time value: every `const` initializer in
// this language is required to be constant-foldable.
func (c *Compiler) constStmt() error {
	c.P.Next() // const
	hint, err := c.optionalTypeHint()
	if err != nil {
		return err
	}
	name, err := c.P.GetIdent()
	if err != nil {
		return err
	}
	if err := c.P.Skip(lexer.Eq, "const"); err != nil {
		return err
	}
	mark := c.Gen.MarkExprStart()
	exprType, err := c.expr(hint)
	if err != nil {
		return err
	}
	v, err := c.runConst(mark)
	if err != nil {
		return err
	}
	if hint != nil && !types.CanAssign(hint, exprType) {
		return c.P.Errorf("cannot assign %s to %s", exprType.Name(), hint.Name())
	}
	resultType := exprType
	if hint != nil {
		resultType = hint
	}
	if _, err := c.Mod.AddConstant(name, resultType, v); err != nil {
		return err
	}
	return nil
}

// varStmt parses `var [TYPE] IDENT [= <expr>]`. With an initializer,
// the expression compiles as ordinary (possibly non-constant) code
// ending in a store into the new module variable; without one, the
// variable keeps the zero value the VM's zero-initialized data segment
// already provides.
func (c *Compiler) varStmt() error {
	c.P.Next() // var
	hint, err := c.optionalTypeHint()
	if err != nil {
		return err
	}
	name, err := c.P.GetIdent()
	if err != nil {
		return err
	}
	if !c.P.SkipIf(lexer.Eq) {
		if hint == nil {
			return c.P.Errorf("var %s needs either a type or an initializer", name)
		}
		_, err := c.Mod.AddModuleVariable(name, hint)
		return err
	}
	exprType, err := c.expr(hint)
	if err != nil {
		return err
	}
	if hint != nil && !types.CanAssign(hint, exprType) {
		return c.P.Errorf("cannot assign %s to %s", exprType.Name(), hint.Name())
	}
	declType := exprType
	if hint != nil {
		declType = hint
	}
	v, err := c.Mod.AddModuleVariable(name, declType)
	if err != nil {
		return err
	}
	c.Gen.StoreVar(v)
	return nil
}

// optionalTypeHint peeks for a leading type name before the
// declaration's identifier (`const int x = ...` vs `const x = ...`):
// a bare identifier immediately followed by another identifier names a
// type, since no expression can start with two consecutive bare idents.
func (c *Compiler) optionalTypeHint() (types.Type, error) {
	if c.P.Peek() == lexer.Ident && c.P.PeekN(1) == lexer.Ident {
		return c.typeExpr()
	}
	return nil, nil
}

// constTypeExpr parses the right-hand side of `def IDENT =`, which may
// be a plain type name/derivation or a subrange constant expression
// (e.g. `def Digit = 0..9`).
func (c *Compiler) constTypeExpr() (types.Type, error) {
	if c.P.Peek() == lexer.Ident {
		if _, ok := c.Mod.LookupType(c.P.PeekIdentText()); ok {
			return c.typeExpr()
		}
	}
	mark := c.Gen.MarkExprStart()
	if _, err := c.expr(nil); err != nil {
		return nil, err
	}
	v, err := c.runConst(mark)
	if err != nil {
		return nil, err
	}
	lo, hi := v.RangeBounds()
	return c.Prelude.IntT.DeriveOrdinalFromRange(int64(lo), int64(hi), c.Mod.Scope)
}

// runConst folds the expression emitted since mark into a Value, short
// -circuiting when the gen stack's top item is already a literal, and
// otherwise running the emitted snippet through the VM with a null
// data segment.
func (c *Compiler) runConst(mark int) (value.Value, error) {
	top := c.Gen.Top()
	if top.IsValue {
		c.Gen.Seg.Truncate(mark)
		return top.Value, nil
	}
	v, err := vm.RunConstExpr(c.Gen.Seg, mark)
	if err != nil {
		return value.Zero, errors.Wrap(errors.Internal, errors.Location{File: c.P.FileName, Line: c.Gen.Line}, err, "constant expression did not fold")
	}
	c.Gen.Seg.Truncate(mark)
	return v, nil
}

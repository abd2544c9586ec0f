// Expression and type-expression parsing: the precedence grammar of
// this language, compiled directly into bytecode as each production
// returns, per the parser driver's "signature (CodeGen) -> Type"
// discipline — every production leaves exactly one gen-stack entry
// holding its result's type (and, when foldable, its value).
package compiler

import (
	"shannon/internal/bytecode"
	"shannon/internal/lexer"
	"shannon/internal/scope"
	"shannon/internal/types"
	"shannon/internal/value"
	"shannon/internal/vecbuf"
)

// typeExpr parses a type name with optional derivators: `T[]`
// (vector), `T[U]` (array/set), `T[..]` (range of T).
func (c *Compiler) typeExpr() (types.Type, error) {
	name, err := c.P.GetIdent()
	if err != nil {
		return nil, err
	}
	base, ok := c.Mod.LookupType(name)
	if !ok {
		return nil, c.P.Errorf("unknown type %q", name)
	}
	for c.P.Peek() == lexer.LBrack {
		c.P.Next()
		switch {
		case c.P.Peek() == lexer.RBrack:
			c.P.Next()
			base = types.DeriveVectorType(base, c.Mod.Scope)
		case c.P.Peek() == lexer.Dot2:
			c.P.Next()
			if err := c.P.Skip(lexer.RBrack, "range derivator"); err != nil {
				return nil, err
			}
			ord, ok := base.(*types.Ordinal)
			if !ok {
				return nil, c.P.Errorf("`[..]` derivator requires an ordinal base type")
			}
			base = ord.DeriveRangeType(c.Mod.Scope)
		default:
			idx, err := c.typeExpr()
			if err != nil {
				return nil, err
			}
			if err := c.P.Skip(lexer.RBrack, "array derivator"); err != nil {
				return nil, err
			}
			if idx.Kind() == types.Void {
				base = types.DeriveSetType(base, c.Mod.Scope)
			} else {
				base = types.DeriveArrayType(base, idx, c.Mod.Scope)
			}
		}
	}
	return base, nil
}

func (c *Compiler) expr(hint types.Type) (types.Type, error) {
	return c.parseSubrange(hint)
}

func (c *Compiler) parseSubrange(hint types.Type) (types.Type, error) {
	mark := c.Gen.MarkExprStart()
	lhsT, err := c.parseOr(hint)
	if err != nil {
		return nil, err
	}
	if c.P.Peek() != lexer.Dot2 {
		return lhsT, nil
	}
	c.P.Next()
	if _, err := c.parseOr(hint); err != nil {
		return nil, err
	}
	ord, ok := lhsT.(*types.Ordinal)
	if !ok {
		return nil, c.P.Errorf("subrange bounds must be ordinals")
	}
	rangeT := ord.DeriveRangeType(c.Mod.Scope)
	c.Gen.Seg.EmitType(bytecode.MkSubrange, rangeT, c.Gen.Line)
	c.Gen.PushResult(rangeT)
	c.Gen.FoldIfConst(mark, 2, rangeT)
	return rangeT, nil
}

func (c *Compiler) parseOr(hint types.Type) (types.Type, error) {
	mark := c.Gen.MarkExprStart()
	lhsT, err := c.parseAnd(hint)
	if err != nil {
		return nil, err
	}
	for c.P.Peek() == lexer.Or || c.P.Peek() == lexer.Xor {
		op := c.P.Next().Type
		if _, err := c.parseAnd(hint); err != nil {
			return nil, err
		}
		opcode := bytecode.BitOr
		if op == lexer.Xor {
			opcode = bytecode.BitXor
		}
		c.Gen.Seg.Emit(opcode, c.Gen.Line)
		c.Gen.PushResult(lhsT)
		c.Gen.FoldIfConst(mark, 2, lhsT)
	}
	return lhsT, nil
}

func (c *Compiler) parseAnd(hint types.Type) (types.Type, error) {
	mark := c.Gen.MarkExprStart()
	lhsT, err := c.parseNot(hint)
	if err != nil {
		return nil, err
	}
	for c.P.Peek() == lexer.And || c.P.Peek() == lexer.Shl || c.P.Peek() == lexer.Shr {
		op := c.P.Next().Type
		if _, err := c.parseNot(hint); err != nil {
			return nil, err
		}
		var opcode bytecode.OpCode
		switch op {
		case lexer.And:
			opcode = bytecode.BitAnd
		case lexer.Shl:
			opcode = bytecode.Shl
		default:
			opcode = bytecode.Shr
		}
		c.Gen.Seg.Emit(opcode, c.Gen.Line)
		c.Gen.PushResult(lhsT)
		c.Gen.FoldIfConst(mark, 2, lhsT)
	}
	return lhsT, nil
}

func (c *Compiler) parseNot(hint types.Type) (types.Type, error) {
	if c.P.Peek() == lexer.Not {
		mark := c.Gen.MarkExprStart()
		c.P.Next()
		t, err := c.parseComparison(hint)
		if err != nil {
			return nil, err
		}
		c.Gen.Seg.Emit(bytecode.BoolNot, c.Gen.Line)
		c.Gen.PushResult(t)
		c.Gen.FoldIfConst(mark, 1, t)
		return t, nil
	}
	return c.parseComparison(hint)
}

func (c *Compiler) parseComparison(hint types.Type) (types.Type, error) {
	mark := c.Gen.MarkExprStart()
	lhsT, err := c.parseAdditive(hint)
	if err != nil {
		return nil, err
	}
	switch c.P.Peek() {
	case lexer.EqEq, lexer.Ne, lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge:
	default:
		return lhsT, nil
	}
	op := c.P.Next().Type
	rhsT, err := c.parseAdditive(hint)
	if err != nil {
		return nil, err
	}
	cmpOp, err := chooseCompareOp(lhsT, rhsT)
	if err != nil {
		return nil, err
	}
	c.Gen.Seg.Emit(cmpOp, c.Gen.Line)
	selector := map[lexer.TokenType]bytecode.OpCode{
		lexer.EqEq: bytecode.CmpEQ, lexer.Ne: bytecode.CmpNE,
		lexer.Lt: bytecode.CmpLT, lexer.Le: bytecode.CmpLE,
		lexer.Gt: bytecode.CmpGT, lexer.Ge: bytecode.CmpGE,
	}[op]
	boolT := c.Prelude.BoolT
	c.Gen.Seg.EmitType(selector, boolT, c.Gen.Line)
	c.Gen.PushResult(boolT)
	c.Gen.FoldIfConst(mark, 2, boolT)
	return boolT, nil
}

func chooseCompareOp(lhsT, rhsT types.Type) (bytecode.OpCode, error) {
	lo, lIsOrd := lhsT.(*types.Ordinal)
	ro, rIsOrd := rhsT.(*types.Ordinal)
	switch {
	case lIsOrd && rIsOrd:
		if lo.IsLarge() || ro.IsLarge() {
			return bytecode.CmpLarge, nil
		}
		return bytecode.CmpInt, nil
	case lIsOrd && lo.Kind() == types.Char:
		return bytecode.CmpChrStr, nil
	case rIsOrd && ro.Kind() == types.Char:
		return bytecode.CmpStrChr, nil
	}
	if _, ok := lhsT.(*types.TypeRef); ok {
		return bytecode.CmpTypeRef, nil
	}
	if _, ok := lhsT.(*types.Vector); ok {
		return bytecode.CmpPodVec, nil
	}
	return bytecode.CmpPodVec, nil
}

func (c *Compiler) parseAdditive(hint types.Type) (types.Type, error) {
	mark := c.Gen.MarkExprStart()
	lhsT, err := c.parseMultiplicative(hint)
	if err != nil {
		return nil, err
	}
	for c.P.Peek() == lexer.Plus || c.P.Peek() == lexer.Minus || c.P.Peek() == lexer.PlusPlus {
		op := c.P.Next().Type
		if _, err := c.parseMultiplicative(hint); err != nil {
			return nil, err
		}
		if op == lexer.PlusPlus {
			c.Gen.Seg.EmitType(bytecode.VecCat, lhsT, c.Gen.Line)
			c.Gen.PushResult(lhsT)
			c.Gen.FoldIfConst(mark, 2, lhsT)
			continue
		}
		if err := c.Gen.Arith(mark, pickOp(op, bytecode.Add, bytecode.Sub), pickOp(op, bytecode.AddLarge, bytecode.SubLarge), lhsT); err != nil {
			return nil, err
		}
	}
	return lhsT, nil
}

func pickOp(op lexer.TokenType, plusOp, minusOp bytecode.OpCode) bytecode.OpCode {
	if op == lexer.Plus {
		return plusOp
	}
	return minusOp
}

func (c *Compiler) parseMultiplicative(hint types.Type) (types.Type, error) {
	mark := c.Gen.MarkExprStart()
	lhsT, err := c.parseUnary(hint)
	if err != nil {
		return nil, err
	}
	for c.P.Peek() == lexer.Star || c.P.Peek() == lexer.Slash || c.P.Peek() == lexer.Mod {
		op := c.P.Next().Type
		if _, err := c.parseUnary(hint); err != nil {
			return nil, err
		}
		var normal, large bytecode.OpCode
		switch op {
		case lexer.Star:
			normal, large = bytecode.Mul, bytecode.MulLarge
		case lexer.Slash:
			normal, large = bytecode.Div, bytecode.DivLarge
		default:
			normal, large = bytecode.Mod, bytecode.ModLarge
		}
		if err := c.Gen.Arith(mark, normal, large, lhsT); err != nil {
			return nil, err
		}
	}
	return lhsT, nil
}

func (c *Compiler) parseUnary(hint types.Type) (types.Type, error) {
	if c.P.Peek() == lexer.Minus {
		mark := c.Gen.MarkExprStart()
		c.P.Next()
		t, err := c.atom(hint)
		if err != nil {
			return nil, err
		}
		op := bytecode.Neg
		if t.StorageClass() == types.StorageLarge {
			op = bytecode.NegLarge
		}
		c.Gen.Seg.Emit(op, c.Gen.Line)
		c.Gen.PushResult(t)
		c.Gen.FoldIfConst(mark, 1, t)
		return t, nil
	}
	return c.atom(hint)
}

func (c *Compiler) atom(hint types.Type) (types.Type, error) {
	switch c.P.Peek() {
	case lexer.LParen:
		c.P.Next()
		t, err := c.expr(hint)
		if err != nil {
			return nil, err
		}
		return t, c.P.Skip(lexer.RParen, "parenthesized expression")
	case lexer.IntLit:
		tok := c.P.Next()
		t := c.Prelude.IntT
		if hint != nil {
			if ord, ok := hint.(*types.Ordinal); ok {
				t = ord
			}
		}
		if !t.Contains(tok.IntValue) {
			return nil, c.P.ErrorAt(tok.Line, "value %d out of range", tok.IntValue)
		}
		c.Gen.LoadConst(t, value.NewInt(t, tok.IntValue))
		return t, nil
	case lexer.LargeLit:
		tok := c.P.Next()
		t := c.Prelude.LargeT
		c.Gen.LoadConst(t, value.NewLarge(t, tok.LargeValue))
		return t, nil
	case lexer.StrLit:
		tok := c.P.Next()
		if hint != nil {
			if ord, ok := hint.(*types.Ordinal); ok && ord.Kind() == types.Char && len(tok.StrValue) == 1 {
				c.Gen.LoadConst(ord, value.NewChar(ord, tok.StrValue[0]))
				return ord, nil
			}
		}
		strT := c.Prelude.StrT
		c.Gen.LoadConst(strT, value.NewString(strT, tok.StrValue))
		return strT, nil
	case lexer.True:
		c.P.Next()
		c.Gen.LoadConst(c.Prelude.BoolT, value.NewBool(c.Prelude.BoolT, true))
		return c.Prelude.BoolT, nil
	case lexer.False:
		c.P.Next()
		c.Gen.LoadConst(c.Prelude.BoolT, value.NewBool(c.Prelude.BoolT, false))
		return c.Prelude.BoolT, nil
	case lexer.Null:
		c.P.Next()
		vecT := c.Prelude.StrT
		if hint != nil {
			if v, ok := hint.(*types.Vector); ok {
				vecT = v
			}
		}
		c.Gen.LoadConst(vecT, value.NewVec(vecT, vecbuf.Null()))
		return vecT, nil
	case lexer.Typeof:
		return c.parseTypeof()
	case lexer.LBrack:
		return c.compoundLiteral(hint)
	case lexer.Ident:
		return c.identAtom(hint)
	default:
		return nil, c.P.Errorf("expected an expression, found %s", c.P.Peek())
	}
}

// parseTypeof compiles its argument only far enough to know its
// result type, discards the emitted instructions (typeof has no
// runtime effect), and pushes a TypeRef constant naming that type.
func (c *Compiler) parseTypeof() (types.Type, error) {
	c.P.Next()
	if err := c.P.Skip(lexer.LParen, "typeof"); err != nil {
		return nil, err
	}
	mark := c.Gen.MarkExprStart()
	exprType, err := c.expr(nil)
	if err != nil {
		return nil, err
	}
	c.Gen.Seg.Truncate(mark)
	c.Gen.PopRaw()
	if err := c.P.Skip(lexer.RParen, "typeof"); err != nil {
		return nil, err
	}
	typeRefT := c.Prelude.TypeRefT
	c.Gen.LoadConst(typeRefT, value.NewTypeRef(typeRefT, exprType))
	return typeRefT, nil
}

// identAtom resolves a bare identifier: a named type (static cast if
// followed by `(`, else a TypeRef load), a constant, or a variable.
// Types are checked first since LookupType's deepFind-style search
// also reaches type aliases (Constants of TypeRef type) that DeepFind
// would otherwise hand back as plain constants.
func (c *Compiler) identAtom(hint types.Type) (types.Type, error) {
	tok := c.P.Next()
	name := tok.StrValue
	if t, ok := c.Mod.LookupType(name); ok {
		if c.P.Peek() == lexer.LParen {
			c.P.Next()
			exprT, err := c.expr(t)
			if err != nil {
				return nil, err
			}
			if err := c.P.Skip(lexer.RParen, "static cast"); err != nil {
				return nil, err
			}
			if !types.CanStaticCastTo(exprT, t) {
				return nil, c.P.ErrorAt(tok.Line, "cannot cast %s to %s", exprT.Name(), t.Name())
			}
			c.emitCast(exprT, t)
			return t, nil
		}
		typeRefT := c.Prelude.TypeRefT
		c.Gen.LoadConst(typeRefT, value.NewTypeRef(typeRefT, t))
		return typeRefT, nil
	}
	sym, ok := c.Mod.DeepFind(name)
	if !ok {
		return nil, c.P.ErrorAt(tok.Line, "identifier not found: %q", name)
	}
	switch s := sym.(type) {
	case *scope.Constant:
		c.Gen.LoadConst(s.Type, s.Value)
		return s.Type, nil
	case *scope.Variable:
		c.Gen.LoadVar(s)
		return s.Type, nil
	default:
		return nil, c.P.ErrorAt(tok.Line, "%q does not name a value", name)
	}
}

// emitCast selects LargeToInt/IntToLarge/no-op per the storage classes
// involved. Only ordinal pairs can differ in storage class; the other
// pairs CanStaticCastTo accepts (equal types, an empty vector to a
// vector) share one and get no conversion opcode. Casts
// are not constant-folded: the value is always known only at runtime
// once one is emitted.
func (c *Compiler) emitCast(from, to types.Type) {
	c.Gen.PopRaw()
	switch {
	case from.StorageClass() == types.StorageLarge && to.StorageClass() != types.StorageLarge:
		c.Gen.Seg.EmitType(bytecode.LargeToInt, to, c.Gen.Line)
	case from.StorageClass() != types.StorageLarge && to.StorageClass() == types.StorageLarge:
		c.Gen.Seg.EmitType(bytecode.IntToLarge, to, c.Gen.Line)
	}
	c.Gen.PushResult(to)
}

// compoundLiteral parses `[ e1, e2, ... ]`, building a vector whose
// element type is the first element's type, parsed with hint's element
// type as its own hint when hint is a plain vector type. Array and set
// hints are not used.
func (c *Compiler) compoundLiteral(hint types.Type) (types.Type, error) {
	c.P.Next()
	var elemHint types.Type
	if hint != nil {
		if v, ok := hint.(*types.Vector); ok {
			elemHint = v.Elem
		}
	}
	if c.P.Peek() == lexer.RBrack {
		c.P.Next()
		vecT := c.Prelude.StrT
		if hint != nil {
			if v, ok := hint.(*types.Vector); ok {
				vecT = v
			}
		}
		c.Gen.LoadConst(vecT, value.NewVec(vecT, vecbuf.Null()))
		return vecT, nil
	}
	mark := c.Gen.MarkExprStart()
	elemT, err := c.expr(elemHint)
	if err != nil {
		return nil, err
	}
	vecT := types.DeriveVectorType(elemT, c.Mod.Scope)
	c.Gen.Seg.EmitType(bytecode.ElemToVec, elemT, c.Gen.Line)
	c.Gen.PushResult(vecT)
	c.Gen.FoldIfConst(mark, 1, vecT)
	for c.P.SkipIf(lexer.Comma) {
		if _, err := c.expr(elemT); err != nil {
			return nil, err
		}
		c.Gen.Seg.EmitType(bytecode.VecElemCat, elemT, c.Gen.Line)
		c.Gen.PushResult(vecT)
		c.Gen.FoldIfConst(mark, 2, vecT)
	}
	return vecT, c.P.Skip(lexer.RBrack, "compound literal")
}

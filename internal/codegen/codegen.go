// Package codegen implements the compile-time code generator: it
// emits bytecode.Instr sequences into a module's CodeSegment while
// tracking, alongside the real runtime stack the VM will see, a
// parallel "gen stack" of GenItems describing what each pushed slot's
// type is and, when known, what its value already is.
//
// The gen stack exists for one reason: constant folding. Rather than
// keeping a second, separate constant evaluator in sync with the VM's
// semantics, this package always emits the naive instruction sequence
// for an expression first; if every operand the expression touched
// turns out to carry a known compile-time value, it rewinds the
// segment to where the expression started and emits a single constant
// load instead, using vm.RunConstExpr to actually compute the folded
// value by running the snippet it just threw away.
//
// Grounded on the teacher's internal/compiler package (a recursive
// descent compiler that emits directly into a Chunk as it parses, with
// a small value stack of its own for precedence climbing); the fold
// discipline and the gen stack itself come from trunk/src/codegen.cpp.
package codegen

import (
	"shannon/internal/bytecode"
	"shannon/internal/errors"
	"shannon/internal/scope"
	"shannon/internal/types"
	"shannon/internal/value"
	"shannon/internal/vm"
)

// GenItem is one entry of the gen stack: the type behind the
// corresponding runtime stack slot, and — when IsValue is set — the
// compile-time value already known to occupy it.
type GenItem struct {
	Type    types.Type
	Value   value.Value
	IsValue bool
}

// CodeGen emits into one module's CodeSegment, reserving module data
// slots and a single flat frame of local slots (this language has no
// nested function calls within a module body, so one frame suffices).
type CodeGen struct {
	Mod       *scope.Module
	Seg       *bytecode.CodeSegment
	gen       []GenItem
	stackHigh int
	Line      int
}

func New(mod *scope.Module) *CodeGen {
	return &CodeGen{Mod: mod, Seg: mod.Code}
}

func (g *CodeGen) push(item GenItem) {
	g.gen = append(g.gen, item)
	if len(g.gen) > g.stackHigh {
		g.stackHigh = len(g.gen)
		g.Seg.ReserveStack = g.stackHigh
	}
}

func (g *CodeGen) pop() GenItem {
	n := len(g.gen) - 1
	item := g.gen[n]
	g.gen = g.gen[:n]
	return item
}

// Top returns the gen item currently on top of the gen stack without
// removing it.
func (g *CodeGen) Top() GenItem { return g.gen[len(g.gen)-1] }

// PopRaw removes and returns the top gen item without emitting any
// opcode, for callers (like a static cast) that already emitted their
// own conversion opcode and just need the gen stack kept in sync.
func (g *CodeGen) PopRaw() GenItem { return g.pop() }

// Depth reports how many values the gen stack currently tracks.
func (g *CodeGen) Depth() int { return len(g.gen) }

// ReserveLocal allocates one local slot for t in the module's single
// frame and returns its index.
func (g *CodeGen) ReserveLocal(t types.Type) int {
	slot := g.Seg.ReserveLocals
	g.Seg.ReserveLocals++
	_ = t
	return slot
}

func storageOps(st types.Storage, byteOp, intOp, largeOp, ptrOp, vecOp, voidOp bytecode.OpCode) bytecode.OpCode {
	switch st {
	case types.StorageByte:
		return byteOp
	case types.StorageInt:
		return intOp
	case types.StorageLarge:
		return largeOp
	case types.StoragePtr:
		return ptrOp
	case types.StorageVec:
		return vecOp
	default:
		return voidOp
	}
}

// LoadConst pushes a known compile-time value t/v, emitting the
// matching const-load opcode for its storage class.
func (g *CodeGen) LoadConst(t types.Type, v value.Value) {
	switch t.StorageClass() {
	case types.StorageVec:
		idx := g.Mod.InternVec(v.Vec)
		g.Seg.EmitTypeA(bytecode.LoadVecConst, t, int32(idx), g.Line)
	case types.StorageLarge:
		if v.Raw == 0 {
			g.Seg.EmitType(bytecode.LoadLargeZero, t, g.Line)
		} else if v.Raw == 1 {
			g.Seg.EmitType(bytecode.LoadLargeOne, t, g.Line)
		} else {
			in := bytecode.Instr{Op: bytecode.LoadLargeConst, Const: v.Raw, Type: t, Line: g.Line}
			g.Seg.Append(in)
		}
	case types.StoragePtr:
		if _, isRef := t.(*types.TypeRef); isRef {
			g.Seg.EmitType(bytecode.LoadTypeRef, v.TypePayload, g.Line)
		}
	default:
		switch v.Raw {
		case 0:
			if isBool(t) {
				g.Seg.EmitType(bytecode.LoadFalse, t, g.Line)
			} else {
				g.Seg.EmitType(bytecode.LoadZero, t, g.Line)
			}
		case 1:
			if isBool(t) {
				g.Seg.EmitType(bytecode.LoadTrue, t, g.Line)
			} else {
				g.Seg.EmitType(bytecode.LoadOne, t, g.Line)
			}
		default:
			in := bytecode.Instr{Op: bytecode.LoadIntConst, A: int32(v.Raw), Type: t, Line: g.Line}
			g.Seg.Append(in)
		}
	}
	g.push(GenItem{Type: t, Value: v, IsValue: true})
}

func isBool(t types.Type) bool {
	o, ok := t.(*types.Ordinal)
	return ok && o.Kind() == types.Bool
}

// LoadVar emits a load of v, whose value is not known at compile time.
func (g *CodeGen) LoadVar(v *scope.Variable) {
	var op bytecode.OpCode
	if v.Local {
		op = storageOps(v.Type.StorageClass(), bytecode.LoadLocByte, bytecode.LoadLocInt, bytecode.LoadLocLarge, bytecode.LoadLocPtr, bytecode.LoadLocVec, bytecode.LoadLocVoid)
	} else {
		op = storageOps(v.Type.StorageClass(), bytecode.LoadThisByte, bytecode.LoadThisInt, bytecode.LoadThisLarge, bytecode.LoadThisPtr, bytecode.LoadThisVec, bytecode.LoadThisVoid)
	}
	g.Seg.EmitA(op, int32(v.Slot), g.Line)
	g.push(GenItem{Type: v.Type})
}

// StoreVar pops the top gen item and emits a store into v.
func (g *CodeGen) StoreVar(v *scope.Variable) {
	g.pop()
	var op bytecode.OpCode
	if v.Local {
		op = storageOps(v.Type.StorageClass(), bytecode.StoreLocByte, bytecode.StoreLocInt, bytecode.StoreLocLarge, bytecode.StoreLocPtr, bytecode.StoreLocVec, bytecode.StoreLocVoid)
	} else {
		op = storageOps(v.Type.StorageClass(), bytecode.StoreThisByte, bytecode.StoreThisInt, bytecode.StoreThisLarge, bytecode.StoreThisPtr, bytecode.StoreThisVec, bytecode.StoreThisVoid)
	}
	g.Seg.EmitA(op, int32(v.Slot), g.Line)
}

// Pop emits the matching Pop* opcode for the top gen item and
// removes it, used when an expression statement's result is discarded.
func (g *CodeGen) Pop() {
	item := g.pop()
	op := storageOps(item.Type.StorageClass(), bytecode.PopInt, bytecode.PopInt, bytecode.PopLarge, bytecode.PopPtr, bytecode.PopVec, bytecode.PopInt)
	g.Seg.Emit(op, g.Line)
}

// Arith emits a binary arithmetic opcode pair (normal/large selected by
// the result's storage class), popping both operands, pushing the
// result, and folding it to a constant load if both operands were
// already known. Callers emit the operands first (which push two gen
// items) and call MarkExprStart beforehand to capture mark.
func (g *CodeGen) Arith(mark int, normalOp, largeOp bytecode.OpCode, resultType types.Type) error {
	rhs := g.pop()
	lhs := g.pop()
	if !types.CanAssign(resultType, lhs.Type) && !types.CanAssign(resultType, rhs.Type) {
		return errors.New(errors.Internal, errors.Location{Line: g.Line}, "codegen: incompatible arithmetic operand types")
	}
	op := normalOp
	if resultType.StorageClass() == types.StorageLarge {
		op = largeOp
	}
	g.Seg.Emit(op, g.Line)
	foldable := lhs.IsValue && rhs.IsValue
	g.push(GenItem{Type: resultType})
	if !foldable {
		return nil
	}
	v, err := vm.RunConstExpr(g.Seg, mark)
	if err != nil {
		return nil
	}
	g.Seg.Truncate(mark)
	g.pop()
	g.LoadConst(resultType, v)
	return nil
}

// MarkExprStart returns the current segment address, to be passed to
// FoldIfConst once an expression's opcode has been emitted.
func (g *CodeGen) MarkExprStart() int { return g.Seg.Len() }

// FoldIfConst replaces the instructions from mark onward with a single
// constant load of resultType if every gen-stack operand consumed
// since mark was itself constant. nOperands is how many operand
// GenItems the just-emitted opcode consumed (1 for unary, 2 for
// binary).
func (g *CodeGen) FoldIfConst(mark int, nOperands int, resultType types.Type) {
	n := len(g.gen) - 1 // the result item just pushed, not yet counted as an operand
	allConst := true
	for i := 0; i < nOperands; i++ {
		idx := n - 1 - i
		if idx < 0 || !g.gen[idx].IsValue {
			allConst = false
			break
		}
	}
	if allConst {
		if v, err := vm.RunConstExpr(g.Seg, mark); err == nil {
			g.Seg.Truncate(mark)
			g.pop() // the non-constant result item
			for i := 0; i < nOperands; i++ {
				g.pop()
			}
			g.LoadConst(resultType, v)
			return
		}
	}
	// Not folded: the emitted opcode consumes its operands at runtime, so
	// drop them from beneath the result item.
	result := g.pop()
	for i := 0; i < nOperands && len(g.gen) > 0; i++ {
		g.pop()
	}
	g.gen = append(g.gen, result)
}

// PushResult pushes a non-constant gen item of type t, for callers
// that emit an opcode themselves and then need the gen stack to
// reflect its (not yet known) result before calling FoldIfConst.
func (g *CodeGen) PushResult(t types.Type) {
	g.push(GenItem{Type: t})
}

// EmitSimple emits op with no operands and pushes a non-constant
// result item of resultType (for opcodes with no meaningful fold, like
// string conversions that read a value only known at runtime).
func (g *CodeGen) EmitSimple(op bytecode.OpCode, resultType types.Type) {
	g.Seg.Emit(op, g.Line)
	if resultType != nil {
		g.push(GenItem{Type: resultType})
	}
}

// Jump emits a forward jump with a placeholder target and returns its
// address, to be resolved later with PatchJump.
func (g *CodeGen) Jump(op bytecode.OpCode) int {
	return g.Seg.EmitA(op, -1, g.Line)
}

// PatchJump resolves the jump at addr to the current segment end.
// Grounded on trunk/src/codegen.cpp's resolveJump, computing the patch
// lazily once the target is known; this CodeSegment addresses
// instructions by index rather than raw byte offset, so the patched
// value is an absolute instruction address rather than a relative byte
// count, but the contract — unknown at emit time, fixed once reached
// — is the same.
func (g *CodeGen) PatchJump(addr int) {
	g.Seg.PatchA(addr, int32(g.Seg.Len()))
}

// PatchJumpTo resolves the jump at addr to an explicit target address,
// used for backward jumps (loop heads) where the target is already
// known.
func (g *CodeGen) PatchJumpTo(addr int, target int) {
	g.Seg.PatchA(addr, int32(target))
}

// Here returns the current segment address, the target for a backward
// jump being emitted now.
func (g *CodeGen) Here() int { return g.Seg.Len() }

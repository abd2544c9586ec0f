// Package vm implements the fetch-dispatch bytecode interpreter: it
// runs a bytecode.CodeSegment against a module's data segment, a
// per-call locals frame, and a value stack, and is also the engine the
// codegen package calls back into to fold constant expressions at
// compile time (running the snippet just emitted and capturing its
// result, rather than maintaining a second constant-evaluator).
//
// Grounded on the teacher's internal/vm package (a fetch-dispatch loop
// over a flat instruction array with a Go slice standing in for the
// value stack), with the opcode semantics replaced end to end: this
// domain has no dynamic values, no call stack beyond one module frame,
// and no I/O besides Echo/EchoLn, so the teacher's object/closure/
// channel machinery has no counterpart here.
package vm

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"shannon/internal/bytecode"
	"shannon/internal/errors"
	"shannon/internal/scope"
	"shannon/internal/types"
	"shannon/internal/value"
	"shannon/internal/vecbuf"
)

// VM holds the mutable state of one module execution: its data
// segment (module-level variables, addressed by Variable.Slot), the
// current locals frame, and the value stack.
type VM struct {
	Mod    *scope.Module
	Data   []value.Value
	Locals []value.Value
	Stack  []value.Value
	Out    io.Writer
	Trace  bool
}

// New constructs a VM ready to run mod.Code, sizing the data segment
// to the module's declared variable count and the locals frame to the
// code segment's reserved local-slot count.
func New(mod *scope.Module, out io.Writer) *VM {
	return &VM{
		Mod:    mod,
		Data:   make([]value.Value, len(mod.Vars)),
		Locals: make([]value.Value, mod.Code.ReserveLocals),
		Out:    out,
	}
}

func (m *VM) push(v value.Value) { m.Stack = append(m.Stack, v) }

func (m *VM) pop() value.Value {
	n := len(m.Stack) - 1
	v := m.Stack[n]
	m.Stack = m.Stack[:n]
	return v
}

func (m *VM) top() *value.Value { return &m.Stack[len(m.Stack)-1] }

// Run executes mod.Code from address 0 until an End/Ret opcode.
func (m *VM) Run() error {
	return m.run(m.Mod.Code, 0)
}

// RunConstExpr executes seg starting at from in an isolated VM with no
// data segment or locals, returning whatever is left on top of the
// stack. This is the constant-folding primitive the codegen package
// calls right after emitting a candidate constant expression.
func RunConstExpr(seg *bytecode.CodeSegment, from int) (value.Value, error) {
	scratch := &VM{}
	if err := scratch.run(seg, from); err != nil {
		return value.Zero, err
	}
	if len(scratch.Stack) == 0 {
		return value.Zero, nil
	}
	return scratch.pop(), nil
}

func (m *VM) run(seg *bytecode.CodeSegment, start int) error {
	ip := start
	for {
		if ip >= seg.Len() {
			return nil
		}
		in := seg.At(ip)
		if m.Trace && m.Out != nil {
			fmt.Fprintf(m.Out, "%04d %s\n", ip, in.Op)
		}
		next := ip + 1
		switch in.Op {
		case bytecode.End:
			return nil
		case bytecode.Nop, bytecode.Linenum:
			// Source-location bookkeeping only; the compiler's own
			// location tracking handles diagnostics.

		case bytecode.Assert:
			v := m.pop()
			if v.Raw == 0 {
				return errors.New(errors.RuntimeAssert, errors.Location{Line: in.Line}, "assertion failed")
			}
		case bytecode.Echo:
			v := m.pop()
			fmt.Fprint(m.Out, renderEcho(v))
		case bytecode.EchoLn:
			v := m.pop()
			fmt.Fprintln(m.Out, renderEcho(v))

		case bytecode.LoadZero:
			m.push(value.NewInt(nil, 0))
		case bytecode.LoadOne:
			m.push(value.NewInt(nil, 1))
		case bytecode.LoadLargeZero:
			m.push(value.NewLarge(nil, 0))
		case bytecode.LoadLargeOne:
			m.push(value.NewLarge(nil, 1))
		case bytecode.LoadFalse:
			m.push(value.NewBool(nil, false))
		case bytecode.LoadTrue:
			m.push(value.NewBool(nil, true))
		case bytecode.LoadNullVec:
			m.push(value.NewVec(in.Type, vecbuf.Null()))
		case bytecode.LoadIntConst:
			m.push(value.NewInt(in.Type, int64(in.A)))
		case bytecode.LoadLargeConst:
			m.push(value.NewLarge(in.Type, in.Const))
		case bytecode.LoadVecConst:
			buf := m.Mod.VecConsts[in.A]
			m.push(value.NewVec(in.Type, buf).Retain())
		case bytecode.LoadTypeRef:
			m.push(value.NewTypeRef(in.Type, in.Type))

		case bytecode.LoadThisByte, bytecode.LoadThisInt, bytecode.LoadThisLarge, bytecode.LoadThisPtr, bytecode.LoadThisVec, bytecode.LoadThisVoid:
			m.push(m.Data[in.A].Retain())
		case bytecode.LoadLocByte, bytecode.LoadLocInt, bytecode.LoadLocLarge, bytecode.LoadLocPtr, bytecode.LoadLocVec, bytecode.LoadLocVoid:
			m.push(m.Locals[in.A].Retain())
		case bytecode.StoreThisByte, bytecode.StoreThisInt, bytecode.StoreThisLarge, bytecode.StoreThisPtr, bytecode.StoreThisVec, bytecode.StoreThisVoid:
			m.Data[in.A].Release()
			m.Data[in.A] = m.pop()
		case bytecode.StoreLocByte, bytecode.StoreLocInt, bytecode.StoreLocLarge, bytecode.StoreLocPtr, bytecode.StoreLocVec, bytecode.StoreLocVoid:
			m.Locals[in.A].Release()
			m.Locals[in.A] = m.pop()
		case bytecode.LoadRef:
			v := m.pop()
			m.push(*v.Ref)

		case bytecode.FinThisPodVec, bytecode.FinThis:
			m.Data[in.A].Release()
		case bytecode.FinLocPodVec, bytecode.FinLoc:
			m.Locals[in.A].Release()

		case bytecode.PopInt, bytecode.PopLarge, bytecode.PopPtr:
			m.pop()
		case bytecode.PopVec:
			m.pop().Release()

		case bytecode.Add, bytecode.AddLarge:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw+b.Raw))
		case bytecode.Sub, bytecode.SubLarge:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw-b.Raw))
		case bytecode.Mul, bytecode.MulLarge:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw*b.Raw))
		case bytecode.Div, bytecode.DivLarge:
			b, a := m.pop(), m.pop()
			if b.Raw == 0 {
				return errors.New(errors.RuntimeAssert, errors.Location{Line: in.Line}, "division by zero")
			}
			m.push(value.NewInt(a.T, a.Raw/b.Raw))
		case bytecode.Mod, bytecode.ModLarge:
			b, a := m.pop(), m.pop()
			if b.Raw == 0 {
				return errors.New(errors.RuntimeAssert, errors.Location{Line: in.Line}, "division by zero")
			}
			m.push(value.NewInt(a.T, a.Raw%b.Raw))

		case bytecode.BitAnd:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw&b.Raw))
		case bytecode.BitOr:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw|b.Raw))
		case bytecode.BitXor:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw^b.Raw))
		case bytecode.Shl:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw<<uint(b.Raw)))
		case bytecode.Shr:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(a.T, a.Raw>>uint(b.Raw)))
		case bytecode.BitNot:
			a := m.pop()
			m.push(value.NewInt(a.T, ^a.Raw))
		case bytecode.BoolNot:
			a := m.pop()
			m.push(value.NewBool(a.T, a.Raw == 0))

		case bytecode.Neg:
			a := m.pop()
			m.push(value.NewInt(a.T, -a.Raw))
		case bytecode.NegLarge:
			a := m.pop()
			m.push(value.NewLarge(a.T, -a.Raw))

		case bytecode.LargeToInt:
			a := m.pop()
			m.push(value.NewInt(in.Type, int64(int32(a.Raw))))
		case bytecode.IntToLarge:
			a := m.pop()
			m.push(value.NewLarge(in.Type, a.Raw))
		case bytecode.IntToStr, bytecode.LargeToStr:
			a := m.pop()
			m.push(value.NewString(in.Type, strconv.FormatInt(a.Raw, 10)))

		case bytecode.CmpInt, bytecode.CmpLarge:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(nil, tristate(a.Raw, b.Raw)))
		case bytecode.CmpStrChr:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(nil, int64(bytes.Compare(a.Vec.Bytes(), []byte{byte(b.Raw)}))))
		case bytecode.CmpChrStr:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(nil, int64(bytes.Compare([]byte{byte(a.Raw)}, b.Vec.Bytes()))))
		case bytecode.CmpPodVec:
			b, a := m.pop(), m.pop()
			m.push(value.NewInt(nil, int64(bytes.Compare(a.Vec.Bytes(), b.Vec.Bytes()))))
		case bytecode.CmpTypeRef:
			b, a := m.pop(), m.pop()
			if types.Equals(a.TypePayload, b.TypePayload) {
				m.push(value.NewInt(nil, 0))
			} else {
				m.push(value.NewInt(nil, 1))
			}
		case bytecode.CmpEQ:
			t := m.top()
			*t = value.NewBool(in.Type, t.Raw == 0)
		case bytecode.CmpNE:
			t := m.top()
			*t = value.NewBool(in.Type, t.Raw != 0)
		case bytecode.CmpLT:
			t := m.top()
			*t = value.NewBool(in.Type, t.Raw < 0)
		case bytecode.CmpLE:
			t := m.top()
			*t = value.NewBool(in.Type, t.Raw <= 0)
		case bytecode.CmpGT:
			t := m.top()
			*t = value.NewBool(in.Type, t.Raw > 0)
		case bytecode.CmpGE:
			t := m.top()
			*t = value.NewBool(in.Type, t.Raw >= 0)

		case bytecode.MkSubrange:
			hi, lo := m.pop(), m.pop()
			m.push(value.NewRange(in.Type, int32(lo.Raw), int32(hi.Raw)))
		case bytecode.ElemToVec:
			e := m.pop()
			m.push(value.Take(in.Type, elemBuf(e)))
		case bytecode.VecCat:
			b, a := m.pop(), m.pop()
			out := vecbuf.Concat(a.Vec, b.Vec)
			a.Release()
			b.Release()
			m.push(value.Take(in.Type, out))
		case bytecode.VecElemCat:
			e, a := m.pop(), m.pop()
			appended := a.Vec.Unique().Append(elemBuf(e).Bytes())
			m.push(value.Take(a.T, appended))
		case bytecode.CopyToTmpVec:
			a := m.pop()
			m.push(value.Take(a.T, a.Vec.Unique()))

		case bytecode.Jump:
			next = int(in.A)
		case bytecode.JumpTrue:
			v := m.pop()
			if v.Raw != 0 {
				next = int(in.A)
			}
		case bytecode.JumpFalse:
			v := m.pop()
			if v.Raw == 0 {
				next = int(in.A)
			}
		case bytecode.JumpAnd:
			v := *m.top()
			if v.Raw == 0 {
				next = int(in.A)
			} else {
				m.pop()
			}
		case bytecode.JumpOr:
			v := *m.top()
			if v.Raw != 0 {
				next = int(in.A)
			} else {
				m.pop()
			}
		case bytecode.CaseJump:
			candidate := m.pop()
			switchVal := *m.top()
			if candidate.Raw != switchVal.Raw {
				next = int(in.A)
			} else {
				m.pop()
			}

		case bytecode.RetVoid, bytecode.RetByte, bytecode.RetInt, bytecode.RetLarge, bytecode.RetPtr, bytecode.RetVec:
			return nil
		case bytecode.Call:
			return errors.Internalf(20, "vm: Call has no target in a single-segment module")

		default:
			return errors.Internalf(21, "vm: unhandled opcode %s", in.Op)
		}
		ip = next
	}
}

func tristate(a, b int64) int64 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func renderEcho(v value.Value) string {
	if v.T != nil && v.T.StorageClass() == types.StorageVec {
		return v.Str()
	}
	return strconv.FormatInt(v.Raw, 10)
}

// elemBuf encodes a single element value as the bytes ElemToVec/
// VecElemCat append. Every element this VM handles is Byte-storage
// (Char, small Integer/Enum/Bool ranges), so one byte per element; a
// wider POD element type would need a matching wider encoding, which
// this implementation's surface grammar (vectors of char/bool/small
// int/enum) never produces.
func elemBuf(e value.Value) *vecbuf.Buf {
	return vecbuf.NewFrom([]byte{byte(e.Raw)})
}

package bytecode

import "shannon/internal/types"

// Instr is one instruction: an opcode plus whichever operand slots it
// needs. Not every field is used by every opcode — A is the generic
// integer operand (absolute jump targets, data-segment/local slots,
// constant-pool indices, LoadIntConst's immediate); Type carries a type operand for
// the opcodes that need one (Echo, Fin*, ElemToVec, VecCat,
// LoadTypeRef); Const carries a 64-bit immediate for LoadLargeConst.
type Instr struct {
	Op    OpCode
	A     int32
	Const int64
	Type  types.Type
	Line  int
}

// CodeSegment is the bytecode container a module compiles to: the
// instruction stream plus the two compile-time shape measurements the
// VM needs to set up a call frame before running it — the deepest the
// value stack grows (ReserveStack) and the size of the local frame
// beneath it (ReserveLocals). Both are filled in by the codegen
// package's gen-stack bookkeeping as it emits.
type CodeSegment struct {
	Instrs        []Instr
	ReserveStack  int
	ReserveLocals int
}

func NewCodeSegment() *CodeSegment {
	return &CodeSegment{}
}

// Len returns the current instruction count, i.e. the address the next
// Append'd instruction will land at.
func (c *CodeSegment) Len() int {
	return len(c.Instrs)
}

// Append adds an instruction and returns its address.
func (c *CodeSegment) Append(in Instr) int {
	c.Instrs = append(c.Instrs, in)
	return len(c.Instrs) - 1
}

// Emit appends a bare opcode with no operand.
func (c *CodeSegment) Emit(op OpCode, line int) int {
	return c.Append(Instr{Op: op, Line: line})
}

// EmitA appends an opcode carrying a single integer operand.
func (c *CodeSegment) EmitA(op OpCode, a int32, line int) int {
	return c.Append(Instr{Op: op, A: a, Line: line})
}

// EmitConst appends an opcode carrying a 64-bit immediate
// (LoadLargeConst).
func (c *CodeSegment) EmitConst(op OpCode, v int64, line int) int {
	return c.Append(Instr{Op: op, Const: v, Line: line})
}

// EmitType appends an opcode carrying a type operand.
func (c *CodeSegment) EmitType(op OpCode, t types.Type, line int) int {
	return c.Append(Instr{Op: op, Type: t, Line: line})
}

// EmitTypeA appends an opcode carrying both a type operand and an
// integer operand (LoadVecConst's constant-pool index alongside its
// element type).
func (c *CodeSegment) EmitTypeA(op OpCode, t types.Type, a int32, line int) int {
	return c.Append(Instr{Op: op, Type: t, A: a, Line: line})
}

// PatchA overwrites the integer operand of the instruction at addr,
// used by forward-jump patching once the jump target is known (the
// codegen package's PatchJump).
func (c *CodeSegment) PatchA(addr int, a int32) {
	c.Instrs[addr].A = a
}

// At returns the instruction at addr, for the VM's fetch-dispatch loop
// and for disassembly.
func (c *CodeSegment) At(addr int) Instr {
	return c.Instrs[addr]
}

// Truncate discards every instruction from n onward. The codegen
// package uses this to roll back a naively-emitted expression once
// it's discovered to be constant, replacing it with a single const
// load.
func (c *CodeSegment) Truncate(n int) {
	c.Instrs = c.Instrs[:n]
}

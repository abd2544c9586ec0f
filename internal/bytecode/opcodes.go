// Package bytecode defines the instruction alphabet and the
// CodeSegment container the compiler emits into and the VM executes.
//
// Grounded on the teacher's internal/bytecode package (OpCode as a
// small int enum, an append-only instruction stream with parallel
// debug info), but the opcode set itself belongs to this language, not
// the teacher's expression interpreter.
package bytecode

// OpCode is one quantum of the instruction alphabet.
type OpCode int

const (
	// Frame
	End OpCode = iota
	Nop
	Linenum
	Assert
	Echo
	EchoLn

	// Const-load
	LoadZero
	LoadOne
	LoadLargeZero
	LoadLargeOne
	LoadFalse
	LoadTrue
	LoadNullVec
	LoadIntConst
	LoadLargeConst
	LoadVecConst
	LoadTypeRef

	// Var access — This* addresses the module data segment, Loc*
	// addresses the current stack frame's locals.
	LoadThisByte
	LoadThisInt
	LoadThisLarge
	LoadThisPtr
	LoadThisVec
	LoadThisVoid
	LoadLocByte
	LoadLocInt
	LoadLocLarge
	LoadLocPtr
	LoadLocVec
	LoadLocVoid
	StoreThisByte
	StoreThisInt
	StoreThisLarge
	StoreThisPtr
	StoreThisVec
	StoreThisVoid
	StoreLocByte
	StoreLocInt
	StoreLocLarge
	StoreLocPtr
	StoreLocVec
	StoreLocVoid
	LoadRef

	// Finalize
	FinThisPodVec
	FinThis
	FinLocPodVec
	FinLoc

	// Pops
	PopInt
	PopLarge
	PopPtr
	PopVec

	// Arithmetic
	Add
	AddLarge
	Sub
	SubLarge
	Mul
	MulLarge
	Div
	DivLarge
	Mod
	ModLarge

	// Bitwise
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	BitNot
	BoolNot

	// Unary
	Neg
	NegLarge

	// Cast
	LargeToInt
	IntToLarge
	IntToStr
	LargeToStr

	// Compare: compute a tristate, then select on it
	CmpInt
	CmpLarge
	CmpStrChr
	CmpChrStr
	CmpPodVec
	CmpTypeRef
	CmpEQ
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE

	// Vectors
	MkSubrange
	ElemToVec
	VecCat
	VecElemCat
	CopyToTmpVec

	// Control
	Jump
	JumpTrue
	JumpFalse
	JumpAnd
	JumpOr
	// CaseJump pops a candidate and the switch value; if they compare
	// unequal it jumps, keeping the switch value on the stack for the
	// next case. Otherwise it pops the switch value and falls through.
	// Nothing in the compiler or codegen packages emits it.
	CaseJump
	RetByte
	RetInt
	RetLarge
	RetPtr
	RetVec
	RetVoid
	Call
)

var names = map[OpCode]string{
	End: "End", Nop: "Nop", Linenum: "Linenum", Assert: "Assert", Echo: "Echo", EchoLn: "EchoLn",
	LoadZero: "LoadZero", LoadOne: "LoadOne", LoadLargeZero: "LoadLargeZero", LoadLargeOne: "LoadLargeOne",
	LoadFalse: "LoadFalse", LoadTrue: "LoadTrue", LoadNullVec: "LoadNullVec",
	LoadIntConst: "LoadIntConst", LoadLargeConst: "LoadLargeConst", LoadVecConst: "LoadVecConst", LoadTypeRef: "LoadTypeRef",
	LoadThisByte: "LoadThisByte", LoadThisInt: "LoadThisInt", LoadThisLarge: "LoadThisLarge",
	LoadThisPtr: "LoadThisPtr", LoadThisVec: "LoadThisVec", LoadThisVoid: "LoadThisVoid",
	LoadLocByte: "LoadLocByte", LoadLocInt: "LoadLocInt", LoadLocLarge: "LoadLocLarge",
	LoadLocPtr: "LoadLocPtr", LoadLocVec: "LoadLocVec", LoadLocVoid: "LoadLocVoid",
	StoreThisByte: "StoreThisByte", StoreThisInt: "StoreThisInt", StoreThisLarge: "StoreThisLarge",
	StoreThisPtr: "StoreThisPtr", StoreThisVec: "StoreThisVec", StoreThisVoid: "StoreThisVoid",
	StoreLocByte: "StoreLocByte", StoreLocInt: "StoreLocInt", StoreLocLarge: "StoreLocLarge",
	StoreLocPtr: "StoreLocPtr", StoreLocVec: "StoreLocVec", StoreLocVoid: "StoreLocVoid",
	LoadRef: "LoadRef",
	FinThisPodVec: "FinThisPodVec", FinThis: "FinThis", FinLocPodVec: "FinLocPodVec", FinLoc: "FinLoc",
	PopInt: "PopInt", PopLarge: "PopLarge", PopPtr: "PopPtr", PopVec: "PopVec",
	Add: "Add", AddLarge: "AddLarge", Sub: "Sub", SubLarge: "SubLarge",
	Mul: "Mul", MulLarge: "MulLarge", Div: "Div", DivLarge: "DivLarge", Mod: "Mod", ModLarge: "ModLarge",
	BitAnd: "BitAnd", BitOr: "BitOr", BitXor: "BitXor", Shl: "Shl", Shr: "Shr", BitNot: "BitNot", BoolNot: "BoolNot",
	Neg: "Neg", NegLarge: "NegLarge",
	LargeToInt: "LargeToInt", IntToLarge: "IntToLarge", IntToStr: "IntToStr", LargeToStr: "LargeToStr",
	CmpInt: "CmpInt", CmpLarge: "CmpLarge", CmpStrChr: "CmpStrChr", CmpChrStr: "CmpChrStr",
	CmpPodVec: "CmpPodVec", CmpTypeRef: "CmpTypeRef",
	CmpEQ: "CmpEQ", CmpNE: "CmpNE", CmpLT: "CmpLT", CmpLE: "CmpLE", CmpGT: "CmpGT", CmpGE: "CmpGE",
	MkSubrange: "MkSubrange", ElemToVec: "ElemToVec", VecCat: "VecCat", VecElemCat: "VecElemCat", CopyToTmpVec: "CopyToTmpVec",
	Jump: "Jump", JumpTrue: "JumpTrue", JumpFalse: "JumpFalse", JumpAnd: "JumpAnd", JumpOr: "JumpOr", CaseJump: "CaseJump",
	RetByte: "RetByte", RetInt: "RetInt", RetLarge: "RetLarge", RetPtr: "RetPtr", RetVec: "RetVec", RetVoid: "RetVoid",
	Call: "Call",
}

func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "OpCode(?)"
}

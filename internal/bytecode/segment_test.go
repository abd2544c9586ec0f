package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitAndAt(t *testing.T) {
	seg := NewCodeSegment()
	addr := seg.Emit(LoadZero, 1)
	assert.Equal(t, 0, addr)
	require.Equal(t, 1, seg.Len())
	assert.Equal(t, LoadZero, seg.At(0).Op)
}

func TestEmitAOperand(t *testing.T) {
	seg := NewCodeSegment()
	seg.EmitA(Jump, 7, 1)
	assert.Equal(t, int32(7), seg.At(0).A)
}

func TestPatchAResolvesForwardJump(t *testing.T) {
	seg := NewCodeSegment()
	addr := seg.EmitA(JumpFalse, -1, 1)
	seg.Emit(LoadOne, 1)
	seg.Emit(Nop, 1)
	seg.PatchA(addr, int32(seg.Len()))
	assert.Equal(t, int32(seg.Len()), seg.At(addr).A)
}

func TestTruncateDiscardsTail(t *testing.T) {
	seg := NewCodeSegment()
	seg.Emit(LoadZero, 1)
	mark := seg.Len()
	seg.Emit(LoadOne, 1)
	seg.Emit(Add, 1)
	require.Equal(t, 3, seg.Len())
	seg.Truncate(mark)
	assert.Equal(t, 1, seg.Len())
	assert.Equal(t, LoadZero, seg.At(0).Op)
}

func TestOpCodeStringUnknown(t *testing.T) {
	assert.Equal(t, "End", End.String())
	assert.Equal(t, "OpCode(?)", OpCode(99999).String())
}

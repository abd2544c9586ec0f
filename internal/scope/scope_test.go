package scope

import (
	"testing"

	"shannon/internal/types"
	"shannon/internal/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymScopeFindAndDuplicate(t *testing.T) {
	s := NewScope(nil)
	intT := types.NewInteger(0, 10)
	_, err := s.AddVariable("x", intT, false)
	require.NoError(t, err)

	sym, ok := s.Find("x")
	require.True(t, ok)
	v, ok := sym.(*Variable)
	require.True(t, ok)
	assert.Equal(t, "x", v.NameStr)

	_, err = s.AddVariable("x", intT, false)
	assert.Error(t, err, "redeclaring the same name must fail with Duplicate")
}

func TestDeepFindSearchesUsesThenParent(t *testing.T) {
	prelude := NewScope(nil)
	intT := types.NewInteger(0, 10)
	_, err := prelude.AddVariable("preludeVar", intT, false)
	require.NoError(t, err)

	parent := NewScope(nil)
	_, err = parent.AddVariable("parentVar", intT, false)
	require.NoError(t, err)

	child := NewScope(parent)
	child.Uses(prelude.SymScope)
	_, err = child.AddVariable("childVar", intT, false)
	require.NoError(t, err)

	_, ok := child.DeepFind("childVar")
	assert.True(t, ok, "local symbol must resolve")
	_, ok = child.DeepFind("preludeVar")
	assert.True(t, ok, "uses-list symbol must resolve")
	_, ok = child.DeepFind("parentVar")
	assert.True(t, ok, "parent symbol must resolve")
	_, ok = child.DeepFind("nope")
	assert.False(t, ok)
}

func TestDeepFindPrefersLocalOverUsesOverParent(t *testing.T) {
	prelude := NewScope(nil)
	intT := types.NewInteger(0, 10)
	preludeConst, err := prelude.AddConstant("name", intT, value.NewInt(intT, 1))
	require.NoError(t, err)

	parent := NewScope(nil)
	parentConst, err := parent.AddConstant("name", intT, value.NewInt(intT, 2))
	require.NoError(t, err)

	child := NewScope(parent)
	child.Uses(prelude.SymScope)
	childConst, err := child.AddConstant("name", intT, value.NewInt(intT, 3))
	require.NoError(t, err)

	sym, ok := child.DeepFind("name")
	require.True(t, ok)
	assert.Same(t, childConst, sym.(*Constant))
	assert.NotSame(t, preludeConst, sym.(*Constant))
	assert.NotSame(t, parentConst, sym.(*Constant))

	// Without a local symbol, the uses list wins over the parent.
	child2 := NewScope(parent)
	child2.Uses(prelude.SymScope)
	sym, ok = child2.DeepFind("name")
	require.True(t, ok)
	assert.Same(t, preludeConst, sym.(*Constant))
}

func TestAddTypeAliasLookupType(t *testing.T) {
	s := NewScope(nil)
	intT := types.NewInteger(0, 10)
	typeRefT := types.NewTypeRef()
	_, err := s.AddTypeAlias("MyInt", typeRefT, intT)
	require.NoError(t, err)

	got, ok := s.LookupType("MyInt")
	require.True(t, ok)
	assert.Same(t, intT, got)
}

func TestAddModuleVariablePostIncrementOffsets(t *testing.T) {
	// SPEC_FULL.md Open Question resolution #3: assign current
	// DataSize, then advance by aligned size (post-increment).
	m := NewModule("t")
	byteT := types.NewChar() // 1 byte, aligned to WordSize
	largeT := types.NewInteger(-9223372036854775808, 9223372036854775807)

	v1, err := m.AddModuleVariable("a", byteT)
	require.NoError(t, err)
	assert.Equal(t, 0, v1.Offset)

	v2, err := m.AddModuleVariable("b", largeT)
	require.NoError(t, err)
	assert.Equal(t, byteT.AlignedSize(), v2.Offset)
	assert.Equal(t, byteT.AlignedSize()+largeT.AlignedSize(), m.DataSize)

	assert.Equal(t, 0, v1.Slot)
	assert.Equal(t, 1, v2.Slot)
}

func TestScopeCloseReleasesConstantsOnly(t *testing.T) {
	s := NewScope(nil)
	intT := types.NewInteger(0, 10)
	_, err := s.AddConstant("c", intT, value.NewInt(intT, 5))
	require.NoError(t, err)
	assert.NotPanics(t, func() { s.Close() })
}

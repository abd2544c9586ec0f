package compiler

import (
	"testing"

	"shannon/internal/errors"
	"shannon/internal/types"
	"shannon/internal/vm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSrc(t *testing.T, src string) *Compiler {
	t.Helper()
	cc, err := New(src, "t.sh", NewPrelude())
	require.NoError(t, err)
	return cc
}

func TestS1SubrangeInference(t *testing.T) {
	cc := compileSrc(t, "module t\nconst r = 1..5\n")
	mod, err := cc.Compile()
	require.NoError(t, err)

	var found bool
	for _, c := range mod.Consts {
		if c.NameStr != "r" {
			continue
		}
		found = true
		rt, ok := c.Type.(*types.Range)
		require.True(t, ok, "r must have Range type")
		assert.Same(t, cc.Prelude.IntT, rt.Base)
		lo, hi := c.Value.RangeBounds()
		assert.Equal(t, int32(1), lo)
		assert.Equal(t, int32(5), hi)
	}
	assert.True(t, found)
}

func TestS2EnumSize(t *testing.T) {
	cc := compileSrc(t, "module t\ndef enum Color = (Red, Green, Blue)\n")
	_, err := cc.Compile()
	require.NoError(t, err)

	colorT, ok := cc.Mod.LookupType("Color")
	require.True(t, ok)
	enumT := colorT.(*types.Ordinal)
	assert.Equal(t, types.StorageByte, enumT.StorageClass())
	assert.Equal(t, 1, enumT.StaticSize())

	var red, blue *int64
	for _, c := range cc.Mod.Consts {
		switch c.NameStr {
		case "Red":
			v := c.Value.Raw
			red = &v
		case "Blue":
			v := c.Value.Raw
			blue = &v
		}
	}
	require.NotNil(t, red)
	require.NotNil(t, blue)
	assert.Equal(t, int64(0), *red)
	assert.Equal(t, int64(2), *blue)
}

func TestS2EnumTooLargeIsInternalError(t *testing.T) {
	src := "module t\ndef enum Big = ("
	for i := 0; i < 257; i++ {
		if i > 0 {
			src += ", "
		}
		src += "c" + itoaTest(i)
	}
	src += ")\n"
	cc := compileSrc(t, src)
	_, err := cc.Compile()
	require.Error(t, err)
	var se *errors.ShannonError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.Internal, se.Kind)
	assert.Equal(t, 15, se.Code)
}

func itoaTest(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestS3StringConcatFold(t *testing.T) {
	cc := compileSrc(t, "module t\nconst s = 'foo' ++ 'bar'\n")
	_, err := cc.Compile()
	require.NoError(t, err)

	for _, c := range cc.Mod.Consts {
		if c.NameStr == "s" {
			assert.Equal(t, "foobar", c.Value.Str())
			return
		}
	}
	t.Fatal("constant s not found")
}

func TestS4Typeof(t *testing.T) {
	cc := compileSrc(t, "module t\nconst t = typeof('abc')\n")
	_, err := cc.Compile()
	require.NoError(t, err)

	for _, c := range cc.Mod.Consts {
		if c.NameStr != "t" {
			continue
		}
		_, isRef := c.Type.(*types.TypeRef)
		require.True(t, isRef)
		assert.Same(t, cc.Prelude.StrT, c.Value.TypePayload)
		return
	}
	t.Fatal("constant t not found")
}

func TestS5OutOfRangeLiteralErrors(t *testing.T) {
	cc := compileSrc(t, "module t\ndef enum Color = (Red, Green, Blue)\nconst Color c = 4\n")
	_, err := cc.Compile()
	require.Error(t, err)
}

func TestS6SubrangeConstruction(t *testing.T) {
	cc := compileSrc(t, "module t\ndef sub = 10..20\n")
	_, err := cc.Compile()
	require.NoError(t, err)

	subT, ok := cc.Mod.LookupType("sub")
	require.True(t, ok)
	ord := subT.(*types.Ordinal)
	assert.Equal(t, int64(10), ord.Min)
	assert.Equal(t, int64(20), ord.Max)
	assert.Equal(t, 1, ord.PhysicalSize())
}

func TestS6InvalidSubrangeErrors(t *testing.T) {
	cc := compileSrc(t, "module t\ndef bad = 10..5\n")
	_, err := cc.Compile()
	require.Error(t, err)
}

func TestVarWithInitializerCompilesAndRuns(t *testing.T) {
	cc := compileSrc(t, "module t\nvar int x = 2 + 3\n")
	mod, err := cc.Compile()
	require.NoError(t, err)

	m := vm.New(mod, nil)
	require.NoError(t, m.Run())
	assert.Equal(t, int64(5), m.Data[0].Raw)
}

func TestVarWithoutInitializerNeedsTypeHint(t *testing.T) {
	cc := compileSrc(t, "module t\nvar x\n")
	_, err := cc.Compile()
	require.Error(t, err)
}

func TestDuplicateDefinitionErrors(t *testing.T) {
	cc := compileSrc(t, "module t\nconst x = 1\nconst x = 2\n")
	_, err := cc.Compile()
	require.Error(t, err)
}

func TestUnknownIdentifierErrors(t *testing.T) {
	cc := compileSrc(t, "module t\nconst x = y\n")
	_, err := cc.Compile()
	require.Error(t, err)
}

func TestStaticCastBetweenOrdinals(t *testing.T) {
	cc := compileSrc(t, "module t\ndef sub = 0..9\nvar int x = 7\nvar sub y = sub(x)\n")
	mod, err := cc.Compile()
	require.NoError(t, err)

	m := vm.New(mod, nil)
	require.NoError(t, m.Run())
	assert.Equal(t, int64(7), m.Data[1].Raw)
}

func TestCompoundLiteralFoldsVector(t *testing.T) {
	cc := compileSrc(t, "module t\nconst str v = ['a', 'b', 'c']\n")
	_, err := cc.Compile()
	require.NoError(t, err)

	for _, c := range cc.Mod.Consts {
		if c.NameStr == "v" {
			assert.Equal(t, "abc", c.Value.Str())
			return
		}
	}
	t.Fatal("constant v not found")
}

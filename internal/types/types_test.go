package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOwner is a minimal types.Owner for tests that don't need a real
// scope.Scope (which would import this package and create a cycle).
type fakeOwner struct {
	owned []Type
}

func (o *fakeOwner) OwnAnonymousType(t Type) { o.owned = append(o.owned, t) }

func TestOrdinalPhysicalSizeSelection(t *testing.T) {
	cases := []struct {
		name     string
		min, max int64
		want     int
	}{
		{"fits byte unsigned", 0, 255, 1},
		{"negative forces wider", -1, 255, 4},
		{"fits int32", -2147483648, 2147483647, 4},
		{"unsigned 32-bit range", 0, 4294967295, 4},
		{"needs large", -2147483649, 0, 8},
		{"needs large high", 0, 4294967296, 8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := &Ordinal{Min: c.min, Max: c.max}
			assert.Equal(t, c.want, o.PhysicalSize())
		})
	}
}

func TestNewIntegerRetagsKind(t *testing.T) {
	assert.Equal(t, Int8, NewInteger(0, 255).Kind())
	assert.Equal(t, Int32, NewInteger(-2147483648, 2147483647).Kind())
	assert.Equal(t, Int64, NewInteger(-9223372036854775808, 9223372036854775807).Kind())
}

func TestEnumTooLarge(t *testing.T) {
	names := make([]string, 257)
	for i := range names {
		names[i] = "c"
	}
	_, err := NewEnum(names)
	require.Error(t, err)
}

func TestEnumSizeAndValues(t *testing.T) {
	// Spec §8 S2: Color = (Red, Green, Blue).
	enumT, err := NewEnum([]string{"Red", "Green", "Blue"})
	require.NoError(t, err)
	assert.Equal(t, StorageByte, enumT.StorageClass())
	assert.Equal(t, 1, enumT.StaticSize())
	assert.Equal(t, int64(0), enumT.Min)
	assert.Equal(t, int64(2), enumT.Max)
}

func TestAlignedSizeRounding(t *testing.T) {
	assert.Equal(t, 0, alignedSize(0))
	assert.Equal(t, WordSize, alignedSize(1))
	assert.Equal(t, WordSize, alignedSize(WordSize))
	assert.Equal(t, 2*WordSize, alignedSize(WordSize+1))
}

func TestDerivedTypesAreInterned(t *testing.T) {
	owner := &fakeOwner{}
	charT := NewChar()

	v1 := DeriveVectorType(charT, owner)
	v2 := DeriveVectorType(charT, owner)
	assert.Same(t, v1, v2, "vector_of must be unique/interned")

	r1 := DeriveRefType(charT, owner)
	r2 := DeriveRefType(charT, owner)
	assert.Same(t, r1, r2, "ref_of must be unique/interned")

	s1 := DeriveSetType(charT, owner)
	s2 := DeriveSetType(charT, owner)
	assert.Same(t, s1, s2, "set_of must be unique/interned")
}

func TestDeriveRangeTypeCached(t *testing.T) {
	owner := &fakeOwner{}
	intT := NewInteger(-10, 10)
	r1 := intT.DeriveRangeType(owner)
	r2 := intT.DeriveRangeType(owner)
	assert.Same(t, r1, r2)
	assert.Same(t, intT, r1.Base)
}

func TestOwnerSetOnce(t *testing.T) {
	owner1 := &fakeOwner{}
	owner2 := &fakeOwner{}
	c := NewChar()
	c.SetOwner(owner1)
	assert.Panics(t, func() { c.SetOwner(owner2) })
}

func TestVectorIsStringOnlyForFullByteRangeChar(t *testing.T) {
	owner := &fakeOwner{}
	charT := NewChar()
	strT := DeriveVectorType(charT, owner)
	assert.True(t, strT.IsString())

	digit, err := charT.DeriveOrdinalFromRange(48, 57, owner)
	require.NoError(t, err)
	digitVec := DeriveVectorType(digit, owner)
	assert.False(t, digitVec.IsString())
}

func TestVectorIsEmptyCanonical(t *testing.T) {
	owner := &fakeOwner{}
	voidT := NewVoid()
	empty := DeriveVectorType(voidT, owner)
	assert.True(t, empty.IsEmpty())
}

func TestSetIndexIsMemberType(t *testing.T) {
	owner := &fakeOwner{}
	charT := NewChar()
	s := DeriveSetType(charT, owner)
	assert.Same(t, charT, s.Index)
	assert.Equal(t, Void, s.Elem.Kind())
}

func TestContains(t *testing.T) {
	o := &Ordinal{Min: 1, Max: 5}
	assert.True(t, o.Contains(1))
	assert.True(t, o.Contains(5))
	assert.False(t, o.Contains(0))
	assert.False(t, o.Contains(6))
}

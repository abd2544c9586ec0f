package vecbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullSentinelSharedIdentity(t *testing.T) {
	a := Null()
	b := Null()
	assert.Same(t, a, b)
	assert.Equal(t, 0, a.Len())
	// Retain/Release on the null sentinel must be no-ops, never panic.
	a.Retain()
	a.Release()
	assert.Equal(t, 0, Null().Len())
}

func TestNewFromEmptyReturnsNull(t *testing.T) {
	assert.Same(t, Null(), NewFrom(nil))
	assert.Same(t, Null(), NewFrom([]byte{}))
}

func TestRetainReleaseRefcount(t *testing.T) {
	b := NewFrom([]byte("hello"))
	b2 := b.Retain()
	require.Same(t, b, b2)
	// Two owners now; Unique must clone rather than mutate in place.
	u := b.Unique()
	assert.NotSame(t, b, u)
	assert.Equal(t, []byte("hello"), u.Bytes())
	assert.Equal(t, []byte("hello"), b.Bytes())
	b.Release()
	b.Release()
}

func TestUniqueClonesWhenShared(t *testing.T) {
	orig := NewFrom([]byte("abc"))
	orig.Retain() // refcount 2
	u := orig.Unique()
	u = u.Append([]byte("d"))
	assert.Equal(t, "abcd", string(u.Bytes()))
	assert.Equal(t, "abc", string(orig.Bytes()))
}

func TestUniqueNoCloneWhenSoleOwner(t *testing.T) {
	orig := NewFrom([]byte("abc"))
	u := orig.Unique()
	assert.Same(t, orig, u)
}

func TestResizeGrowsAndZeroFills(t *testing.T) {
	b := NewFrom([]byte("ab"))
	b = b.Resize(4)
	require.Equal(t, 4, b.Len())
	assert.Equal(t, []byte{'a', 'b', 0, 0}, b.Bytes())
}

func TestAppendInsertDelete(t *testing.T) {
	b := NewFrom([]byte("ace"))
	b, err := b.Insert(1, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "abce", string(b.Bytes()))

	b, err = b.Insert(4, []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, "abcde", string(b.Bytes()))

	b, err = b.Delete(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "ade", string(b.Bytes()))
}

func TestInsertOutOfRange(t *testing.T) {
	b := NewFrom([]byte("ab"))
	_, err := b.Insert(-1, []byte("x"))
	assert.Error(t, err)
	_, err = b.Insert(3, []byte("x"))
	assert.Error(t, err)
}

func TestDeleteOutOfRange(t *testing.T) {
	b := NewFrom([]byte("ab"))
	_, err := b.Delete(1, 5)
	assert.Error(t, err)
	_, err = b.Delete(-1, 1)
	assert.Error(t, err)
}

func TestSliceCopyIsIndependent(t *testing.T) {
	b := NewFrom([]byte("hello world"))
	s, err := b.Slice(0, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(s.Bytes()))
	s = s.Append([]byte("!"))
	assert.Equal(t, "hello world", string(b.Bytes()))
}

func TestSliceOutOfRange(t *testing.T) {
	b := NewFrom([]byte("hi"))
	_, err := b.Slice(1, 5)
	assert.Error(t, err)
	_, err = b.Slice(2, 1)
	assert.Error(t, err)
}

func TestAt(t *testing.T) {
	b := NewFrom([]byte("xyz"))
	c, err := b.At(1)
	require.NoError(t, err)
	assert.Equal(t, byte('y'), c)
	_, err = b.At(3)
	assert.Error(t, err)
	_, err = b.At(-1)
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	a := NewFrom([]byte("foo"))
	c := NewFrom([]byte("bar"))
	out := Concat(a, c)
	assert.Equal(t, "foobar", string(out.Bytes()))
	// originals untouched
	assert.Equal(t, "foo", string(a.Bytes()))
	assert.Equal(t, "bar", string(c.Bytes()))
}

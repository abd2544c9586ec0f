package value

import (
	"testing"

	"shannon/internal/types"
	"shannon/internal/vecbuf"

	"github.com/stretchr/testify/assert"
)

func TestRangePacking(t *testing.T) {
	v := NewRange(nil, 1, 5)
	lo, hi := v.RangeBounds()
	assert.Equal(t, int32(1), lo)
	assert.Equal(t, int32(5), hi)
}

func TestRangePackingNegativeLo(t *testing.T) {
	v := NewRange(nil, -10, 10)
	lo, hi := v.RangeBounds()
	assert.Equal(t, int32(-10), lo)
	assert.Equal(t, int32(10), hi)
}

func TestRetainReleaseOnlyTouchesVecStorage(t *testing.T) {
	strT := types.DeriveVectorType(types.NewChar(), &stubOwner{})
	buf := vecbuf.NewFrom([]byte("hi"))
	v := NewVec(strT, buf)

	retained := v.Retain()
	assert.Equal(t, "hi", retained.Str())

	// A non-vec value must not panic or touch any buffer on Retain/Release.
	intV := NewInt(nil, 42)
	assert.NotPanics(t, func() { intV.Retain(); intV.Release() })

	v.Release()
	retained.Release()
}

func TestTakeDoesNotRetain(t *testing.T) {
	buf := vecbuf.NewFrom([]byte("owned"))
	v := Take(nil, buf)
	assert.Equal(t, "owned", v.Str())
}

func TestStrEmptyOnNilVec(t *testing.T) {
	v := Value{}
	assert.Equal(t, "", v.Str())
}

func TestNewBool(t *testing.T) {
	assert.Equal(t, int64(1), NewBool(nil, true).Raw)
	assert.Equal(t, int64(0), NewBool(nil, false).Raw)
}

type stubOwner struct{}

func (stubOwner) OwnAnonymousType(types.Type) {}

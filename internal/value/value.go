// Package value implements the tagged literal value of spec §4.D: a
// pair (type, raw payload) with safe construction/finalization and
// conversion to/from the wire-ish representation the bytecode VM pushes
// on its runtime stack.
//
// Grounded on trunk/src/langobj.h's ShValue (an 8-byte union tagged by
// its ShType*) and on spec §9's design note that the original's
// "_initialize"/"_finalize" inc/dec calls should become a small set of
// typed operations (Retain/Release/Take) over a handle type, which is
// exactly what this package provides.
package value

import (
	"shannon/internal/types"
	"shannon/internal/vecbuf"
)

// Value is the tagged runtime/compile-time value. Raw carries the
// payload for Byte/Int/Large storage (booleans, chars, enum indices,
// integers) and for Range (packed hi<<32|lo, spec glossary "Range
// value"). Vec carries the payload for Vec storage. TypePayload carries
// the payload for a TypeRef value. Ref carries the payload for a
// Reference value.
//
// This is an idiomatic-Go stand-in for the original's raw-byte-stack
// ABI: rather than reinterpreting untyped memory per storage class
// (unsafe pointer arithmetic, not idiomatic Go), every Value already
// knows its own storage class via T, so the VM's typed Load/Store
// opcodes (LoadThisByte, LoadThisVec, ...) dispatch directly on that
// instead of decoding raw bytes. The opcode *names* and the codegen
// shape-mirroring discipline they drive are unaffected.
type Value struct {
	T           types.Type
	Raw         int64
	Vec         *vecbuf.Buf
	TypePayload types.Type
	Ref         *Value
}

// Zero is the zero value for void-typed results.
var Zero = Value{}

func NewInt(t types.Type, v int64) Value    { return Value{T: t, Raw: v} }
func NewLarge(t types.Type, v int64) Value  { return Value{T: t, Raw: v} }
func NewBool(t types.Type, v bool) Value {
	if v {
		return Value{T: t, Raw: 1}
	}
	return Value{T: t, Raw: 0}
}
func NewChar(t types.Type, c byte) Value { return Value{T: t, Raw: int64(c)} }
func NewEnum(t types.Type, idx int64) Value { return Value{T: t, Raw: idx} }

// NewRange packs (lo,hi) per spec glossary "Range value" and §4.E
// "MkSubrange": (hi<<32)|lo.
func NewRange(t types.Type, lo, hi int32) Value {
	return Value{T: t, Raw: (int64(uint32(hi)) << 32) | int64(uint32(lo))}
}

// RangeBounds unpacks a Range value's (lo,hi).
func (v Value) RangeBounds() (lo, hi int32) {
	return int32(uint32(v.Raw)), int32(uint32(v.Raw >> 32))
}

// NewVec constructs a Value over an already-owned (refcount-1) buffer;
// the caller transfers ownership in (this is the "take" primitive of
// spec §9's design note).
func NewVec(t types.Type, buf *vecbuf.Buf) Value {
	return Value{T: t, Vec: buf}
}

// NewString is a convenience constructor for the `str` vector type.
func NewString(strType types.Type, s string) Value {
	return Value{T: strType, Vec: vecbuf.NewFrom([]byte(s))}
}

func NewTypeRef(typeRefType types.Type, payload types.Type) Value {
	return Value{T: typeRefType, TypePayload: payload}
}

func NewReference(refType types.Type, target *Value) Value {
	return Value{T: refType, Ref: target}
}

// NewVoid constructs the unit value.
func NewVoid(voidType types.Type) Value { return Value{T: voidType} }

// Str returns the Value's vector payload decoded as a string. Only
// meaningful when T is a string-shaped Vector.
func (v Value) Str() string {
	if v.Vec == nil {
		return ""
	}
	return string(v.Vec.Bytes())
}

// isVec reports whether releasing/retaining this value must touch
// a ref-counted buffer: true for any Vec-storage value (spec §3.3:
// "Vector values are reference-counted").
func (v Value) isVec() bool {
	return v.T != nil && v.T.StorageClass() == types.StorageVec
}

// Retain is the "_initialize" primitive of spec §4.A/§4.D: increments
// the underlying buffer's refcount when constructing a new owner for a
// Vec-storage value. Returns the (possibly identical) Value so callers
// can chain it the way the original's copy constructor would.
func (v Value) Retain() Value {
	if v.isVec() && v.Vec != nil {
		v.Vec = v.Vec.Retain()
	}
	return v
}

// Release is the "_finalize" primitive: decrements the underlying
// buffer's refcount, called whenever a Vec-storage value is overwritten
// or goes out of scope (spec §3.3).
func (v Value) Release() {
	if v.isVec() && v.Vec != nil {
		v.Vec.Release()
	}
}

// Take transfers ownership of buf into a fresh Value without touching
// its refcount — the "take" primitive used when a freshly-constructed
// buffer (refcount already 1, e.g. just built by VecCat) becomes a
// Value with no separate retain step.
func Take(t types.Type, buf *vecbuf.Buf) Value {
	return Value{T: t, Vec: buf}
}

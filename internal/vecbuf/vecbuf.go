// Package vecbuf implements the reference-counted byte buffer that
// backs every Shannon vector value (spec §4.A). It is the single
// value-semantic, copy-on-write byte container the rest of the core
// consumes: a header carrying {capacity, length, refcount} followed by
// the payload bytes, with all public handles pointing at the payload.
//
// This is a from-scratch Go model of the original `ShContainer`/byte
// FIFO described in spec §4.A and grounded on trunk/src/contain.h's
// ref-counted buffer discipline (create/copy/destroy/unique/resize);
// Go's GC means there is no literal header-before-payload allocation,
// but the refcount, unique-on-write, and growth-factor contracts are
// reproduced exactly so codegen's Fin* opcodes have real work to do.
package vecbuf

import "shannon/internal/errors"

const minCapacity = 8

// Buf is a ref-counted, growable byte buffer. The zero value is not
// valid; use New or NewFrom.
type Buf struct {
	data     []byte
	refcount *int32
}

// null is the canonical empty-buffer identity: every empty vector or
// empty string shares this single sentinel so that comparisons and
// LoadNullVec never have to allocate.
var null = &Buf{data: nil, refcount: new(int32)}

// Null returns the shared empty-buffer sentinel (refcount is ignored
// on it: retain/release are no-ops on the null buffer).
func Null() *Buf { return null }

// New creates an empty buffer with refcount 1.
func New() *Buf {
	rc := int32(1)
	return &Buf{data: []byte{}, refcount: &rc}
}

// NewFrom copies b into a new buffer with refcount 1; an empty b yields
// the shared Null sentinel instead.
func NewFrom(b []byte) *Buf {
	if len(b) == 0 {
		return Null()
	}
	buf := New()
	buf.data = append(buf.data[:0:0], b...)
	return buf
}

// Len returns the buffer's logical length.
func (b *Buf) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Bytes returns the buffer's raw payload. Callers must not mutate the
// returned slice; use Unique first if a mutable view is needed.
func (b *Buf) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

func (b *Buf) isNull() bool { return b == nil || b == null }

// Retain increments the refcount, the `_initialize` primitive of spec
// §4.A/§9 (Design Notes: "Manual ref-count fiddling").
func (b *Buf) Retain() *Buf {
	if b.isNull() {
		return b
	}
	*b.refcount++
	return b
}

// Release decrements the refcount and frees the backing array at zero.
// This is `_finalize`.
func (b *Buf) Release() {
	if b.isNull() {
		return
	}
	*b.refcount--
	if *b.refcount <= 0 {
		b.data = nil
	}
}

// shared reports whether more than one owner currently holds b.
func (b *Buf) shared() bool {
	return !b.isNull() && *b.refcount > 1
}

// Unique returns a buffer the caller may freely mutate: b itself if its
// refcount is 1 (or it is the null sentinel, which is never mutated in
// place — callers get a fresh buffer instead), or a private clone
// otherwise. This is the single copy-on-write primitive every mutating
// operation funnels through.
func (b *Buf) Unique() *Buf {
	if b.isNull() || b.shared() {
		clone := New()
		clone.data = append(clone.data[:0:0], b.Bytes()...)
		if !b.isNull() {
			b.Release()
		}
		return clone
	}
	return b
}

func growCapacity(have, need int) int {
	cap := have
	if cap < minCapacity {
		cap = minCapacity
	}
	for cap < need {
		cap *= 2
	}
	return cap
}

// Resize grows or shrinks the buffer to exactly n bytes, ensuring
// uniqueness first. New bytes beyond the old length are zero-filled.
func (b *Buf) Resize(n int) *Buf {
	u := b.Unique()
	if n <= cap(u.data) {
		old := len(u.data)
		u.data = u.data[:n]
		if n > old {
			for i := old; i < n; i++ {
				u.data[i] = 0
			}
		}
		return u
	}
	grown := make([]byte, n, growCapacity(cap(u.data), n))
	copy(grown, u.data)
	u.data = grown
	return u
}

// Append appends p to the buffer, ensuring uniqueness first, and
// returns the (possibly new) owning buffer.
func (b *Buf) Append(p []byte) *Buf {
	u := b.Unique()
	u.data = append(u.data, p...)
	return u
}

// Insert inserts p at index i.
func (b *Buf) Insert(i int, p []byte) (*Buf, error) {
	if i < 0 || i > b.Len() {
		return b, errors.Internalf(1, "vecbuf: insert index %d out of range [0,%d]", i, b.Len())
	}
	u := b.Unique()
	u.data = append(u.data[:i:i], append(append([]byte{}, p...), u.data[i:]...)...)
	return u, nil
}

// Delete removes n bytes starting at index i, checked against
// IndexOutOfRange per spec §4.A.
func (b *Buf) Delete(i, n int) (*Buf, error) {
	if i < 0 || n < 0 || i+n > b.Len() {
		return b, errors.Internalf(2, "vecbuf: delete range [%d,%d) out of [0,%d)", i, i+n, b.Len())
	}
	u := b.Unique()
	u.data = append(u.data[:i:i], u.data[i+n:]...)
	return u, nil
}

// Slice returns a fresh, independently-owned copy of b[lo:hi], checked
// against IndexOutOfRange per spec §4.A.
func (b *Buf) Slice(lo, hi int) (*Buf, error) {
	if lo < 0 || hi > b.Len() || lo > hi {
		return nil, errors.Internalf(3, "vecbuf: slice range [%d,%d) out of [0,%d)", lo, hi, b.Len())
	}
	return NewFrom(b.Bytes()[lo:hi]), nil
}

// At returns the byte at index i, checked per spec §4.A.
func (b *Buf) At(i int) (byte, error) {
	if i < 0 || i >= b.Len() {
		return 0, errors.Internalf(4, "vecbuf: index %d out of range [0,%d)", i, b.Len())
	}
	return b.Bytes()[i], nil
}

// Concat returns a new buffer holding a's bytes followed by c's.
func Concat(a, c *Buf) *Buf {
	out := NewFrom(a.Bytes())
	return out.Append(c.Bytes())
}

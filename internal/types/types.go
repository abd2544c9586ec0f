// Package types implements the Shannon type algebra (spec §3.1, §4.C):
// the closed set of type kinds, their derivation rules (vector/array/
// set/range/reference), and the equality/assignability/comparability/
// cast predicates driven by those kinds.
//
// Grounded on trunk/src/langobj.h's ShType/ShOrdinal/ShVector/... class
// hierarchy, reframed per spec §9's design note as a tagged sum: Type is
// an interface whose Kind() tag drives match-style dispatch in the
// predicates below, instead of the original's virtual-method hierarchy.
package types

import (
	"fmt"

	"shannon/internal/errors"
)

func errEnumTooLarge(n int) error {
	return errors.Internalf(15, "enum has %d constants, limit is 256", n)
}

// TypeId is the closed set of type kinds (spec §3.1).
type TypeId int

const (
	Int8 TypeId = iota
	Int32
	Int64
	Char
	Enum
	Bool
	Vec
	Arr
	TypeRefKind
	RangeKind
	ReferenceKind
	LocalSymScope
	LocalScope
	ModuleKind
	Void
)

func (k TypeId) String() string {
	switch k {
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Char:
		return "char"
	case Enum:
		return "enum"
	case Bool:
		return "bool"
	case Vec:
		return "vector"
	case Arr:
		return "array"
	case TypeRefKind:
		return "typeref"
	case RangeKind:
		return "range"
	case ReferenceKind:
		return "reference"
	case LocalSymScope:
		return "localsymscope"
	case LocalScope:
		return "localscope"
	case ModuleKind:
		return "module"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("TypeId(%d)", int(k))
	}
}

// Storage is the memory storage class a type maps to (spec §3.1). Each
// class is a distinct discriminant; byte width is a separate concern
// (Size below), since Large/Ptr/Vec share a width on this 64-bit target
// without being the same class.
type Storage int

const (
	StorageVoid Storage = iota
	StorageByte
	StorageInt
	StorageLarge
	StoragePtr // word size; see WordSize
	StorageVec // pointer to a ref-counted vecbuf.Buf
)

// WordSize is the target word alignment (spec §3.2: "W"). This
// implementation targets 64-bit hosts exclusively (a Large constant
// travels as one int64 operand, bytecode.Instr.Const), so W = 8.
const WordSize = 8

// Size returns the storage class's width in bytes (spec §3.2): 0 for
// Void, 1 for Byte, 4 for Int, and WordSize for Large/Ptr/Vec.
func (s Storage) Size() int {
	switch s {
	case StorageVoid:
		return 0
	case StorageByte:
		return 1
	case StorageInt:
		return 4
	default:
		return WordSize
	}
}

// Owner is the subset of *scope.Scope that Type needs, expressed as an
// interface here to avoid an import cycle (scope.Scope owns Types;
// Type.Owner points back non-owning, per spec §3.2/§9).
type Owner interface {
	OwnAnonymousType(t Type)
}

// Type is the common interface every type kind implements. Per spec
// §9's design note this interface plus TypeId is the "tagged sum":
// predicates type-switch on concrete types rather than relying on
// virtual dispatch.
type Type interface {
	Kind() TypeId
	Name() string
	SetName(string)
	StorageClass() Storage
	StaticSize() int
	AlignedSize() int
	Owner() Owner
	SetOwner(Owner)

	// derived-type cache, lazily populated and interned (spec §3.2)
	VectorOf() *Vector
	setVectorOf(*Vector)
	SetOf() *Set
	setSetOf(*Set)
	RefOf() *Reference
	setRefOf(*Reference)

	// ArrayOf/setArrayOf intern Array types over this type as element,
	// keyed by index type, on this type itself (spec §3.2: derived
	// types are owned by the scope the base type belongs to, not a
	// package-level table).
	ArrayOf(index Type) *Array
	setArrayOf(index Type, a *Array)
}

// alignedSize rounds n up to the next multiple of WordSize; alignedSize
// of 0 is 0 (spec §3.2: "aligned_size(Void) = 0").
func alignedSize(n int) int {
	if n == 0 {
		return 0
	}
	return (n + WordSize - 1) / WordSize * WordSize
}

// base is embedded by every concrete type and implements the common
// bookkeeping (name, owner, derived-type cache) shared across kinds.
type base struct {
	name     string
	owner    Owner
	vectorOf *Vector
	setOf    *Set
	refOf    *Reference
	// arraysOf caches this type's Array instantiations keyed by index
	// type: unlike Vector/Set/Reference, a single elem type can derive
	// many Arrays (one per distinct index type), so a single slot won't
	// do.
	arraysOf map[Type]*Array
}

func (b *base) Name() string     { return b.name }
func (b *base) SetName(n string) { b.name = n }
func (b *base) Owner() Owner     { return b.owner }
func (b *base) SetOwner(o Owner) {
	if b.owner != nil {
		panic("types: owner already set (spec §3.2 invariant: set exactly once)")
	}
	b.owner = o
}
func (b *base) VectorOf() *Vector     { return b.vectorOf }
func (b *base) setVectorOf(v *Vector) { b.vectorOf = v }
func (b *base) SetOf() *Set           { return b.setOf }
func (b *base) setSetOf(s *Set)       { b.setOf = s }
func (b *base) RefOf() *Reference     { return b.refOf }
func (b *base) setRefOf(r *Reference) { b.refOf = r }

func (b *base) ArrayOf(index Type) *Array {
	if b.arraysOf == nil {
		return nil
	}
	return b.arraysOf[index]
}

func (b *base) setArrayOf(index Type, a *Array) {
	if b.arraysOf == nil {
		b.arraysOf = map[Type]*Array{}
	}
	b.arraysOf[index] = a
}

// -------------------------------------------------------------------
// Void

type VoidType struct{ base }

func NewVoid() *VoidType { return &VoidType{} }

func (*VoidType) Kind() TypeId         { return Void }
func (*VoidType) StorageClass() Storage { return StorageVoid }
func (*VoidType) StaticSize() int      { return 0 }
func (*VoidType) AlignedSize() int     { return 0 }

// -------------------------------------------------------------------
// Ordinal family: Ordinal (common range logic), Integer, Char, Enum,
// Bool.

// Ordinal refines Type with an inclusive closed range [Min,Max] of
// large integers (spec §3.1).
type Ordinal struct {
	base
	kind        TypeId
	Min, Max    int64
	rangeOf     *Range // cached derived range type (spec §4.C deriveRangeType)
	// EnumConsts holds, for Enum only, the ordered constant names.
	EnumConsts []string
}

// PhysicalSize chooses 1, 4, or 8 bytes: unsigned fits in 1 if Max <=
// 255, else signed/unsigned fits in 4 if the range fits in 32 bits,
// else 8 (spec §3.1 "Ordinal").
func (o *Ordinal) PhysicalSize() int {
	if o.Min >= 0 && o.Max <= 255 {
		return 1
	}
	if o.Min >= -2147483648 && o.Max <= 4294967295 {
		return 4
	}
	return 8
}

func (o *Ordinal) Kind() TypeId { return o.kind }

func (o *Ordinal) StorageClass() Storage {
	switch o.PhysicalSize() {
	case 1:
		return StorageByte
	case 4:
		return StorageInt
	default:
		return StorageLarge
	}
}

func (o *Ordinal) StaticSize() int  { return o.PhysicalSize() }
func (o *Ordinal) AlignedSize() int { return alignedSize(o.StaticSize()) }

// Contains reports lo <= v <= hi (spec §8 property 6).
func (o *Ordinal) Contains(v int64) bool { return v >= o.Min && v <= o.Max }

// -------------------------------------------------------------------
// Integer: an Ordinal whose TypeId is automatically retagged to
// Int8/Int32/Int64 based on PhysicalSize (spec §3.1 "Integer").

// NewInteger constructs an Integer ordinal over [min,max] and tags it
// with the TypeId matching its chosen physical size.
func NewInteger(min, max int64) *Ordinal {
	o := &Ordinal{Min: min, Max: max}
	o.kind = integerKindFor(o.PhysicalSize())
	return o
}

func integerKindFor(physSize int) TypeId {
	switch physSize {
	case 1:
		return Int8
	case 4:
		return Int32
	default:
		return Int64
	}
}

// NewChar constructs the Char ordinal over byte values [0,255] (spec
// §3.1 "Char").
func NewChar() *Ordinal {
	return &Ordinal{kind: Char, Min: 0, Max: 255}
}

// NewBool constructs the Bool ordinal over [0,1] (spec §3.1 "Bool").
func NewBool() *Ordinal {
	return &Ordinal{kind: Bool, Min: 0, Max: 1}
}

// NewEnum constructs an Enum ordinal over [0, N-1] for the given
// constant names (spec §3.1 "Enum"). N must be <= 256 (spec §3.2).
func NewEnum(consts []string) (*Ordinal, error) {
	if len(consts) > 256 {
		return nil, errEnumTooLarge(len(consts))
	}
	return &Ordinal{kind: Enum, Min: 0, Max: int64(len(consts) - 1), EnumConsts: consts}, nil
}

// IsLarge reports whether values of this ordinal occupy a Large (8
// byte) runtime slot.
func (o *Ordinal) IsLarge() bool { return o.StorageClass() == StorageLarge }

// -------------------------------------------------------------------
// Range: a pair of ordinals of the same base (spec §3.1 "Range").

// Range is the *type* of a subrange literal like `1..5`; its runtime
// *value* representation is a packed 64-bit word (hi<<32|lo), distinct
// from this type (spec glossary: "Range value").
type Range struct {
	base
	Base *Ordinal
}

func (*Range) Kind() TypeId         { return RangeKind }
func (*Range) StorageClass() Storage { return StorageLarge }
func (*Range) StaticSize() int      { return 8 }
func (r *Range) AlignedSize() int   { return alignedSize(r.StaticSize()) }

// DeriveRangeType returns the unique Range type over this ordinal,
// creating and caching it on first use (spec §4.C "deriveRangeType":
// only valid on ordinals, cached under the base ordinal).
func (o *Ordinal) DeriveRangeType(owner Owner) *Range {
	if o.rangeOf != nil {
		return o.rangeOf
	}
	r := &Range{Base: o}
	r.SetOwner(owner)
	owner.OwnAnonymousType(r)
	o.rangeOf = r
	return r
}

// -------------------------------------------------------------------
// Vector / Array / Set

// Vector holds an element type (spec §3.1 "Vector"). IsString iff the
// element is a Char covering the full [0,255] range; the empty-vector
// literal type has element Void (spec invariant: "Vector<Void> is the
// canonical empty-vector literal type").
type Vector struct {
	base
	Elem Type
}

func (*Vector) Kind() TypeId          { return Vec }
func (*Vector) StorageClass() Storage { return StorageVec }
func (*Vector) StaticSize() int       { return StorageVec.Size() }
func (v *Vector) AlignedSize() int    { return alignedSize(v.StaticSize()) }

// IsString reports whether this is the `str` vector-of-Char type.
func (v *Vector) IsString() bool {
	c, ok := v.Elem.(*Ordinal)
	return ok && c.Kind() == Char && c.Min == 0 && c.Max == 255
}

// IsEmpty reports whether this is the canonical Vector<Void> literal
// type.
func (v *Vector) IsEmpty() bool { return v.Elem.Kind() == Void }

// IsPOD reports whether a Vector's element is itself non-Vec storage,
// i.e. the vector holds no nested ref-counted buffers (spec §3.1
// "a vector is POD iff its element is non-Vec").
func (v *Vector) IsPOD() bool { return v.Elem.StorageClass() != StorageVec }

// DeriveVectorType returns (creating and caching if needed) the unique
// Vector type over t (spec invariant: "T.vector_of is unique").
func DeriveVectorType(t Type, owner Owner) *Vector {
	if v := t.VectorOf(); v != nil {
		return v
	}
	v := &Vector{Elem: t}
	v.SetOwner(owner)
	owner.OwnAnonymousType(v)
	t.setVectorOf(v)
	return v
}

// Array refines Vector with an index type (spec §3.1 "Array").
type Array struct {
	Vector
	Index Type
}

func (*Array) Kind() TypeId { return Arr }

// DeriveArrayType returns the unique Array type over (elem, index),
// interned on elem itself the way DeriveVectorType/DeriveSetType/
// DeriveRefType intern their derived type on the base type's own cache
// slot (spec §3.2: a derived type belongs to the scope its base type
// belongs to). Array needs a slot per distinct index type rather than
// a single pointer, since one elem type may be arrayed over many
// different index types, so the cache lives in elem.ArrayOf/setArrayOf
// instead of a single field.
func DeriveArrayType(elem, index Type, owner Owner) *Array {
	if a := elem.ArrayOf(index); a != nil {
		return a
	}
	a := &Array{Vector: Vector{Elem: elem}, Index: index}
	a.SetOwner(owner)
	owner.OwnAnonymousType(a)
	elem.setArrayOf(index, a)
	return a
}

// Set is an Array whose element is Void; the index type IS the set's
// member type (spec §3.1 "Set").
type Set struct {
	Array
}

// DeriveSetType returns the unique Set type over member (spec
// invariant: "T.set_of is unique (only defined when the element type is
// Void)").
func DeriveSetType(member Type, owner Owner) *Set {
	if s := member.SetOf(); s != nil {
		return s
	}
	voidElem := NewVoid()
	s := &Set{Array{Vector: Vector{Elem: voidElem}, Index: member}}
	s.SetOwner(owner)
	owner.OwnAnonymousType(s)
	member.setSetOf(s)
	return s
}

// -------------------------------------------------------------------
// Reference

// Reference wraps a base type (spec §3.1 "Reference").
type Reference struct {
	base
	Base Type
}

func (*Reference) Kind() TypeId          { return ReferenceKind }
func (*Reference) StorageClass() Storage { return StoragePtr }
func (*Reference) StaticSize() int       { return StoragePtr.Size() }
func (r *Reference) AlignedSize() int    { return alignedSize(r.StaticSize()) }

// DeriveRefType returns the unique Reference type over t (spec
// invariant: "T.ref_of is unique").
func DeriveRefType(t Type, owner Owner) *Reference {
	if r := t.RefOf(); r != nil {
		return r
	}
	r := &Reference{Base: t}
	r.SetOwner(owner)
	owner.OwnAnonymousType(r)
	t.setRefOf(r)
	return r
}

// -------------------------------------------------------------------
// TypeRef: the type of a type-expression's value (spec §3.1 "TypeRef").

type TypeRef struct{ base }

func NewTypeRef() *TypeRef { return &TypeRef{} }

func (*TypeRef) Kind() TypeId          { return TypeRefKind }
func (*TypeRef) StorageClass() Storage { return StoragePtr }
func (*TypeRef) StaticSize() int       { return StoragePtr.Size() }
func (t *TypeRef) AlignedSize() int    { return alignedSize(t.StaticSize()) }

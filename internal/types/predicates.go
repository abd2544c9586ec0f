package types

import "shannon/internal/errors"

// Equals implements spec §4.C "equals(A,B)": structural equality keyed
// on Kind(), with per-kind structural comparison.
func Equals(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *Ordinal:
		bv := b.(*Ordinal)
		switch av.Kind() {
		case Int8, Int32, Int64:
			return av.Min == bv.Min && av.Max == bv.Max
		case Char:
			return av.Min == bv.Min && av.Max == bv.Max
		case Bool:
			return true
		case Enum:
			return av == bv // enums are nominal, not structural
		}
		return false
	case *Range:
		bv := b.(*Range)
		return Equals(av.Base, bv.Base)
	case *Vector:
		bv := b.(*Vector)
		// *Array embeds *Vector but has its own Kind(), so this arm is
		// reached only for plain vectors.
		return Equals(av.Elem, bv.Elem)
	case *Array:
		bv := b.(*Array)
		return Equals(av.Elem, bv.Elem) && Equals(av.Index, bv.Index)
	case *Set:
		bv := b.(*Set)
		return Equals(av.Index, bv.Index)
	case *Reference:
		bv := b.(*Reference)
		return Equals(av.Base, bv.Base)
	case *TypeRef:
		return true
	case *VoidType:
		return true
	default:
		return false
	}
}

// CanAssign implements spec §4.C "canAssign(Target,Source)".
func CanAssign(target, source Type) bool {
	switch t := target.(type) {
	case *Ordinal:
		s, ok := source.(*Ordinal)
		if !ok {
			return false
		}
		return t.IsLarge() == s.IsLarge() && sameOrdinalFamily(t, s)
	case *Vector:
		// Note: *Array's dynamic type is never *Vector, so this arm only
		// ever sees plain vectors; Arrays fall through to the default
		// (structural-equality-only) case below, per spec §4.C.
		s, ok := source.(*Vector)
		if !ok {
			return false
		}
		if Equals(target, source) {
			return true
		}
		if Equals(t.Elem, s.Elem) {
			return true
		}
		return s.IsEmpty()
	default:
		return Equals(target, source)
	}
}

// sameOrdinalFamily keeps Char/Bool/Enum from silently assigning into
// each other even when "IsLarge" happens to match: Char only accepts
// Char, Bool only Bool, Enum only the identical Enum, plain Integer
// kinds (Int8/Int32/Int64) accept each other freely ("same
// large-ness" per spec §4.C).
func sameOrdinalFamily(t, s *Ordinal) bool {
	isInt := func(o *Ordinal) bool {
		return o.Kind() == Int8 || o.Kind() == Int32 || o.Kind() == Int64
	}
	switch {
	case t.Kind() == Char:
		return s.Kind() == Char
	case t.Kind() == Bool:
		return s.Kind() == Bool
	case t.Kind() == Enum:
		return t == s
	case isInt(t):
		return isInt(s)
	default:
		return false
	}
}

// CanCompareWith implements spec §4.C "canCompareWith".
func CanCompareWith(a, b Type) bool {
	ao, aIsOrd := a.(*Ordinal)
	bo, bIsOrd := b.(*Ordinal)
	switch {
	case aIsOrd && bIsOrd:
		isInt := func(o *Ordinal) bool { return o.Kind() != Char && o.Kind() != Bool }
		if ao.Kind() == Char && bo.Kind() == Char {
			return true
		}
		if ao.Kind() == Bool && bo.Kind() == Bool {
			return true
		}
		if isInt(ao) && isInt(bo) {
			return ao.IsLarge() == bo.IsLarge()
		}
		return false
	case aIsOrd && ao.Kind() == Char:
		bv, ok := b.(*Vector)
		return ok && bv.IsString()
	case bIsOrd && bo.Kind() == Char:
		av, ok := a.(*Vector)
		return ok && av.IsString()
	default:
		if _, ok := a.(*TypeRef); ok {
			_, ok2 := b.(*TypeRef)
			return ok2
		}
		av, aIsVec := a.(*Vector)
		bv, bIsVec := b.(*Vector)
		if aIsVec && bIsVec {
			_, aArr := a.(*Array)
			_, bArr := b.(*Array)
			return !aArr && !bArr && av != nil && bv != nil
		}
		return false
	}
}

// CanStaticCastTo implements spec §4.C "canStaticCastTo".
func CanStaticCastTo(from, to Type) bool {
	_, fromOrd := from.(*Ordinal)
	_, toOrd := to.(*Ordinal)
	if fromOrd && toOrd {
		return true
	}
	if fv, ok := from.(*Vector); ok {
		if _, isArr := from.(*Array); !isArr {
			if tv, ok2 := to.(*Vector); ok2 {
				if _, isArr2 := to.(*Array); !isArr2 {
					if fv.IsEmpty() {
						return true
					}
					return Equals(from, to)
				}
			}
		}
	}
	return Equals(from, to)
}

// DeriveOrdinalFromRange implements spec §4.C
// "deriveOrdinalFromRange(value)". Given a literal range [lo,hi]:
//   - if it equals self's range, self is returned (no new type);
//   - if it is strictly inside self's range and lo < hi, a clone is
//     registered under owner and returned;
//   - otherwise InvalidSubrange is raised.
func (o *Ordinal) DeriveOrdinalFromRange(lo, hi int64, owner Owner) (*Ordinal, error) {
	if lo == o.Min && hi == o.Max {
		return o, nil
	}
	if lo >= o.Min && hi <= o.Max && lo < hi {
		clone := &Ordinal{kind: integerKindForRange(o.kind, lo, hi), Min: lo, Max: hi}
		clone.SetOwner(owner)
		owner.OwnAnonymousType(clone)
		return clone, nil
	}
	return nil, errors.New(errors.InvalidSubrange, errors.Location{}, "subrange [%d,%d] is not contained in [%d,%d]", lo, hi, o.Min, o.Max)
}

// integerKindForRange re-selects Int8/Int32/Int64 for a derived
// subrange of an Integer ordinal, but keeps Char/Bool/Enum bases tagged
// with their own kind (a subrange of Char is still a Char subrange,
// etc.) — matching trunk/src/langobj.cpp's cloneWithRange, which only
// retags Integer-kind ordinals.
func integerKindForRange(baseKind TypeId, lo, hi int64) TypeId {
	switch baseKind {
	case Int8, Int32, Int64:
		return integerKindFor((&Ordinal{Min: lo, Max: hi}).PhysicalSize())
	default:
		return baseKind
	}
}

// DisplayValue renders bits (as produced by value.Value.Raw) as source
// text, per spec §9 ("virtual displayValue").
func DisplayValue(t Type, raw int64, str string) string {
	switch tv := t.(type) {
	case *Ordinal:
		switch tv.Kind() {
		case Bool:
			if raw != 0 {
				return "true"
			}
			return "false"
		case Char:
			return "'" + string(rune(byte(raw))) + "'"
		case Enum:
			idx := int(raw)
			if idx >= 0 && idx < len(tv.EnumConsts) {
				return tv.EnumConsts[idx]
			}
		}
		return itoa(raw)
	case *Range:
		lo := int32(raw & 0xffffffff)
		hi := int32(raw >> 32)
		return itoa(int64(lo)) + ".." + itoa(int64(hi))
	case *Vector:
		if tv.IsString() {
			return "'" + str + "'"
		}
		return "[" + str + "]"
	case *TypeRef:
		return "typeof(...)"
	default:
		return ""
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

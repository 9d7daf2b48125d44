// Package core provides the low-level MIRIAD on-disk type table, the
// byte-order recoder, and the header record padding arithmetic shared by
// the root dataset package and the uvdata codec. The packed header record
// codec itself lives in the root package.
package core

import "fmt"

// Type is the MIRIAD value type code. The numeric values are the on-disk
// codes used in the header and in large-item type probes; they must never
// be renumbered.
type Type int32

// Type codes, fixed by the on-disk format.
const (
	TypeBinary  Type = 0 // heterogeneous byte data
	TypeInt8    Type = 1
	TypeInt32   Type = 2
	TypeInt16   Type = 3
	TypeFloat32 Type = 4
	TypeFloat64 Type = 5
	TypeText    Type = 6 // stored on disk with code TypeInt8
	TypeComplex Type = 7 // two float32
	TypeInt64   Type = 8
)

type typeInfo struct {
	size  int
	align int
	glyph byte
	name  string
}

// typeTable is the process-wide, read-only dispatch table for size,
// alignment, display glyph and name. Complex64's alignment (4) differs
// from its size (8) — every other type has align == size.
var typeTable = map[Type]typeInfo{
	TypeBinary:  {1, 1, '?', "binary"},
	TypeInt8:    {1, 1, 'b', "int8"},
	TypeInt32:   {4, 4, 'i', "int32"},
	TypeInt16:   {2, 2, 'j', "int16"},
	TypeFloat32: {4, 4, 'r', "float32"},
	TypeFloat64: {8, 8, 'd', "float64"},
	TypeText:    {1, 1, 'a', "text"},
	TypeComplex: {8, 4, 'c', "complex64"},
	TypeInt64:   {8, 8, 'l', "int64"},
}

// Valid reports whether t is one of the nine defined type codes.
func (t Type) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// Size returns the on-disk byte size of one element of t, or 0 if t is not
// a recognized type.
func (t Type) Size() int {
	return typeTable[t].size
}

// Align returns the natural alignment of one element of t.
func (t Type) Align() int {
	return typeTable[t].align
}

// Glyph returns the single-character printf-style display code for t.
func (t Type) Glyph() byte {
	info, ok := typeTable[t]
	if !ok {
		return '?'
	}
	return info.glyph
}

// String implements fmt.Stringer.
func (t Type) String() string {
	info, ok := typeTable[t]
	if !ok {
		return fmt.Sprintf("Type(%d)", int32(t))
	}
	return info.name
}

// DiskCode returns the type code this type is written to disk as. Text is
// written using the int8 code; every other type is written as itself.
func (t Type) DiskCode() Type {
	if t == TypeText {
		return TypeInt8
	}
	return t
}

// wideningTargets enumerates, for each source type, every destination type
// that a value may be losslessly widened to.
var wideningTargets = map[Type][]Type{
	TypeInt8:    {TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64, TypeComplex},
	TypeInt16:   {TypeInt32, TypeInt64, TypeFloat32, TypeFloat64, TypeComplex},
	TypeInt32:   {TypeInt64, TypeFloat32, TypeFloat64, TypeComplex},
	TypeInt64:   {TypeFloat32, TypeFloat64, TypeComplex},
	TypeFloat32: {TypeFloat64, TypeComplex},
}

// CanWiden reports whether a value of type src can be losslessly converted
// to dst. Same-type is always allowed (a straight copy); every other pair
// not named in wideningTargets fails.
func CanWiden(src, dst Type) bool {
	if src == dst {
		return src.Valid()
	}
	for _, t := range wideningTargets[src] {
		if t == dst {
			return true
		}
	}
	return false
}

// ParseTypeCode validates a raw on-disk type code, returning ErrFormat if it
// does not name one of the nine defined types.
func ParseTypeCode(code int32) (Type, error) {
	t := Type(code)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: invalid type code %d", ErrFormat, code)
	}
	return t, nil
}

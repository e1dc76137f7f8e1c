package tapeson

import "math"

// Tape tag bytes. The high byte of every tape word identifies what kind
// of cell it is; the low 56 bits carry a tag-specific payload. String and
// number cells are followed by one extra word (the string's length, or
// the number's raw bits); container start and end cells point at each
// other (see closeContainer in stage2.go).
const (
	tagRoot        = 'r'
	tagStartObject = '{'
	tagEndObject   = '}'
	tagStartArray  = '['
	tagEndArray    = ']'
	tagString      = '"'
	tagInt64       = 'l'
	tagUint64      = 'u'
	tagDouble      = 'd'
	tagNull        = 'n'
	tagTrue        = 't'
	tagFalse       = 'f'
)

const tapeTagShift = 56
const tapePayloadMask = (uint64(1) << tapeTagShift) - 1

func tapeTag(word uint64) byte       { return byte(word >> tapeTagShift) }
func tapePayload(word uint64) uint64 { return word & tapePayloadMask }
func makeTapeWord(tag byte, payload uint64) uint64 {
	return uint64(tag)<<tapeTagShift | (payload & tapePayloadMask)
}

// countMask is the width of the child-count field packed into the low bits
// of a container's close-cell payload: an object's close cell stores its
// field count there, an array's close cell stores its element count,
// alongside the back-pointer to the matching start cell shifted above it.
const countBits = 24
const countMask = (uint64(1) << countBits) - 1

// tapeCloseBackpointer and tapeCloseCount decode a container's close-cell
// payload (tagEndObject/tagEndArray) into the index of its matching start
// cell and its child count, respectively.
func tapeCloseBackpointer(payload uint64) int { return int(payload >> countBits) }
func tapeCloseCount(payload uint64) int       { return int(payload & countMask) }

// Type is the JSON value kind a tape cell or On-Demand token represents.
type Type byte

const (
	TypeNone Type = iota
	TypeNull
	TypeBool
	TypeInt64
	TypeUint64
	TypeFloat64
	TypeString
	TypeArray
	TypeObject
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "none"
	}
}

func typeFromTag(tag byte) Type {
	switch tag {
	case tagNull:
		return TypeNull
	case tagTrue, tagFalse:
		return TypeBool
	case tagInt64:
		return TypeInt64
	case tagUint64:
		return TypeUint64
	case tagDouble:
		return TypeFloat64
	case tagString:
		return TypeString
	case tagStartArray:
		return TypeArray
	case tagStartObject:
		return TypeObject
	default:
		return TypeNone
	}
}

// ParsedJSON is the fully materialized result of a DOM parse: a tape of
// tagged 64-bit words plus the two buffers tape string cells may point
// into -- the original source (borrowed, zero-copy strings) and Strings
// (copied, unescaped strings). It can be passed back to Parse as dst,
// which overwrites its fields with the new result.
type ParsedJSON struct {
	Tape    []uint64
	Strings []byte
	source  []byte
}

// Root returns an Iter positioned at the parsed document's top-level
// value.
func (pj *ParsedJSON) Root() Iter {
	return Iter{pj: pj, idx: 1}
}

// Reset clears a ParsedJSON, truncating Tape and Strings to length zero
// (their backing arrays are kept) and dropping the source reference.
// Load reuses those arrays when they are large enough; Parse does not.
func (pj *ParsedJSON) Reset() {
	pj.Tape = pj.Tape[:0]
	pj.Strings = pj.Strings[:0]
	pj.source = nil
}

func (pj *ParsedJSON) readString(idx int) (string, *Error) {
	if idx+1 >= len(pj.Tape) {
		return "", newError(ErrTape, -1, "truncated string tape entry")
	}
	payload := tapePayload(pj.Tape[idx])
	length := int(pj.Tape[idx+1])
	offset := int(payload &^ stringBufFlag)
	if payload&stringBufFlag != 0 {
		if offset+length > len(pj.Strings) {
			return "", newError(ErrTape, -1, "string payload out of bounds")
		}
		return string(pj.Strings[offset : offset+length]), nil
	}
	if offset+length > len(pj.source) {
		return "", newError(ErrTape, -1, "string payload out of bounds")
	}
	return string(pj.source[offset : offset+length]), nil
}

// valueEnd returns the tape index one past the value (of any type)
// starting at idx: idx+1 for atoms, idx+2 for string/number cells, and
// the matching container-close index + 1 for objects/arrays -- the O(1)
// container skip the tape's back-patched payload exists to provide.
func (pj *ParsedJSON) valueEnd(idx int) int {
	switch tapeTag(pj.Tape[idx]) {
	case tagStartObject, tagStartArray:
		return int(tapePayload(pj.Tape[idx])) + 1
	case tagString, tagInt64, tagUint64, tagDouble:
		return idx + 2
	default:
		return idx + 1
	}
}

// Iter is a cursor onto one tape cell. It is a value type: passing it
// around, storing it, or advancing a copy never mutates another Iter.
type Iter struct {
	pj  *ParsedJSON
	idx int
}

// Type reports the JSON kind of the value this Iter currently points at.
func (it Iter) Type() Type {
	if it.idx >= len(it.pj.Tape) {
		return TypeNone
	}
	return typeFromTag(tapeTag(it.pj.Tape[it.idx]))
}

func (it Iter) wrongType(want Type) *Error {
	return newError(ErrIncorrectType, -1, "value is "+it.Type().String()+", not "+want.String())
}

// Int64 returns the value as an int64. Values stored as the wider
// unsigned tag succeed only if they fit; values stored as a double never
// convert implicitly (per spec, numeric tape representation is decided
// once, at parse time, and accessors do not silently re-coerce).
func (it Iter) Int64() (int64, *Error) {
	if it.idx >= len(it.pj.Tape) {
		return 0, it.wrongType(TypeInt64)
	}
	word := it.pj.Tape[it.idx]
	switch tapeTag(word) {
	case tagInt64:
		return int64(it.pj.Tape[it.idx+1]), nil
	case tagUint64:
		u := it.pj.Tape[it.idx+1]
		if u > math.MaxInt64 {
			return 0, newError(ErrNumberOutOfRange, -1, "value overflows int64")
		}
		return int64(u), nil
	default:
		return 0, it.wrongType(TypeInt64)
	}
}

// Uint64 returns the value as a uint64. A value stored with the signed
// tag succeeds only if it is non-negative.
func (it Iter) Uint64() (uint64, *Error) {
	if it.idx >= len(it.pj.Tape) {
		return 0, it.wrongType(TypeUint64)
	}
	switch tapeTag(it.pj.Tape[it.idx]) {
	case tagUint64:
		return it.pj.Tape[it.idx+1], nil
	case tagInt64:
		v := int64(it.pj.Tape[it.idx+1])
		if v < 0 {
			return 0, newError(ErrNumberOutOfRange, -1, "value is negative")
		}
		return uint64(v), nil
	default:
		return 0, it.wrongType(TypeUint64)
	}
}

// Float64 returns the value as a float64, widening an integer
// representation if necessary.
func (it Iter) Float64() (float64, *Error) {
	if it.idx >= len(it.pj.Tape) {
		return 0, it.wrongType(TypeFloat64)
	}
	switch tapeTag(it.pj.Tape[it.idx]) {
	case tagDouble:
		return math.Float64frombits(it.pj.Tape[it.idx+1]), nil
	case tagInt64:
		return float64(int64(it.pj.Tape[it.idx+1])), nil
	case tagUint64:
		return float64(it.pj.Tape[it.idx+1]), nil
	default:
		return 0, it.wrongType(TypeFloat64)
	}
}

// Bool returns the value as a bool.
func (it Iter) Bool() (bool, *Error) {
	if it.idx >= len(it.pj.Tape) {
		return false, it.wrongType(TypeBool)
	}
	switch tapeTag(it.pj.Tape[it.idx]) {
	case tagTrue:
		return true, nil
	case tagFalse:
		return false, nil
	default:
		return false, it.wrongType(TypeBool)
	}
}

// IsNull reports whether the current value is JSON null.
func (it Iter) IsNull() bool {
	return it.idx < len(it.pj.Tape) && tapeTag(it.pj.Tape[it.idx]) == tagNull
}

// String returns the value as a Go string, unescaping and copying it if
// it was stored borrowed from the source buffer.
func (it Iter) String() (string, *Error) {
	if it.idx >= len(it.pj.Tape) || tapeTag(it.pj.Tape[it.idx]) != tagString {
		return "", it.wrongType(TypeString)
	}
	return it.pj.readString(it.idx)
}

// Object descends into the current value as an object. The value must be
// TypeObject.
func (it Iter) Object() (Object, *Error) {
	if it.Type() != TypeObject {
		return Object{}, it.wrongType(TypeObject)
	}
	return Object{pj: it.pj, start: it.idx, end: int(tapePayload(it.pj.Tape[it.idx]))}, nil
}

// Array descends into the current value as an array. The value must be
// TypeArray.
func (it Iter) Array() (Array, *Error) {
	if it.Type() != TypeArray {
		return Array{}, it.wrongType(TypeArray)
	}
	return Array{pj: it.pj, start: it.idx, end: int(tapePayload(it.pj.Tape[it.idx]))}, nil
}

// Object is a view over one object's key/value run on the tape.
type Object struct {
	pj         *ParsedJSON
	start, end int
}

// Len returns the object's field count, read directly from its close
// cell's payload rather than by walking its entries.
func (o Object) Len() int {
	return tapeCloseCount(tapePayload(o.pj.Tape[o.end]))
}

// AtKey returns the value associated with key, or ErrNoSuchField if the
// object has no such key. It is a full linear scan (the DOM tape gives
// random access to offsets, not to keys), offered for callers that want a
// single field rather than Each's full walk.
func (o Object) AtKey(key string) (Iter, *Error) {
	var found *Iter
	err := o.Each(func(k string, v Iter) error {
		if found == nil && k == key {
			found = &v
		}
		return nil
	})
	if err != nil {
		return Iter{}, asError(err)
	}
	if found == nil {
		return Iter{}, newError(ErrNoSuchField, -1, "object has no field %q", key)
	}
	return *found, nil
}

// Each calls fn once per key/value pair, in document order. Returning a
// non-nil error from fn stops iteration early and that error is
// propagated to the caller unchanged.
func (o Object) Each(fn func(key string, v Iter) error) error {
	pj := o.pj
	idx := o.start + 1
	for idx < o.end {
		if tapeTag(pj.Tape[idx]) != tagString {
			return newError(ErrTape, -1, "object key is not a string")
		}
		key, err := pj.readString(idx)
		if err != nil {
			return err
		}
		idx += 2
		if idx >= o.end {
			return newError(ErrTape, -1, "object is missing a value for its last key")
		}
		if ferr := fn(key, Iter{pj: pj, idx: idx}); ferr != nil {
			return ferr
		}
		idx = pj.valueEnd(idx)
	}
	return nil
}

// Map decodes the object into a map[string]any using Iter.Interface for
// each value. It is the reflection-free "decode to a generic container"
// helper described in spec's supplemented feature set -- not a
// reflection-based struct deserializer.
func (o Object) Map() (map[string]any, *Error) {
	m := make(map[string]any)
	err := o.Each(func(key string, v Iter) error {
		val, verr := v.Interface()
		if verr != nil {
			return verr
		}
		m[key] = val
		return nil
	})
	if err != nil {
		if e, ok := err.(*Error); ok {
			return nil, e
		}
		return nil, newError(ErrTape, -1, err.Error())
	}
	return m, nil
}

// Array is a view over one array's element run on the tape.
type Array struct {
	pj         *ParsedJSON
	start, end int
}

// Len returns the array's element count, read directly from its close
// cell's payload rather than by walking its entries.
func (a Array) Len() int {
	return tapeCloseCount(tapePayload(a.pj.Tape[a.end]))
}

// At returns the element at index i, or ErrIndexOutOfBounds if i is
// negative or beyond the array's length. Like AtKey, this is a linear
// walk: the tape gives O(1) skip over a whole container, not over its
// individual elements.
func (a Array) At(i int) (Iter, *Error) {
	if i < 0 {
		return Iter{}, newError(ErrIndexOutOfBounds, -1, "negative array index %d", i)
	}
	n := 0
	var found *Iter
	err := a.Each(func(v Iter) error {
		if n == i {
			found = &v
		}
		n++
		return nil
	})
	if err != nil {
		return Iter{}, asError(err)
	}
	if found == nil {
		return Iter{}, newError(ErrIndexOutOfBounds, -1, "array index %d out of range (len %d)", i, n)
	}
	return *found, nil
}

// Each calls fn once per element, in document order.
func (a Array) Each(fn func(v Iter) error) error {
	pj := a.pj
	idx := a.start + 1
	for idx < a.end {
		if err := fn(Iter{pj: pj, idx: idx}); err != nil {
			return err
		}
		idx = pj.valueEnd(idx)
	}
	return nil
}

// Elements collects every element into a slice of Iter, one per array
// entry. Offered alongside Each for callers that want random access or
// want to range twice without re-walking the tape structure by hand.
func (a Array) Elements() []Iter {
	var out []Iter
	_ = a.Each(func(v Iter) error {
		out = append(out, v)
		return nil
	})
	return out
}

// Slice decodes the array into a []any using Iter.Interface for each
// element.
func (a Array) Slice() ([]any, *Error) {
	var out []any
	err := a.Each(func(v Iter) error {
		val, verr := v.Interface()
		if verr != nil {
			return verr
		}
		out = append(out, val)
		return nil
	})
	if err != nil {
		if e, ok := err.(*Error); ok {
			return nil, e
		}
		return nil, newError(ErrTape, -1, err.Error())
	}
	return out, nil
}

// Interface decodes the current value into a generic Go value: nil,
// bool, int64, uint64, float64, string, []any, or map[string]any.
func (it Iter) Interface() (any, *Error) {
	switch it.Type() {
	case TypeNull:
		return nil, nil
	case TypeBool:
		return it.Bool()
	case TypeInt64:
		return it.Int64()
	case TypeUint64:
		return it.Uint64()
	case TypeFloat64:
		return it.Float64()
	case TypeString:
		return it.String()
	case TypeArray:
		arr, err := it.Array()
		if err != nil {
			return nil, err
		}
		return arr.Slice()
	case TypeObject:
		obj, err := it.Object()
		if err != nil {
			return nil, err
		}
		return obj.Map()
	default:
		return nil, newError(ErrIncorrectType, -1, "no value at this position")
	}
}

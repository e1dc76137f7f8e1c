package tapeson

import "math"

// OnDemand is the lazy counterpart to the DOM tape builder: it never
// materializes a tape or string arena. It shares Stage 1's structural
// index array with DOM parsing but feeds it to a pull-based cursor
// (ODValue) instead of the Stage 2 pushdown automaton, so a caller that
// only wants a handful of fields out of a large document can skip past
// everything else without paying Stage 2's cost for the skipped parts.
//
// The index array alone only tells you where a structural character is,
// not where its container ends, so O(1) skip needs one extra O(n) pass:
// pairOf maps every index-array position holding '{', '[', '}' or ']' to
// the position of its match. Scalars (strings, numbers, atoms) need no
// such table: Stage 1 emits exactly one structural entry per atom, so the
// position right after any scalar's index is simply the next index.
type OnDemand struct {
	buf     []byte
	indices []uint32
	pairOf  []int
}

// NewOnDemand runs Stage 1 over buf and builds the bracket-pairing table
// the On-Demand cursor needs for O(1) container skip.
func NewOnDemand(buf []byte) (*OnDemand, *Error) {
	indices, err := computeStructuralIndices(buf)
	if err != nil {
		return nil, err
	}
	pairOf := make([]int, len(indices))
	for i := range pairOf {
		pairOf[i] = -1
	}
	var stack []int
	for i, off := range indices {
		if int(off) >= len(buf) {
			break // sentinel
		}
		switch buf[off] {
		case '{', '[':
			stack = append(stack, i)
		case '}', ']':
			if len(stack) == 0 {
				return nil, newError(ErrTape, int(off), "unmatched closing bracket")
			}
			top := stack[len(stack)-1]
			if (buf[off] == '}') != (buf[indices[top]] == '{') {
				return nil, newError(ErrTape, int(off), "mismatched container brackets")
			}
			stack = stack[:len(stack)-1]
			pairOf[top] = i
			pairOf[i] = top
		}
	}
	if len(stack) != 0 {
		return nil, newError(ErrTape, -1, "unclosed container at end of input")
	}
	return &OnDemand{buf: buf, indices: indices, pairOf: pairOf}, nil
}

// Root returns a cursor positioned at the document's top-level value.
func (d *OnDemand) Root() ODValue {
	return ODValue{d: d, pos: 0}
}

// ODValue is a cursor onto one structural token. Like Iter, it is a
// value type.
type ODValue struct {
	d   *OnDemand
	pos int
}

func (v ODValue) offset() int { return int(v.d.indices[v.pos]) }

// Type peeks the value's kind from its leading byte. For numbers this
// only reports TypeFloat64 as a generic "it's a number" marker -- telling
// int64 apart from uint64 apart from double requires actually parsing
// the literal, which the specific accessor (Int64/Uint64/Float64) does
// lazily when called.
func (v ODValue) Type() Type {
	if v.pos >= len(v.d.indices) {
		return TypeNone
	}
	off := v.offset()
	if off >= len(v.d.buf) {
		return TypeNone
	}
	switch v.d.buf[off] {
	case '{':
		return TypeObject
	case '[':
		return TypeArray
	case '"':
		return TypeString
	case 't', 'f':
		return TypeBool
	case 'n':
		return TypeNull
	default:
		return TypeFloat64
	}
}

// Skip returns a cursor positioned just past this value, in O(1)
// regardless of how many elements a container holds.
func (v ODValue) Skip() ODValue {
	off := v.offset()
	switch v.d.buf[off] {
	case '{', '[':
		return ODValue{d: v.d, pos: v.d.pairOf[v.pos] + 1}
	default:
		return ODValue{d: v.d, pos: v.pos + 1}
	}
}

func readStringAt(buf []byte, off int) (string, *Error) {
	payload, length, _, strBuf, err := parseString(buf, off, nil, false)
	if err != nil {
		return "", err
	}
	if payload&stringBufFlag != 0 {
		return string(strBuf[:length]), nil
	}
	start := int(payload)
	return string(buf[start : start+length]), nil
}

// String returns the value as a Go string.
func (v ODValue) String() (string, *Error) {
	if v.Type() != TypeString {
		return "", newError(ErrIncorrectType, -1, "value is not a string")
	}
	return readStringAt(v.d.buf, v.offset())
}

// Int64 parses the number at this position as an int64.
func (v ODValue) Int64() (int64, *Error) {
	tag, bits, _, err := parseNumber(v.d.buf, v.offset())
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagInt64:
		return int64(bits), nil
	case tagUint64:
		if bits > math.MaxInt64 {
			return 0, newError(ErrNumberOutOfRange, -1, "value overflows int64")
		}
		return int64(bits), nil
	default:
		return 0, newError(ErrIncorrectType, -1, "value is not an integer")
	}
}

// Uint64 parses the number at this position as a uint64.
func (v ODValue) Uint64() (uint64, *Error) {
	tag, bits, _, err := parseNumber(v.d.buf, v.offset())
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagUint64:
		return bits, nil
	case tagInt64:
		if int64(bits) < 0 {
			return 0, newError(ErrNumberOutOfRange, -1, "value is negative")
		}
		return bits, nil
	default:
		return 0, newError(ErrIncorrectType, -1, "value is not an integer")
	}
}

// Float64 parses the number at this position as a float64.
func (v ODValue) Float64() (float64, *Error) {
	tag, bits, _, err := parseNumber(v.d.buf, v.offset())
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagDouble:
		return math.Float64frombits(bits), nil
	case tagInt64:
		return float64(int64(bits)), nil
	case tagUint64:
		return float64(bits), nil
	default:
		return 0, newError(ErrIncorrectType, -1, "value is not a number")
	}
}

// Bool returns the value as a bool.
func (v ODValue) Bool() (bool, *Error) {
	off := v.offset()
	switch v.d.buf[off] {
	case 't':
		if _, ok := matchAtom(v.d.buf, off, "true"); ok {
			return true, nil
		}
	case 'f':
		if _, ok := matchAtom(v.d.buf, off, "false"); ok {
			return false, nil
		}
	}
	return false, newError(ErrIncorrectType, -1, "value is not a bool")
}

// IsNull reports whether the value is JSON null.
func (v ODValue) IsNull() bool {
	off := v.offset()
	if v.d.buf[off] != 'n' {
		return false
	}
	_, ok := matchAtom(v.d.buf, off, "null")
	return ok
}

// ODObject is a lazy view over an object's key/value run. Unlike ODValue,
// it is stateful: FindField advances an internal cursor, so the Ordering
// contract it implements (forward-only, with a single wraparound) only
// holds across calls made through the same ODObject value kept in an
// addressable variable -- not across a fresh Object() call per lookup.
type ODObject struct {
	v   ODValue
	pos int // next key position FindField will examine
}

// Object descends into the current value as an object.
func (v ODValue) Object() (ODObject, *Error) {
	if v.Type() != TypeObject {
		return ODObject{}, newError(ErrIncorrectType, -1, "value is not an object")
	}
	return ODObject{v: v, pos: v.pos + 1}, nil
}

// Each calls fn once per key/value pair in document order, stopping (and
// propagating fn's error) if fn returns non-nil. Keys and values not
// visited by fn -- including an entire skipped nested container -- are
// never parsed. It does not consume FindField's cursor.
func (o ODObject) Each(fn func(key string, val ODValue) error) error {
	d := o.v.d
	closeIdx := d.pairOf[o.v.pos]
	pos := o.v.pos + 1
	for pos < closeIdx {
		off := int(d.indices[pos])
		if d.buf[off] != '"' {
			return newError(ErrTape, off, "object key is not a string")
		}
		key, err := readStringAt(d.buf, off)
		if err != nil {
			return err
		}
		valPos := pos + 2 // skip the ':' between key and value
		if valPos >= closeIdx {
			return newError(ErrTape, off, "object is missing a value for its last key")
		}
		val := ODValue{d: d, pos: valPos}
		if ferr := fn(key, val); ferr != nil {
			return ferr
		}
		pos = val.Skip().pos
		if pos < closeIdx && d.buf[d.indices[pos]] == ',' {
			pos++
		}
	}
	return nil
}

// FindField searches for key starting from wherever the previous
// FindField call on this same ODObject left off, per simdjson's on-demand
// Ordering contract: fields are expected to be requested in roughly the
// order they appear, so each call resumes forward from the last match
// instead of rescanning from the start. If the field isn't found before
// the object's closing brace, the cursor wraps around to the beginning
// exactly once to cover a field requested out of order; if that lap also
// reaches back to where this call started without a match, the field
// does not exist and ErrNoSuchField is returned.
func (o *ODObject) FindField(key string) (ODValue, *Error) {
	d := o.v.d
	closeIdx := d.pairOf[o.v.pos]
	begin := o.v.pos + 1
	startPos := o.pos
	pos := o.pos
	wrapped := false
	for {
		for pos < closeIdx {
			off := int(d.indices[pos])
			if d.buf[off] != '"' {
				return ODValue{}, newError(ErrTape, off, "object key is not a string")
			}
			k, err := readStringAt(d.buf, off)
			if err != nil {
				return ODValue{}, err
			}
			valPos := pos + 2 // skip the ':' between key and value
			if valPos >= closeIdx {
				return ODValue{}, newError(ErrTape, off, "object is missing a value for its last key")
			}
			val := ODValue{d: d, pos: valPos}
			next := val.Skip().pos
			if next < closeIdx && d.buf[d.indices[next]] == ',' {
				next++
			}
			if k == key {
				o.pos = next
				return val, nil
			}
			pos = next
			if wrapped && pos >= startPos {
				return ODValue{}, newError(ErrNoSuchField, -1, "object has no field %q", key)
			}
		}
		if wrapped || startPos == begin {
			return ODValue{}, newError(ErrNoSuchField, -1, "object has no field %q", key)
		}
		wrapped = true
		pos = begin
	}
}

// ODArray is a lazy view over an array's element run.
type ODArray struct{ v ODValue }

// Array descends into the current value as an array.
func (v ODValue) Array() (ODArray, *Error) {
	if v.Type() != TypeArray {
		return ODArray{}, newError(ErrIncorrectType, -1, "value is not an array")
	}
	return ODArray{v: v}, nil
}

// Each calls fn once per element in document order.
func (a ODArray) Each(fn func(val ODValue) error) error {
	d := a.v.d
	closeIdx := d.pairOf[a.v.pos]
	pos := a.v.pos + 1
	for pos < closeIdx {
		val := ODValue{d: d, pos: pos}
		if err := fn(val); err != nil {
			return err
		}
		pos = val.Skip().pos
		if pos < closeIdx && d.buf[d.indices[pos]] == ',' {
			pos++
		}
	}
	return nil
}

package tapeson

// Stage 2 state names: what kind of structural token is legal next. This
// is the pushdown automaton from spec §4.2, implemented with an explicit
// container stack rather than recursion so depth limits are a simple
// counter check rather than a call-stack risk.
const (
	stateValue = iota
	stateValueOrCloseArray
	stateKeyOrCloseObject
	stateKeyNoClose
	stateColon
	stateCommaOrCloseObject
	stateCommaOrCloseArray
	stateDone
)

type containerFrame struct {
	isObject bool
	tapeIdx  int
	count    int // children completed so far: fields for an object, elements for an array
}

// tapeBuilder accumulates the result of walking one complete top-level
// value's worth of structural indices.
type tapeBuilder struct {
	buf         []byte
	tape        []uint64
	strBuf      []byte
	stack       []containerFrame
	copyStrings bool
	maxDepth    int
}

func (b *tapeBuilder) pushContainer(tag byte, isObject bool) *Error {
	if len(b.stack)+1 > b.maxDepth {
		return newError(ErrDepth, -1, "container nesting exceeds the configured maximum depth")
	}
	b.stack = append(b.stack, containerFrame{isObject: isObject, tapeIdx: len(b.tape)})
	b.tape = append(b.tape, makeTapeWord(tag, 0))
	return nil
}

// closeContainer pops the current container, back-patches its START cell
// with the index of this END cell (and vice versa, giving both directions
// O(1) skip), packs the container's completed child count into the low 24
// bits of the END cell's payload alongside the back-pointer, and returns
// the state to resume in.
func (b *tapeBuilder) closeContainer(wantObject bool, closeTag byte) (int, *Error) {
	if len(b.stack) == 0 {
		return 0, newError(ErrTape, -1, "unmatched closing bracket")
	}
	top := b.stack[len(b.stack)-1]
	if top.isObject != wantObject {
		return 0, newError(ErrTape, -1, "mismatched container brackets")
	}
	if uint64(top.count) > countMask {
		return 0, newError(ErrTape, -1, "container holds more children than the tape's 24-bit count field can represent")
	}
	b.stack = b.stack[:len(b.stack)-1]
	endIdx := len(b.tape)
	startTag := tapeTag(b.tape[top.tapeIdx])
	b.tape[top.tapeIdx] = makeTapeWord(startTag, uint64(endIdx))
	closePayload := uint64(top.tapeIdx)<<24 | uint64(top.count)&countMask
	b.tape = append(b.tape, makeTapeWord(closeTag, closePayload))

	return b.afterValue(), nil
}

// afterValue records that a value just completed inside the container
// currently on top of the stack (one more field for an object, one more
// element for an array) and returns the state to resume in.
func (b *tapeBuilder) afterValue() int {
	if len(b.stack) == 0 {
		return stateDone
	}
	top := &b.stack[len(b.stack)-1]
	top.count++
	if top.isObject {
		return stateCommaOrCloseObject
	}
	return stateCommaOrCloseArray
}

func (b *tapeBuilder) emitString(off int) (int, *Error) {
	payload, length, end, newStrBuf, err := parseString(b.buf, off, b.strBuf, b.copyStrings)
	if err != nil {
		return 0, err
	}
	b.strBuf = newStrBuf
	b.tape = append(b.tape, makeTapeWord(tagString, payload), uint64(length))
	return end, nil
}

func (b *tapeBuilder) emitNumber(off int) (int, *Error) {
	tag, bits, end, err := parseNumber(b.buf, off)
	if err != nil {
		return 0, err
	}
	b.tape = append(b.tape, makeTapeWord(tag, 0), bits)
	return end, nil
}

func (b *tapeBuilder) emitAtom(off int) (int, *Error) {
	switch b.buf[off] {
	case 't':
		if end, ok := matchAtom(b.buf, off, "true"); ok {
			b.tape = append(b.tape, makeTapeWord(tagTrue, 0))
			return end, nil
		}
	case 'f':
		if end, ok := matchAtom(b.buf, off, "false"); ok {
			b.tape = append(b.tape, makeTapeWord(tagFalse, 0))
			return end, nil
		}
	case 'n':
		if end, ok := matchAtom(b.buf, off, "null"); ok {
			b.tape = append(b.tape, makeTapeWord(tagNull, 0))
			return end, nil
		}
	}
	return 0, newError(ErrAtom, off, "invalid literal atom")
}

func isValueStart(c byte) bool {
	return c == '"' || c == '{' || c == '[' || c == 't' || c == 'f' || c == 'n' || c == '-' || isDigit(c)
}

// buildTape runs the Stage 2 pushdown automaton over indices, which must
// be exactly the structural offsets belonging to a single top-level JSON
// value (no trailing sentinel). It returns the populated tape and string
// arena, or the first structural error encountered.
func buildTape(buf []byte, indices []uint32, maxDepth int, copyStrings bool) ([]uint64, []byte, *Error) {
	b := &tapeBuilder{buf: buf, copyStrings: copyStrings, maxDepth: maxDepth}
	b.tape = append(b.tape, 0) // root placeholder, back-patched at the end

	state := stateValue
	idx := 0
	n := len(indices)

	for {
		if idx >= n {
			if state == stateDone {
				break
			}
			return nil, nil, newError(ErrTape, -1, "unexpected end of input")
		}
		off := int(indices[idx])
		idx++

		if state == stateDone {
			return nil, nil, newError(ErrTrailingContent, off, "unexpected content after the top-level value")
		}
		c := buf[off]

		switch state {
		case stateValue, stateValueOrCloseArray:
			switch {
			case c == '{':
				if err := b.pushContainer(tagStartObject, true); err != nil {
					return nil, nil, err
				}
				state = stateKeyOrCloseObject
			case c == '[':
				if err := b.pushContainer(tagStartArray, false); err != nil {
					return nil, nil, err
				}
				state = stateValueOrCloseArray
			case c == ']' && state == stateValueOrCloseArray:
				next, err := b.closeContainer(false, tagEndArray)
				if err != nil {
					return nil, nil, err
				}
				state = next
			case c == '"':
				if _, err := b.emitString(off); err != nil {
					return nil, nil, err
				}
				state = b.afterValue()
			case c == 't' || c == 'f' || c == 'n':
				_, err := b.emitAtom(off)
				if err != nil {
					return nil, nil, err
				}
				state = b.afterValue()
			case c == '-' || isDigit(c):
				_, err := b.emitNumber(off)
				if err != nil {
					return nil, nil, err
				}
				state = b.afterValue()
			default:
				return nil, nil, newError(ErrTape, off, "expected a value")
			}

		case stateKeyOrCloseObject, stateKeyNoClose:
			switch {
			case c == '}' && state == stateKeyOrCloseObject:
				next, err := b.closeContainer(true, tagEndObject)
				if err != nil {
					return nil, nil, err
				}
				state = next
			case c == '"':
				if _, err := b.emitString(off); err != nil {
					return nil, nil, err
				}
				state = stateColon
			default:
				return nil, nil, newError(ErrTape, off, "expected a string key or '}'")
			}

		case stateColon:
			if c != ':' {
				return nil, nil, newError(ErrTape, off, "expected ':'")
			}
			state = stateValue

		case stateCommaOrCloseObject:
			switch c {
			case '}':
				next, err := b.closeContainer(true, tagEndObject)
				if err != nil {
					return nil, nil, err
				}
				state = next
			case ',':
				state = stateKeyNoClose
			default:
				return nil, nil, newError(ErrTape, off, "expected ',' or '}'")
			}

		case stateCommaOrCloseArray:
			switch c {
			case ']':
				next, err := b.closeContainer(false, tagEndArray)
				if err != nil {
					return nil, nil, err
				}
				state = next
			case ',':
				state = stateValue
			default:
				return nil, nil, newError(ErrTape, off, "expected ',' or ']'")
			}
		}
	}

	if len(b.stack) != 0 {
		return nil, nil, newError(ErrTape, -1, "unclosed container at end of input")
	}

	rootEnd := len(b.tape)
	b.tape[0] = makeTapeWord(tagRoot, uint64(rootEnd))
	b.tape = append(b.tape, makeTapeWord(tagRoot, 0))
	return b.tape, b.strBuf, nil
}

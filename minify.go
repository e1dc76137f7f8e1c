package tapeson

// Minify strips insignificant whitespace from a JSON document without
// building a tape, reusing Stage 1's structural classification (spec
// §4.6's classifier-as-minifier) to find token boundaries. It validates
// only as much grammar as is needed to locate each token's extent --
// string, number, and atom literals are scanned fully so whitespace
// inside a string is never touched -- not the full pushdown automaton
// Stage 2 runs, so a malformed document can still produce
// malformed-but-minified output if the error lies in the document's
// overall structure rather than a token itself.
func Minify(buf []byte) ([]byte, *Error) {
	indices, err := computeStructuralIndices(buf)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(buf))
	n := len(buf)

	for _, raw := range indices {
		off := int(raw)
		if off >= n {
			break // sentinel
		}
		c := buf[off]
		switch {
		case c == '"':
			closeOff, _, serr := scanStringBody(buf, off)
			if serr != nil {
				return nil, serr
			}
			out = append(out, buf[off:closeOff+1]...)
		case c == '-' || isDigit(c):
			_, _, end, nerr := parseNumber(buf, off)
			if nerr != nil {
				return nil, nerr
			}
			out = append(out, buf[off:end]...)
		case c == 't' || c == 'f' || c == 'n':
			lit := "null"
			switch c {
			case 't':
				lit = "true"
			case 'f':
				lit = "false"
			}
			end, ok := matchAtom(buf, off, lit)
			if !ok {
				return nil, newError(ErrAtom, off, "invalid literal atom")
			}
			out = append(out, buf[off:end]...)
		default:
			out = append(out, c)
		}
	}
	return out, nil
}

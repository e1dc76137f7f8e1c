package tapeson

import (
	"math"
	"strconv"
)

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseNumber validates and decodes the JSON number literal starting at
// buf[start] against the RFC 8259 grammar, then chooses the narrowest
// tape representation it can hold: a signed 64-bit integer ('l'), else an
// unsigned 64-bit integer ('u') for positive values too large to fit
// int64, else a float64 ('d') for anything fractional, exponential, or
// wider than 64 bits. This mirrors simdjson's fast/slow split (try the
// integer path first, fall back to the float path) without needing a
// separate SWAR digit-batching routine: Go's strconv already does the
// batching simdjson-go's GOLANG_NUMBER_PARSING fallback path also relies
// on (see parse_number_amd64.go in the reference implementation).
func parseNumber(buf []byte, start int) (tag byte, bits uint64, end int, err *Error) {
	n := len(buf)
	i := start
	isNegative := false
	if i < n && buf[i] == '-' {
		isNegative = true
		i++
	}
	if i >= n || !isDigit(buf[i]) {
		return 0, 0, 0, newError(ErrNumber, start, "expected digit")
	}
	if buf[i] == '0' {
		i++
		if i < n && isDigit(buf[i]) {
			return 0, 0, 0, newError(ErrNumber, start, "leading zero must not be followed by another digit")
		}
	} else {
		for i < n && isDigit(buf[i]) {
			i++
		}
	}

	isFloat := false
	if i < n && buf[i] == '.' {
		isFloat = true
		i++
		if i >= n || !isDigit(buf[i]) {
			return 0, 0, 0, newError(ErrNumber, i, "expected digit after decimal point")
		}
		for i < n && isDigit(buf[i]) {
			i++
		}
	}
	if i < n && (buf[i] == 'e' || buf[i] == 'E') {
		isFloat = true
		i++
		if i < n && (buf[i] == '+' || buf[i] == '-') {
			i++
		}
		if i >= n || !isDigit(buf[i]) {
			return 0, 0, 0, newError(ErrNumber, i, "expected digit in exponent")
		}
		for i < n && isDigit(buf[i]) {
			i++
		}
	}
	end = i
	if end < n && isNumberTrailer(buf[end]) {
		return 0, 0, 0, newError(ErrNumber, end, "unexpected character after number literal")
	}
	text := string(buf[start:end])

	if !isFloat {
		if v, perr := strconv.ParseInt(text, 10, 64); perr == nil {
			return 'l', uint64(v), end, nil
		}
		if !isNegative {
			if v, perr := strconv.ParseUint(text, 10, 64); perr == nil {
				return 'u', v, end, nil
			}
		}
	}

	v, perr := strconv.ParseFloat(text, 64)
	if perr != nil {
		return 0, 0, 0, newError(ErrNumber, start, "number literal out of representable range")
	}
	return 'd', math.Float64bits(v), end, nil
}

// matchAtom recognizes one of the three JSON literal atoms (true, false,
// null) at buf[start], rejecting a match immediately followed by another
// identifier-like byte so that e.g. "truefoo" is a grammar error rather
// than silently accepted as "true" plus garbage.
func matchAtom(buf []byte, start int, literal string) (end int, ok bool) {
	if start+len(literal) > len(buf) {
		return 0, false
	}
	if string(buf[start:start+len(literal)]) != literal {
		return 0, false
	}
	end = start + len(literal)
	if end < len(buf) && isAtomContinuation(buf[end]) {
		return 0, false
	}
	return end, true
}

func isAtomContinuation(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// isNumberTrailer reports whether b cannot legally follow a complete JSON
// number literal. Stage 1 emits one structural index for an entire run of
// non-whitespace/non-operator bytes (spec §4.1's follows_scalar rule), so a
// malformed literal like "123abc" or "0123" is scanned by parseNumber as
// far as the grammar allows and then left with unconsumed trailing bytes
// unless this check catches them here.
func isNumberTrailer(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '{', '}', '[', ']', ':', ',':
		return false
	}
	return true
}

package tapeson

import "unicode/utf8"

// stringBufFlag marks a string tape payload as an offset into the
// separate Strings arena rather than a borrowed range of the original
// source buffer. Mirrors the STRINGBUFBIT convention from spec §3: set
// whenever content had to be copied (an escape was present, or the caller
// asked for WithCopyStrings).
const stringBufFlag = uint64(1) << 55

// scanStringBody walks buf starting just after the opening quote at
// start, looking for the matching closing quote. It rejects raw
// (unescaped) control characters per RFC 8259 as it goes, but does not
// itself decode escapes -- that is parseString's job, run only when a
// string is actually materialized rather than skipped over.
func scanStringBody(buf []byte, start int) (closeOff int, hasEscape bool, err *Error) {
	n := len(buf)
	i := start + 1
	for i < n {
		c := buf[i]
		switch {
		case c == '"':
			return i, hasEscape, nil
		case c == '\\':
			hasEscape = true
			i += 2
			continue
		case c < 0x20:
			return 0, false, newError(ErrString, i, "control character must be escaped")
		}
		i++
	}
	return 0, false, newError(ErrUnclosedString, start, "unterminated string literal")
}

// parseString decodes the JSON string literal whose opening quote sits at
// buf[start]. When the string has no escapes and the caller did not
// request WithCopyStrings, its bytes are borrowed directly from buf (the
// fast path spec §4.3 calls out); otherwise the unescaped content is
// appended to strBuf and the payload's stringBufFlag bit is set.
//
// Returns the tape payload for the string's first word, its decoded
// length, the offset of the byte following the closing quote, and the
// (possibly grown) Strings arena.
func parseString(buf []byte, start int, strBuf []byte, copyStrings bool) (payload uint64, length int, end int, newStrBuf []byte, err *Error) {
	closeOff, hasEscape, serr := scanStringBody(buf, start)
	if serr != nil {
		return 0, 0, 0, strBuf, serr
	}
	body := buf[start+1 : closeOff]
	end = closeOff + 1

	if !hasEscape && !copyStrings {
		return uint64(start + 1), len(body), end, strBuf, nil
	}

	base := len(strBuf)
	decoded, derr := decodeEscapes(body, strBuf)
	if derr != nil {
		return 0, 0, 0, strBuf, offsetError(derr, start+1)
	}
	return stringBufFlag | uint64(base), len(decoded) - base, end, decoded, nil
}

// decodeEscapes appends the unescaped content of body (the bytes strictly
// between a string literal's quotes) to dst, expanding backslash escapes
// and validating \uXXXX sequences, including surrogate pairs, per spec
// §4.3.
func decodeEscapes(body []byte, dst []byte) ([]byte, *Error) {
	i := 0
	n := len(body)
	for i < n {
		c := body[i]
		if c != '\\' {
			dst = append(dst, c)
			i++
			continue
		}
		i++
		if i >= n {
			return dst, newError(ErrString, i, "dangling escape at end of string")
		}
		switch body[i] {
		case '"':
			dst = append(dst, '"')
		case '\\':
			dst = append(dst, '\\')
		case '/':
			dst = append(dst, '/')
		case 'b':
			dst = append(dst, '\b')
		case 'f':
			dst = append(dst, '\f')
		case 'n':
			dst = append(dst, '\n')
		case 'r':
			dst = append(dst, '\r')
		case 't':
			dst = append(dst, '\t')
		case 'u':
			r, consumed, derr := decodeUnicodeEscape(body, i+1)
			if derr != nil {
				return dst, derr
			}
			dst = utf8.AppendRune(dst, r)
			i += consumed
		default:
			return dst, newError(ErrString, i, "invalid escape character")
		}
		i++
	}
	return dst, nil
}

// decodeUnicodeEscape parses a \uXXXX escape (and, for high surrogates,
// the \uYYYY low surrogate that must immediately follow) starting at
// body[pos], the offset of the first hex digit. It returns the decoded
// rune and the number of body bytes consumed beyond the leading "u".
func decodeUnicodeEscape(body []byte, pos int) (r rune, consumed int, err *Error) {
	if pos+4 > len(body) {
		return 0, 0, newError(ErrString, pos, "truncated \\u escape")
	}
	v, ok := parseHex4(body[pos : pos+4])
	if !ok {
		return 0, 0, newError(ErrString, pos, "invalid hex digits in \\u escape")
	}
	switch {
	case v >= 0xD800 && v <= 0xDBFF:
		if pos+10 > len(body) || body[pos+4] != '\\' || body[pos+5] != 'u' {
			return 0, 0, newError(ErrString, pos, "high surrogate not followed by low surrogate")
		}
		v2, ok2 := parseHex4(body[pos+6 : pos+10])
		if !ok2 || v2 < 0xDC00 || v2 > 0xDFFF {
			return 0, 0, newError(ErrString, pos, "invalid low surrogate")
		}
		combined := 0x10000 + (rune(v)-0xD800)<<10 + (rune(v2) - 0xDC00)
		return combined, 10, nil
	case v >= 0xDC00 && v <= 0xDFFF:
		return 0, 0, newError(ErrString, pos, "unpaired low surrogate")
	default:
		return rune(v), 4, nil
	}
}

func parseHex4(b []byte) (uint32, bool) {
	var v uint32
	for _, c := range b {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}

func offsetError(e *Error, base int) *Error {
	if e.Offset >= 0 {
		e.Offset += base
	}
	return e
}

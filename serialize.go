package tapeson

import (
	"strconv"
	"unicode/utf8"
)

// MarshalJSON renders the parsed document back to JSON text. Numbers are
// rendered from their decoded tape representation (strconv.AppendInt/
// AppendUint/AppendFloat) rather than echoing the original literal bytes,
// so round-tripping does not preserve formatting quirks like leading "+"
// signs stripped by the grammar or redundant trailing zeros.
func (pj *ParsedJSON) MarshalJSON() ([]byte, error) {
	out, err := appendJSON(nil, pj.Root())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func appendJSON(dst []byte, it Iter) ([]byte, *Error) {
	switch it.Type() {
	case TypeNull:
		return append(dst, "null"...), nil
	case TypeBool:
		b, err := it.Bool()
		if err != nil {
			return dst, err
		}
		if b {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case TypeInt64:
		v, err := it.Int64()
		if err != nil {
			return dst, err
		}
		return strconv.AppendInt(dst, v, 10), nil
	case TypeUint64:
		v, err := it.Uint64()
		if err != nil {
			return dst, err
		}
		return strconv.AppendUint(dst, v, 10), nil
	case TypeFloat64:
		v, err := it.Float64()
		if err != nil {
			return dst, err
		}
		return strconv.AppendFloat(dst, v, 'g', -1, 64), nil
	case TypeString:
		s, err := it.String()
		if err != nil {
			return dst, err
		}
		return appendEscapedString(dst, s), nil
	case TypeArray:
		arr, err := it.Array()
		if err != nil {
			return dst, err
		}
		dst = append(dst, '[')
		first := true
		walkErr := arr.Each(func(v Iter) error {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			var aerr *Error
			dst, aerr = appendJSON(dst, v)
			if aerr != nil {
				return aerr
			}
			return nil
		})
		if walkErr != nil {
			return dst, asError(walkErr)
		}
		return append(dst, ']'), nil
	case TypeObject:
		obj, err := it.Object()
		if err != nil {
			return dst, err
		}
		dst = append(dst, '{')
		first := true
		walkErr := obj.Each(func(key string, v Iter) error {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendEscapedString(dst, key)
			dst = append(dst, ':')
			var aerr *Error
			dst, aerr = appendJSON(dst, v)
			if aerr != nil {
				return aerr
			}
			return nil
		})
		if walkErr != nil {
			return dst, asError(walkErr)
		}
		return append(dst, '}'), nil
	default:
		return dst, newError(ErrIncorrectType, -1, "cannot serialize value")
	}
}

func asError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return newError(ErrTape, -1, err.Error())
}

func appendEscapedString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if r < 0x20 {
				dst = append(dst, '\\', 'u')
				dst = appendHex4(dst, uint32(r))
			} else {
				dst = utf8.AppendRune(dst, r)
			}
		}
	}
	return append(dst, '"')
}

func appendHex4(dst []byte, v uint32) []byte {
	const hexDigits = "0123456789abcdef"
	return append(dst, hexDigits[(v>>12)&0xf], hexDigits[(v>>8)&0xf], hexDigits[(v>>4)&0xf], hexDigits[v&0xf])
}

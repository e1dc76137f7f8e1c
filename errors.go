package tapeson

import "fmt"

// ErrorCode identifies the kind of failure a parse or accessor produced.
// The taxonomy is intentionally flat: no error wraps another.
type ErrorCode uint8

const (
	_ ErrorCode = iota
	// ErrCapacity is raised when a document exceeds a configured capacity.
	ErrCapacity
	// ErrMemAlloc is raised when a buffer could not be grown.
	ErrMemAlloc
	// ErrUTF8 is raised on any UTF-8 violation found during Stage 1.
	ErrUTF8
	// ErrUnclosedString is raised when a '"' is opened but never closed.
	ErrUnclosedString
	// ErrTape is raised for any grammar violation not covered by a more
	// specific code.
	ErrTape
	// ErrDepth is raised when nesting exceeds the configured max depth.
	ErrDepth
	// ErrString is raised for a bad escape, invalid surrogate pair, or
	// an unescaped control character inside a string literal.
	ErrString
	// ErrNumber is raised for a malformed number literal.
	ErrNumber
	// ErrAtom is raised when a true/false/null token is not well-formed.
	ErrAtom
	// ErrEmpty is raised when the input is empty or all whitespace.
	ErrEmpty
	// ErrIncorrectType is raised when an accessor is called on the wrong
	// JSON type.
	ErrIncorrectType
	// ErrNumberOutOfRange is raised by a strict integer accessor when the
	// value does not fit the requested width.
	ErrNumberOutOfRange
	// ErrNoSuchField is raised when an object key lookup misses.
	ErrNoSuchField
	// ErrIndexOutOfBounds is raised when an array index is out of range.
	ErrIndexOutOfBounds
	// ErrTrailingContent is raised when non-whitespace bytes follow the
	// root value.
	ErrTrailingContent
)

var errorCodeNames = [...]string{
	ErrCapacity:          "CAPACITY",
	ErrMemAlloc:          "MEMALLOC",
	ErrUTF8:              "UTF8_ERROR",
	ErrUnclosedString:    "UNCLOSED_STRING",
	ErrTape:              "TAPE_ERROR",
	ErrDepth:             "DEPTH_ERROR",
	ErrString:            "STRING_ERROR",
	ErrNumber:            "NUMBER_ERROR",
	ErrAtom:              "ATOM_ERROR",
	ErrEmpty:             "EMPTY",
	ErrIncorrectType:     "INCORRECT_TYPE",
	ErrNumberOutOfRange:  "NUMBER_OUT_OF_RANGE",
	ErrNoSuchField:       "NO_SUCH_FIELD",
	ErrIndexOutOfBounds:  "INDEX_OUT_OF_BOUNDS",
	ErrTrailingContent:   "TRAILING_CONTENT",
}

// String returns the stable tag name for the error code.
func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) && errorCodeNames[c] != "" {
		return errorCodeNames[c]
	}
	return "UNKNOWN_ERROR"
}

// Error is the single error type surfaced by every layer of the parser.
// It carries a stable code, the byte offset at which the problem was
// detected (-1 if not applicable), and a human-readable message.
type Error struct {
	Code    ErrorCode
	Offset  int
	Message string
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, offset int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

package tapeson

// Padding is the minimum number of extra, safely-readable bytes that must
// follow a buffer handed to the parser. Stage 1 loads fixed-size blocks and
// the final block load may start as late as len-1; Padding guarantees that
// load never runs off the end of the allocation.
//
// 64 is the canonical value used throughout simdjson-derived parsers: it is
// the width of the widest block this backend (or any wider backend swapped
// in later, see backend.go) processes at a time.
const Padding = 64

// PaddedBuffer is a convenience type that owns a byte slice whose backing
// array is guaranteed to have at least Padding zero bytes beyond Len.
// Callers who already have such a buffer (e.g. a read into an over-sized
// slice) do not need this type; Parse accepts any []byte and pads a copy
// internally when necessary.
type PaddedBuffer struct {
	// Data is the full backing allocation: len(Data) == Len+Padding (or
	// more). Only Data[:Len] is meaningful content; the remainder is
	// guaranteed to be zero and must not be treated as document content.
	Data []byte
	// Len is the length of the actual document, Len <= len(Data)-Padding.
	Len int
}

// Bytes returns the document content (excluding the padding tail).
func (p *PaddedBuffer) Bytes() []byte {
	return p.Data[:p.Len]
}

// NewPaddedBuffer copies b into a freshly allocated buffer with a
// zero-filled Padding-byte tail.
func NewPaddedBuffer(b []byte) *PaddedBuffer {
	data := make([]byte, len(b)+Padding)
	copy(data, b)
	return &PaddedBuffer{Data: data, Len: len(b)}
}

// ensurePadded returns a slice of length len(b)+Padding whose first len(b)
// bytes are b's content and whose trailing Padding bytes are zero. It
// reuses b's backing array (re-sliced and zeroed) when there is already
// enough spare capacity, and copies only when there is not.
func ensurePadded(b []byte) []byte {
	n := len(b)
	if cap(b)-n >= Padding {
		padded := b[:n+Padding]
		clear(padded[n:])
		return padded
	}
	padded := make([]byte, n+Padding)
	copy(padded, b)
	return padded
}

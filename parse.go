package tapeson

import (
	"bufio"
	"io"
)

// Parse parses a single complete JSON document in buf, returning its
// tape. Stage 1 runs in its own goroutine and hands batches of
// structural indices to the caller over a channel, the concurrency shape
// spec §5 describes and the reference implementation's
// parseMessageInternal already uses; dst, if non-nil, receives the result
// and is returned. Its Tape and Strings are replaced by newly built
// slices; their old backing arrays are not reused.
func Parse(buf []byte, dst *ParsedJSON, opts ...ParserOption) (*ParsedJSON, error) {
	o := defaultParserOptions()
	for _, opt := range opts {
		opt(&o)
	}

	padded := ensurePadded(buf)
	source := padded[:len(buf)]

	indices, err := runStage1(source)
	if err != nil {
		return nil, err
	}
	if n := len(indices); n > 0 && int(indices[n-1]) == len(source) {
		indices = indices[:n-1]
	}

	tape, strBuf, berr := buildTape(source, indices, o.maxDepth, o.copyStrings)
	if berr != nil {
		return nil, berr
	}

	if dst == nil {
		dst = &ParsedJSON{}
	}
	dst.Tape = tape
	dst.Strings = strBuf
	dst.source = source
	return dst, nil
}

// runStage1 drives findStructuralIndices from a producer goroutine and
// collects its batches on the calling goroutine, returning the flattened
// index array (including the trailing sentinel) or the first error Stage
// 1 encountered.
func runStage1(buf []byte) ([]uint32, *Error) {
	batches := make(chan *indexBatch, 4)
	errCh := make(chan *Error, 1)
	go func() {
		defer close(batches)
		errCh <- findStructuralIndices(buf, func(b *indexBatch) {
			cp := *b
			batches <- &cp
		})
	}()

	var indices []uint32
	for b := range batches {
		indices = append(indices, b.offsets[:b.n]...)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return indices, nil
}

// ParseND parses a buffer containing one or more whitespace-separated
// top-level JSON values (newline-delimited JSON, among other framings)
// and returns one ParsedJSON per value, in document order. A buffer that
// is empty or holds only whitespace returns ErrEmpty.
func ParseND(buf []byte, opts ...ParserOption) ([]*ParsedJSON, error) {
	o := defaultParserOptions()
	for _, opt := range opts {
		opt(&o)
	}

	padded := ensurePadded(buf)
	source := padded[:len(buf)]

	indices, err := computeStructuralIndices(source)
	if err != nil {
		return nil, err
	}
	if n := len(indices); n > 0 && int(indices[n-1]) == len(source) {
		indices = indices[:n-1]
	}

	groups := splitTopLevelValues(source, indices)
	docs := make([]*ParsedJSON, 0, len(groups))
	for _, g := range groups {
		tape, strBuf, berr := buildTape(source, g, o.maxDepth, o.copyStrings)
		if berr != nil {
			return docs, berr
		}
		docs = append(docs, &ParsedJSON{Tape: tape, Strings: strBuf, source: source})
	}
	return docs, nil
}

// splitTopLevelValues partitions indices (already stripped of the
// trailing sentinel) into one slice per top-level value by tracking
// container depth across the whole stream: a group ends the instant
// depth returns to zero, whether that is a closing bracket or a bare
// scalar's single structural entry.
func splitTopLevelValues(buf []byte, indices []uint32) [][]uint32 {
	var groups [][]uint32
	depth := 0
	start := 0
	for i, off := range indices {
		switch buf[off] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		if depth == 0 {
			groups = append(groups, indices[start:i+1])
			start = i + 1
		}
	}
	return groups
}

// Stream is one parsed document, or the error that ended the stream,
// produced by ParseNDStream.
type Stream struct {
	Value *ParsedJSON
	Error error
}

// ParseNDStream reads newline-delimited JSON from r in bounded chunks,
// parsing each top-level value as soon as a full one has arrived, so a
// stream far larger than memory can be processed incrementally. The
// returned channel is closed when r is exhausted or an error occurs.
//
// This does not implement true incremental re-scanning: each call to
// consumeCompleteDocuments re-runs Stage 1 over the whole unconsumed
// carry-over buffer, so pathologically small chunkSize values relative
// to document size pay quadratic re-scan cost. Chunk sizes at least a
// few document-lengths wide keep this firmly in the noise.
func ParseNDStream(r io.Reader, chunkSize int, opts ...ParserOption) <-chan Stream {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	out := make(chan Stream)
	go func() {
		defer close(out)
		br := bufio.NewReaderSize(r, chunkSize)
		buf := make([]byte, chunkSize)
		var carry []byte
		for {
			n, rerr := br.Read(buf)
			if n > 0 {
				carry = append(carry, buf[:n]...)
				docs, rest, perr := consumeCompleteDocuments(carry, opts...)
				for _, d := range docs {
					out <- Stream{Value: d}
				}
				if perr != nil {
					out <- Stream{Error: perr}
					return
				}
				carry = rest
			}
			if rerr == io.EOF {
				if hasNonWhitespace(carry) {
					docs, derr := ParseND(carry, opts...)
					for _, d := range docs {
						out <- Stream{Value: d}
					}
					if derr != nil {
						out <- Stream{Error: derr}
					}
				}
				return
			}
			if rerr != nil {
				out <- Stream{Error: rerr}
				return
			}
		}
	}()
	return out
}

// consumeCompleteDocuments parses every top-level value in carry that is
// fully present (per findLastDocumentBoundary), returning those documents
// and the unconsumed remainder of carry to prepend to the next read. A
// Stage 1 error (e.g. a string straddling the chunk boundary looks
// unterminated) is treated as "need more data" rather than a failure,
// since ParseNDStream cannot yet tell a genuine syntax error from a
// document that is simply still arriving.
func consumeCompleteDocuments(carry []byte, opts ...ParserOption) ([]*ParsedJSON, []byte, *Error) {
	padded := ensurePadded(carry)
	source := padded[:len(carry)]

	indices, err := computeStructuralIndices(source)
	if err != nil {
		return nil, carry, nil
	}
	if n := len(indices); n > 0 && int(indices[n-1]) == len(source) {
		indices = indices[:n-1]
	}

	boundary := findLastDocumentBoundary(source, indices)
	if boundary <= 0 {
		return nil, carry, nil
	}

	groups := splitTopLevelValues(source, indices)
	o := defaultParserOptions()
	for _, opt := range opts {
		opt(&o)
	}
	docs := make([]*ParsedJSON, 0, len(groups))
	for _, g := range groups {
		if int(g[len(g)-1]) >= boundary {
			break // lies in carry[boundary:], parsed on a later call
		}
		tape, strBuf, berr := buildTape(source, g, o.maxDepth, o.copyStrings)
		if berr != nil {
			return docs, carry, berr
		}
		docs = append(docs, &ParsedJSON{Tape: tape, Strings: strBuf, source: source})
	}
	return docs, carry[boundary:], nil
}

func hasNonWhitespace(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return true
		}
	}
	return false
}

package tapeson

// blockSize is the width, in bytes, of the window Stage 1 classifies in one
// step. 64 is the canonical value from spec §4.1; a wider backend would
// define its own constant and plug into the same classify/prefixXor shape.
const blockSize = activeBlockSize

const activeBlockSize = 64

// indexBatchSize bounds how many structural offsets accumulate in one
// batch before Stage 1 hands them to Stage 2 over the channel. Sized so a
// full block's worth of structurals (at most blockSize of them) always
// fits even if the batch is nearly full when a new block starts.
const indexBatchSize = 1536
const indexBatchSafety = indexBatchSize - blockSize

// indexBatch is one unit of work handed from Stage 1 to Stage 2. offsets
// holds absolute byte offsets into the source buffer (spec §3: "An ordered
// sequence of 32-bit byte offsets"); n is the number of valid entries.
type indexBatch struct {
	offsets [indexBatchSize]uint32
	n       int
}

const evenBits = 0x5555555555555555
const oddBitsMask = ^uint64(evenBits)

// findOddBackslashSequences returns a mask with a bit set at the position
// just after every odd-length run of consecutive backslashes in mask --
// i.e. the byte that the run's final, "active" backslash escapes. A bit
// that would fall past the end of this block is not reported here; it is
// carried to the next block instead. prevEndsOddBackslash
// carries the parity of the backslash run (if any) ending the previous
// block across the call boundary.
//
// This is the textbook carry-propagating backslash-run classifier that
// gives spec §4.1's escape handling algorithm: reproduced here as a pure
// Go scalar routine in place of the assembly kernel minio/simdjson-go
// declares but does not ship a portable body for.
func findOddBackslashSequences(backslash uint64, prevEndsOddBackslash *uint64) uint64 {
	startEdges := backslash &^ (backslash << 1)
	evenStartMask := evenBits ^ *prevEndsOddBackslash
	evenStarts := startEdges & evenStartMask
	oddStarts := startEdges &^ evenStartMask

	evenCarries := backslash + evenStarts

	oddCarries := backslash + oddStarts
	iterEndsOddBackslash := oddCarries < backslash // unsigned add overflowed
	oddCarries |= *prevEndsOddBackslash

	if iterEndsOddBackslash {
		*prevEndsOddBackslash = 1
	} else {
		*prevEndsOddBackslash = 0
	}

	evenCarryEnds := evenCarries &^ backslash
	oddCarryEnds := oddCarries &^ backslash
	evenStartOddEnd := evenCarryEnds & oddBitsMask
	oddStartEvenEnd := oddCarryEnds & evenBits
	return evenStartOddEnd | oddStartEvenEnd
}

// classifyBlock scans block byte by byte and builds the four masks
// Stage 1 needs: JSON operator characters, JSON whitespace, literal
// backslashes, and literal double quotes. A wide-SIMD backend replaces this one function with a set
// of vector compares; everything downstream only ever sees the masks.
func classifyBlock(block []byte) (opMask, wsMask, backslashMask, quoteMask uint64) {
	for i, b := range block {
		bit := uint64(1) << uint(i)
		switch b {
		case '{', '}', '[', ']', ':', ',':
			opMask |= bit
		case ' ', '\t', '\n', '\r':
			wsMask |= bit
		case '\\':
			backslashMask |= bit
		case '"':
			quoteMask |= bit
		}
	}
	return
}

// structuralIndexer holds the carry state that must survive from one
// 64-byte block to the next: the parity of a backslash run split across
// the boundary, whether the boundary falls inside a string, and whether
// the boundary follows a byte that starts (or continues) an atom.
type structuralIndexer struct {
	prevEndsOddBackslash uint64
	prevInsideQuote      uint64 // 0 or all-ones
	prevEndsPseudoPred    uint64 // 0 or 1; starts at 0: the first byte of input follows nothing
	utf8                 utf8Validator
}

func newStructuralIndexer() *structuralIndexer {
	return &structuralIndexer{}
}

// step classifies one block (exactly blockSize bytes, space-padded by the
// caller if this is the final partial block) and returns the structural
// mask for that block, or ok=false if the block contains invalid UTF-8.
func (s *structuralIndexer) step(block []byte, realLen int) (structurals uint64, ok bool) {
	if !s.utf8.validateBlock(block[:realLen]) {
		return 0, false
	}
	opMask, wsMask, backslashMask, quoteBitsRaw := classifyBlock(block)

	oddEnds := findOddBackslashSequences(backslashMask, &s.prevEndsOddBackslash)
	quoteBits := quoteBitsRaw &^ oddEnds // quote chars that are real delimiters, not escaped

	// stringInterior: 1 for every byte from (and including) an opening
	// quote up to (but excluding) its matching closing quote.
	stringInterior := prefixXor(quoteBits) ^ s.prevInsideQuote
	if int64(stringInterior) < 0 {
		s.prevInsideQuote = ^uint64(0)
	} else {
		s.prevInsideQuote = 0
	}

	scalarStart := ^(opMask | wsMask)
	followsScalar := (scalarStart << 1) | s.prevEndsPseudoPred
	s.prevEndsPseudoPred = scalarStart >> 63

	structuralsRaw := opMask | (scalarStart &^ followsScalar)
	// stringTail shifts the interior by one quote: it excludes the opening
	// quote (which must stay a structural, it starts the string atom) and
	// includes the closing quote (which must never be one).
	stringTail := stringInterior ^ quoteBits
	structurals = structuralsRaw &^ stringTail
	return structurals, true
}

// unclosedString reports whether, at end of input, the carried quote
// parity still indicates we are inside an open string literal.
func (s *structuralIndexer) unclosedString() bool {
	return s.prevInsideQuote != 0
}

var paddingSpaces [blockSize]byte

func init() {
	for i := range paddingSpaces {
		paddingSpaces[i] = ' '
	}
}

// findStructuralIndices runs Stage 1 end to end over buf, invoking emit
// once per filled batch (and once more with the final partial batch,
// which always carries the len(buf) sentinel per spec §3). It returns a
// *Error for UTF8_ERROR, UNCLOSED_STRING, or EMPTY; nil on success.
func findStructuralIndices(buf []byte, emit func(*indexBatch)) *Error {
	n := len(buf)
	indexer := newStructuralIndexer()
	batch := &indexBatch{}
	total := 0

	flush := func() {
		if batch.n > 0 {
			emit(batch)
			batch = &indexBatch{}
		}
	}

	var scratch [blockSize]byte
	for i := 0; i < n; i += blockSize {
		end := i + blockSize
		var block []byte
		realLen := blockSize
		if end > n {
			realLen = n - i
			copy(scratch[:], paddingSpaces[:])
			copy(scratch[:realLen], buf[i:n])
			block = scratch[:]
		} else {
			block = buf[i:end]
		}

		structurals, ok := indexer.step(block, realLen)
		if !ok {
			return newError(ErrUTF8, i, "invalid UTF-8 sequence in input")
		}

		for structurals != 0 {
			pos, rest := nextSetBit(structurals)
			structurals = rest
			off := i + pos
			if off >= n {
				continue // can only happen from fabricated trailing whitespace, never set
			}
			batch.offsets[batch.n] = uint32(off)
			batch.n++
			total++
			if batch.n >= indexBatchSafety {
				flush()
			}
		}
	}

	if !indexer.utf8.finish() {
		return newError(ErrUTF8, n, "truncated UTF-8 sequence at end of input")
	}

	if indexer.unclosedString() {
		return newError(ErrUnclosedString, n, "string literal opened but never closed")
	}

	batch.offsets[batch.n] = uint32(n) // sentinel
	batch.n++
	flush()

	if total == 0 {
		return newError(ErrEmpty, 0, "input is empty or contains only whitespace")
	}
	return nil
}

// computeStructuralIndices is a synchronous convenience wrapper over
// findStructuralIndices for callers (the minifier, the on-demand iterator)
// that want a single flat []uint32 rather than a channel of batches.
func computeStructuralIndices(buf []byte) ([]uint32, *Error) {
	var out []uint32
	err := findStructuralIndices(buf, func(b *indexBatch) {
		out = append(out, b.offsets[:b.n]...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// findLastDocumentBoundary implements spec §4.1's streaming variant: given
// the structural indices already computed for buf, it returns the byte
// offset one past the last structural character of the last fully closed
// top-level (depth-zero) value, or -1 if no such boundary exists yet (the
// caller needs more data before it can cut the buffer). It is used by the
// parse-many chunked reader to decide how much of a read to hand to the
// tape builder now versus carry over to the next read.
func findLastDocumentBoundary(buf []byte, indices []uint32) int {
	depth := 0
	last := -1
	for _, off := range indices {
		if int(off) >= len(buf) {
			break // sentinel
		}
		switch buf[off] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				last = int(off) + 1
			}
		}
	}
	return last
}

package tapeson

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
)

// persistVersion tags the on-disk format so Load can reject a stream
// written by an incompatible future version rather than silently
// misinterpreting it.
const persistVersion = 1

// Save writes pj's tape and string arena to w in a compact, zstd-compressed
// form, grounded on the reference implementation's tape serializer but
// simplified to a single compressed stream instead of four independently
// tuned tag/value/string/message streams: persisted tapes are expected to
// be read back by the same process family that wrote them, not exchanged
// as a wire format, so the extra dimensions of tuning buy little.
//
// pj.Tape may hold string cells that borrow bytes directly from pj's
// original source buffer (the default fast path when WithCopyStrings was
// not used) rather than from pj.Strings, and Save does not persist the
// source buffer. So Save first materializes a self-contained copy: every
// string cell's payload is rewritten to point into a single exported
// strings arena, regardless of which buffer it originally borrowed from.
// That copy, not pj.Tape/pj.Strings directly, is what gets written out.
func Save(w io.Writer, pj *ParsedJSON) error {
	tape, strings := materializeStrings(pj)

	var header [1 + binary.MaxVarintLen64*2]byte
	header[0] = persistVersion
	n := 1
	n += binary.PutUvarint(header[n:], uint64(len(tape)))
	n += binary.PutUvarint(header[n:], uint64(len(strings)))
	if _, err := w.Write(header[:n]); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	defer enc.Close()

	var word [8]byte
	for _, t := range tape {
		binary.LittleEndian.PutUint64(word[:], t)
		if _, err := enc.Write(word[:]); err != nil {
			return err
		}
	}
	if _, err := enc.Write(strings); err != nil {
		return err
	}
	return nil
}

// materializeStrings walks pj's tape and produces a tape/strings pair in
// which every string cell's payload points into the returned strings
// arena (stringBufFlag always set), regardless of whether the source tape
// borrowed that string from pj.source or pj.Strings. The original tape and
// arena are left untouched.
func materializeStrings(pj *ParsedJSON) ([]uint64, []byte) {
	tape := make([]uint64, len(pj.Tape))
	copy(tape, pj.Tape)
	var out []byte

	for idx := 0; idx < len(tape); {
		switch tapeTag(tape[idx]) {
		case tagString:
			payload := tapePayload(tape[idx])
			length := int(tape[idx+1])
			var src []byte
			if payload&stringBufFlag != 0 {
				off := int(payload &^ stringBufFlag)
				src = pj.Strings[off : off+length]
			} else {
				off := int(payload)
				src = pj.source[off : off+length]
			}
			newOff := len(out)
			out = append(out, src...)
			tape[idx] = makeTapeWord(tagString, stringBufFlag|uint64(newOff))
			idx += 2
		case tagInt64, tagUint64, tagDouble:
			idx += 2
		default:
			idx++
		}
	}
	return tape, out
}

// Load reads a tape previously written by Save. dst, if non-nil, is
// reused to avoid reallocating Tape and Strings.
func Load(r io.Reader, dst *ParsedJSON) (*ParsedJSON, error) {
	br := bufio.NewReader(r)
	version, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != persistVersion {
		return nil, errors.New("tapeson: unsupported persisted tape version")
	}
	tapeLen, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	stringsLen, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	if dst == nil {
		dst = &ParsedJSON{}
	}
	if uint64(cap(dst.Tape)) < tapeLen {
		dst.Tape = make([]uint64, tapeLen)
	}
	dst.Tape = dst.Tape[:tapeLen]

	var word [8]byte
	for i := range dst.Tape {
		if _, err := io.ReadFull(dec, word[:]); err != nil {
			return nil, err
		}
		dst.Tape[i] = binary.LittleEndian.Uint64(word[:])
	}

	if uint64(cap(dst.Strings)) < stringsLen {
		dst.Strings = make([]byte, stringsLen)
	}
	dst.Strings = dst.Strings[:stringsLen]
	if _, err := io.ReadFull(dec, dst.Strings); err != nil {
		return nil, err
	}
	dst.source = nil
	return dst, nil
}

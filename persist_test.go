package tapeson

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	// Default options: strings are borrowed from the source buffer, not
	// copied into pj.Strings. Save must still produce a self-contained
	// persisted form that decodes correctly with no access to pj.source.
	pj, err := Parse([]byte(`{"a":1,"b":"hello","c":[1,2,3],"d":3.5,"e":null}`), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf bytes.Buffer
	if err := Save(&buf, pj); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(&buf, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want, werr := pj.Root().Interface()
	if werr != nil {
		t.Fatalf("Interface() on original: %v", werr)
	}
	got, gerr := loaded.Root().Interface()
	if gerr != nil {
		t.Fatalf("Interface() on reloaded: %v", gerr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded value mismatch (-want +got):\n%s", diff)
	}

	// The string value in particular exercises the borrowed (non-copied)
	// fast path that the materialization step has to rewrite.
	s, serr := loaded.Root().Object()
	if serr != nil {
		t.Fatalf("Object(): %v", serr)
	}
	b, berr := s.AtKey("b")
	if berr != nil {
		t.Fatalf("AtKey(b): %v", berr)
	}
	str, strerr := b.String()
	if strerr != nil || str != "hello" {
		t.Fatalf("b = %q, err=%v", str, strerr)
	}
}

func TestSaveLoadWithCopyStrings(t *testing.T) {
	pj, err := Parse([]byte(`{"k":"a long enough string to not be trivially equal"}`), nil, WithCopyStrings())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Save(&buf, pj); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, lerr := Load(&buf, nil)
	if lerr != nil {
		t.Fatalf("Load: %v", lerr)
	}
	obj, oerr := loaded.Root().Object()
	if oerr != nil {
		t.Fatalf("Object(): %v", oerr)
	}
	v, verr := obj.AtKey("k")
	if verr != nil {
		t.Fatalf("AtKey: %v", verr)
	}
	s, serr := v.String()
	if serr != nil || s != "a long enough string to not be trivially equal" {
		t.Fatalf("got %q, err=%v", s, serr)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	if _, err := Load(&buf, nil); err == nil {
		t.Fatalf("expected an error for an unsupported version byte")
	}
}

func TestSaveLoadReusesDestination(t *testing.T) {
	pj, err := Parse([]byte(`[1,2,3]`), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Save(&buf, pj); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := &ParsedJSON{Tape: make([]uint64, 0, 64), Strings: make([]byte, 0, 64)}
	loaded, lerr := Load(&buf, dst)
	if lerr != nil {
		t.Fatalf("Load: %v", lerr)
	}
	if loaded != dst {
		t.Fatalf("Load should return the reused destination")
	}
	arr, aerr := loaded.Root().Array()
	if aerr != nil {
		t.Fatalf("Array(): %v", aerr)
	}
	els := arr.Elements()
	if len(els) != 3 {
		t.Fatalf("len = %d, want 3", len(els))
	}
}

package tapeson

import "testing"

func TestChecksumDeterministic(t *testing.T) {
	doc := []byte(`{"a":1,"b":[1,2,3]}`)
	a := Checksum(doc)
	b := Checksum(append([]byte(nil), doc...))
	if a != b {
		t.Fatalf("checksum not stable across equal-content buffers: %x != %x", a, b)
	}
}

func TestChecksumDiffersOnContent(t *testing.T) {
	a := Checksum([]byte(`{"a":1}`))
	b := Checksum([]byte(`{"a":2}`))
	if a == b {
		t.Fatalf("expected different checksums for different documents")
	}
}

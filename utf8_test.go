package tapeson

import "testing"

func TestValidateUTF8(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want bool
	}{
		{"ascii", []byte("hello world"), true},
		{"two byte", []byte("caf\xc3\xa9"), true},
		{"three byte", []byte("\xe4\xb8\xad"), true},
		{"four byte", []byte("\xf0\x9f\x98\x80"), true},
		{"truncated two byte", []byte{0xc3}, false},
		{"overlong two byte", []byte{0xc0, 0x80}, false},
		{"overlong three byte", []byte{0xe0, 0x80, 0x80}, false},
		{"surrogate", []byte{0xed, 0xa0, 0x80}, false},
		{"beyond max codepoint", []byte{0xf4, 0x90, 0x80, 0x80}, false},
		{"stray continuation", []byte{0x80}, false},
		{"invalid lead 0xff", []byte{0xff}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := validateUTF8(c.in); got != c.want {
				t.Errorf("validateUTF8(%x) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestUTF8ValidatorAcrossBlocks(t *testing.T) {
	var v utf8Validator
	// A 2-byte sequence split across two validateBlock calls.
	if !v.validateBlock([]byte{'a', 0xc3}) {
		t.Fatalf("first block unexpectedly rejected")
	}
	if !v.validateBlock([]byte{0xa9, 'b'}) {
		t.Fatalf("second block unexpectedly rejected")
	}
	if !v.finish() {
		t.Fatalf("finish() = false, want true")
	}
}

package tapeson

import "github.com/zeebo/xxh3"

// Checksum returns a 64-bit hash of the raw document bytes, intended for
// deduplicating documents in a parse-many stream without materializing
// and comparing full ParsedJSON values.
func Checksum(buf []byte) uint64 {
	return xxh3.Hash(buf)
}

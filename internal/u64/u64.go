// Package u64 holds little-endian byte conversions for 64-bit values, used
// by the memory instance's load/store family so the wire format is defined
// in exactly one place.
package u64

import "encoding/binary"

// LeBytes encodes v as 8 little-endian bytes.
func LeBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Uint64 decodes 8 little-endian bytes into v. Panics if len(b) < 8;
// callers are expected to bounds-check before calling.
func Uint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

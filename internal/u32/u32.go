// Package u32 holds little-endian byte conversions for 32-bit values, used
// by the memory instance's load/store family so the wire format is defined
// in exactly one place.
package u32

import "encoding/binary"

// LeBytes encodes v as 4 little-endian bytes.
func LeBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32 decodes 4 little-endian bytes into v. Panics if len(b) < 4;
// callers are expected to bounds-check before calling.
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

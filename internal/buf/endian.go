// Package buf contains the little-endian encoders used for in-band allocator
// metadata (region headers, free-list links, counter cells).
package buf

import "encoding/binary"

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// PutU64LE writes v as a little-endian uint64 into b.
// Returns false without writing when b is too short.
func PutU64LE(b []byte, v uint64) bool {
	if len(b) < 8 {
		return false
	}
	binary.LittleEndian.PutUint64(b, v)
	return true
}

// I32LE reads a little-endian int32 from b. Returns 0 when b is too short.
func I32LE(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// PutI32LE writes v as a little-endian int32 into b.
// Returns false without writing when b is too short.
func PutI32LE(b []byte, v int32) bool {
	if len(b) < 4 {
		return false
	}
	binary.LittleEndian.PutUint32(b, uint32(v))
	return true
}

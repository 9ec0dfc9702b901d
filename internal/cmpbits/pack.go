package cmpbits

import "encoding/binary"

// Fixed-width big-endian field packing for collection/entity headers and
// the RAW fallback mode, grounded on the teacher's BytesPerSample
// (internal/alac/format.go) and its direct-slice PCM writers
// (internal/alac/matrix.go's WriteStereo16/20/24/32): here the storage
// widths are the ones SPEC_FULL.md §3 assigns per field (8/16/32-bit),
// and the byte order is big-endian throughout rather than the teacher's
// little-endian PCM convention.

// BytesForWidth returns the storage width in bytes for a field declared
// with the given max-bits W, rounding up to the smallest of 1, 2, or 4
// bytes that holds it.
func BytesForWidth(w uint) int {
	switch {
	case w <= 8:
		return 1
	case w <= 16:
		return 2
	default:
		return 4
	}
}

// PutUint8 writes a single byte field.
func PutUint8(buf []byte, off int, v uint8) int {
	buf[off] = v

	return off + 1
}

// PutUint16 writes a big-endian 16-bit field.
func PutUint16(buf []byte, off int, v uint16) int {
	binary.BigEndian.PutUint16(buf[off:off+2], v)

	return off + 2
}

// PutUint32 writes a big-endian 32-bit field.
func PutUint32(buf []byte, off int, v uint32) int {
	binary.BigEndian.PutUint32(buf[off:off+4], v)

	return off + 4
}

// GetUint8 reads a single byte field.
func GetUint8(buf []byte, off int) (uint8, int) {
	return buf[off], off + 1
}

// GetUint16 reads a big-endian 16-bit field.
func GetUint16(buf []byte, off int) (uint16, int) {
	return binary.BigEndian.Uint16(buf[off : off+2]), off + 2
}

// GetUint32 reads a big-endian 32-bit field.
func GetUint32(buf []byte, off int) (uint32, int) {
	return binary.BigEndian.Uint32(buf[off : off+4]), off + 4
}

// PutField writes v into buf at off using the storage width implied by w,
// and returns the new offset. Used for the RAW fallback, where every field
// is stored at its natural byte width with no bit packing.
func PutField(buf []byte, off int, v uint32, w uint) int {
	switch BytesForWidth(w) {
	case 1:
		return PutUint8(buf, off, uint8(v))
	case 2:
		return PutUint16(buf, off, uint16(v))
	default:
		return PutUint32(buf, off, v)
	}
}

// GetField reads a value of storage width implied by w from buf at off.
func GetField(buf []byte, off int, w uint) (uint32, int) {
	switch BytesForWidth(w) {
	case 1:
		v, n := GetUint8(buf, off)

		return uint32(v), n
	case 2:
		v, n := GetUint16(buf, off)

		return uint32(v), n
	default:
		return GetUint32(buf, off)
	}
}

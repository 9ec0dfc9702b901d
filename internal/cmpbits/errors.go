// Package cmpbits implements the bit-exact primitives of the compression
// core: bit I/O, prefix codewords, the two escape mechanisms, and the
// model predictor. None of it allocates on the happy path.
package cmpbits

import "errors"

// Sentinel errors returned by the primitives in this package. Callers in
// package cmp wrap these with cmp.Code to build the closed error-code
// surface spec.md §7 requires; the sentinels themselves stay matchable with
// errors.Is the way the teacher's internal/alac errors were.
var (
	// ErrSmallBuf indicates the destination buffer ran out of room.
	ErrSmallBuf = errors.New("cmpbits: destination buffer too small")

	// ErrBitOverflow indicates a decoder consumed more bits than the
	// refill register had buffered since the previous refill.
	ErrBitOverflow = errors.New("cmpbits: bit reader overflow")

	// ErrCorruption indicates an escape-layer or codeword invariant was
	// violated by the bitstream being decoded.
	ErrCorruption = errors.New("cmpbits: corruption detected")

	// ErrValueTooLarge indicates a value did not fit in its declared
	// bit width.
	ErrValueTooLarge = errors.New("cmpbits: value exceeds field width")
)

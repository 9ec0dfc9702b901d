package cmpbits

import "math/bits"

// Unary, Rice, and general Golomb codeword construction (spec.md §4.2),
// grounded on the teacher's adaptive Golomb-Rice decoder (golomb.go's
// dynGet/lead/lg3a): this package keeps the same leading-run-count idiom
// (PeekLeadingOnes mirrors golomb.go's `lead(^streamLong)`) but drops the
// teacher's adaptive mean tracking — spec.md's m and s are supplied
// per-field, fixed for the call, not recomputed per sample.

// FloorLog2 returns floor(log2(m)) for m >= 1.
func FloorLog2(m uint32) uint {
	return uint(bits.Len32(m) - 1)
}

// EncodeUnary writes v as v ones followed by a single zero.
func EncodeUnary(w *BitWriter, v uint32) error {
	for v >= 32 {
		if err := w.PutBits(0xFFFFFFFF, 32); err != nil {
			return err
		}

		v -= 32
	}

	n := v + 1
	value := ((uint32(1) << v) - 1) << 1

	return w.PutBits(value, uint(n))
}

// DecodeUnary reads a unary codeword: the count of leading ones before the
// terminating zero.
func DecodeUnary(r *BitReader) uint32 {
	var total uint32

	for {
		ones := r.PeekLeadingOnes()
		if ones < r.Unconsumed() {
			r.Consume(ones + 1)

			return total + ones
		}

		total += ones
		r.Consume(ones)

		if r.Refill() == Overflow {
			return total
		}
	}
}

// EncodeRice writes v under a Rice code of divisor m, a power of two, m>1.
func EncodeRice(w *BitWriter, v, m uint32) error {
	l := FloorLog2(m)
	q := v >> l
	rem := v & (m - 1)

	if err := EncodeUnary(w, q); err != nil {
		return err
	}

	return w.PutBits(rem, l)
}

// DecodeRice reads a Rice codeword of divisor m.
func DecodeRice(r *BitReader, m uint32) uint32 {
	l := FloorLog2(m)
	q := DecodeUnary(r)
	rem := r.Read32(l)

	return q*m + rem
}

// EncodeGolomb writes v under a general Golomb code of divisor m>=2, using
// the classic construction (Golomb 1966 / Rice 1979): unary quotient
// prefix, then an L- or (L+1)-bit truncated-binary remainder, with the
// short/long split chosen by the cutoff c = 2^(L+1) - m. This is the
// "standard Golomb form" spec.md §4.2 names; m a power of two degenerates
// to plain Rice (c = m, remainder always L bits).
func EncodeGolomb(w *BitWriter, v, m uint32) error {
	l := FloorLog2(m)
	c := (uint32(1) << (l + 1)) - m
	q := v / m
	rem := v % m

	if err := EncodeUnary(w, q); err != nil {
		return err
	}

	if rem < c {
		return w.PutBits(rem, l)
	}

	return w.PutBits(rem+c, l+1)
}

// DecodeGolomb reads a general Golomb codeword of divisor m>=2.
func DecodeGolomb(r *BitReader, m uint32) uint32 {
	l := FloorLog2(m)
	c := (uint32(1) << (l + 1)) - m
	q := DecodeUnary(r)

	r1 := r.Read32(l)
	if r1 < c {
		return q*m + r1
	}

	extra := r.Read32(1)
	r2 := r1<<1 | extra

	return q*m + (r2 - c)
}

// MaxCodewordLen bounds the physical length of a single B-level codeword
// spec.md allows (one unary prefix bit per spill step plus the raw
// remainder); producers must keep every value under max_spill(m) (§4.3) so
// this is never exceeded.
const MaxCodewordLen = 32

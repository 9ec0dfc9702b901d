package cmpbits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMaxSpillBounded(t *testing.T) {
	for _, tc := range []struct {
		m uint32
		w uint
	}{
		{2, 16}, {16, 16}, {1, 8}, {1024, 32}, {3, 16},
	} {
		s := MaxSpill(tc.m, tc.w)
		assert.LessOrEqual(t, uint64(s), uint64(1)<<tc.w, "m=%d w=%d", tc.m, tc.w)
	}
}

func TestZeroEscapeRoundTrip(t *testing.T) {
	const width = 16

	m := uint32(4)
	s := MaxSpill(m, width)
	require.Greater(t, s, uint32(0))

	for _, v := range []uint32{0, 1, s - 2, s - 1, s, s + 1, 0xFFFF} {
		buf := make([]byte, 256)
		w := NewBitWriter(buf)
		require.NoError(t, EncodeZeroEscape(w, v, m, s, width))

		r := NewBitReader(buf)
		got, err := DecodeZeroEscape(r, m, s, width)
		require.NoError(t, err)
		assert.Equal(t, v, got, "v=%d", v)
	}
}

func TestZeroEscapeNoOverflowAtMaxValue(t *testing.T) {
	const width = 32

	m, s := uint32(4), uint32(1000)

	buf := make([]byte, 256)
	w := NewBitWriter(buf)
	require.NoError(t, EncodeZeroEscape(w, 0xFFFFFFFF, m, s, width))
	// A second, adjacent value: if the first encode wrongly took the
	// in-range path for 0xFFFFFFFF (v+1 wrapping to 0 in 32-bit arithmetic),
	// the decoder below would consume this value's bits as the first
	// value's literal instead, and the round trip would desynchronize.
	require.NoError(t, EncodeZeroEscape(w, 7, m, s, width))

	r := NewBitReader(buf)

	got, err := DecodeZeroEscape(r, m, s, width)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), got)

	got, err = DecodeZeroEscape(r, m, s, width)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got)
}

func TestMultiEscapeRoundTrip(t *testing.T) {
	const width = 16

	m := uint32(4)
	s := uint32(100)

	for _, v := range []uint32{0, 1, s - 1, s, s + 1, s + 100, 0xFFFF} {
		buf := make([]byte, 256)
		w := NewBitWriter(buf)
		require.NoError(t, EncodeMultiEscape(w, v, m, s, width))

		r := NewBitReader(buf)
		got, err := DecodeMultiEscape(r, m, s, width)
		require.NoError(t, err)
		assert.Equal(t, v, got, "v=%d", v)
	}
}

func TestZeroEscapeCorruptionDetected(t *testing.T) {
	const width = 16

	m, s := uint32(4), uint32(50)

	buf := make([]byte, 256)
	w := NewBitWriter(buf)
	require.NoError(t, encodeSymbol(w, 0, m)) // symbol 0 (escape marker)
	require.NoError(t, w.PutBits(10, width))

	r := NewBitReader(buf)
	_, err := DecodeZeroEscape(r, m, s, width)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestMultiEscapeCorruptionOnOversizedEll(t *testing.T) {
	const width = 8

	m, s := uint32(4), uint32(10)

	buf := make([]byte, 256)
	w := NewBitWriter(buf)
	// k chosen so ell exceeds roundUpEven(width).
	require.NoError(t, EncodeGolomb(w, s+100, m))

	r := NewBitReader(buf)
	_, err := DecodeMultiEscape(r, m, s, width)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestEscapeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		width := uint(rapid.IntRange(4, 32).Draw(rt, "width"))
		m := rapid.Uint32Range(1, 64).Draw(rt, "m")
		s := rapid.Uint32Range(1, MaxSpill(m, width)).Draw(rt, "s")
		domain := uint64(1) << width
		v := rapid.Uint32Range(0, uint32(domain-1)).Draw(rt, "v")
		multi := rapid.Bool().Draw(rt, "multi")

		buf := make([]byte, 512)
		w := NewBitWriter(buf)

		var encErr error
		if multi {
			encErr = EncodeMultiEscape(w, v, m, s, width)
		} else {
			encErr = EncodeZeroEscape(w, v, m, s, width)
		}

		require.NoError(rt, encErr)

		r := NewBitReader(buf)

		var (
			got    uint32
			decErr error
		)

		if multi {
			got, decErr = DecodeMultiEscape(r, m, s, width)
		} else {
			got, decErr = DecodeZeroEscape(r, m, s, width)
		}

		require.NoError(rt, decErr)
		require.Equal(rt, v, got)
	})
}

package cmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plato-rdcu/cmp/internal/cmpbits"
)

// Named after the worked scenarios they reproduce value-for-value, not
// because the numbering carries any meaning of its own.

func TestScenarioRawModeImagette(t *testing.T) {
	chunk := buildRawChunk(t, []struct {
		sub     Subservice
		class   ChunkClass
		records [][]uint32
	}{
		{SubserviceImagette, ClassNCAMImagette, [][]uint32{{0x0001}, {0x0203}}},
	})

	// The collection payload is exactly the four raw bytes 00 01 02 03.
	layout, err := LookupLayout(SubserviceImagette)
	require.NoError(t, err)
	payload := chunk[cmpbits.CollectionHeaderSize:]
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03}, payload[:layout.SampleSize()*2])

	env := fixedEnv(t)
	out := make([]byte, CompressChunkCmpSizeBound(len(chunk)))

	n, _, err := CompressChunk(env, CompressionConfig{Mode: Raw}, chunk, nil, out)
	require.NoError(t, err)

	header, hdrSize, err := ParseEntityHeader(out[:n])
	require.NoError(t, err)
	assert.True(t, header.RawBit)
	assert.Equal(t, uint32(len(chunk)), header.OriginalSize)
	assert.Equal(t, GenericHeaderSize, hdrSize)

	got, models, err := DecompressCmpEntity(out[:n], nil)
	require.NoError(t, err)
	assert.Nil(t, models)
	assert.Equal(t, chunk, got)
}

func TestScenarioRawFallbackPerCollection(t *testing.T) {
	compressible := [][]uint32{{3, 5}, {4, 5}, {4, 6}, {5, 6}}

	// Alternating extremes: DIFF_ZERO diffs against the previous record
	// escape on nearly every record, costing more bits than raw storage —
	// this collection falls back to a raw per-collection copy while the
	// first stays compressed.
	incompressible := [][]uint32{
		{0, 0}, {60000, 60000}, {0, 0}, {60000, 60000}, {0, 0}, {60000, 60000},
	}

	chunk := buildRawChunk(t, []struct {
		sub     Subservice
		class   ChunkClass
		records [][]uint32
	}{
		{SubserviceOffset, ClassOffsetBackground, compressible},
		{SubserviceOffset, ClassOffsetBackground, incompressible},
	})

	env := fixedEnv(t)
	cfg := testConfig(DiffZero)

	out := make([]byte, CompressChunkCmpSizeBound(len(chunk)))
	n, _, err := CompressChunk(env, cfg, chunk, nil, out)
	require.NoError(t, err)

	got, _, err := DecompressCmpEntity(out[:n], nil)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestScenarioMultiCollectionDifferentSubservicesSameClass(t *testing.T) {
	sfx := [][]uint32{{0x01, 1000}, {0x00, 1010}}
	sfxFull := [][]uint32{
		{0x01, 1000, 10, 20, 500, 30, 40},
		{0x00, 1010, 11, 19, 510, 29, 39},
	}

	chunk := buildRawChunk(t, []struct {
		sub     Subservice
		class   ChunkClass
		records [][]uint32
	}{
		{SubserviceSFx, ClassShortCadence, sfx},
		{SubserviceSFxEfxNcobEcob, ClassShortCadence, sfxFull},
	})

	env := fixedEnv(t)
	cfg := testConfig(DiffZero)

	out := make([]byte, CompressChunkCmpSizeBound(len(chunk)))
	n, _, err := CompressChunk(env, cfg, chunk, nil, out)
	require.NoError(t, err)

	got, _, err := DecompressCmpEntity(out[:n], nil)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)

	// Substituting a long-cadence collection must fail before any bits are
	// emitted.
	mixedChunk := buildRawChunk(t, []struct {
		sub     Subservice
		class   ChunkClass
		records [][]uint32
	}{
		{SubserviceSFx, ClassShortCadence, sfx},
		{SubserviceLFx, ClassLongCadence, sfx},
	})

	_, _, err = CompressChunk(env, cfg, mixedChunk, nil, out)
	assert.ErrorIs(t, err, ErrChunkSubserviceInconsistent)
}

package cmpbits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRawChunk(t *testing.T, specs []CollectionHeader, payloads [][]byte) []byte {
	t.Helper()

	var buf []byte

	for i, h := range specs {
		hdr := make([]byte, CollectionHeaderSize)
		require.NoError(t, PutCollectionHeader(hdr, h))
		buf = append(buf, hdr...)
		buf = append(buf, payloads[i]...)
	}

	return buf
}

func TestScanCollectionsSingle(t *testing.T) {
	h := CollectionHeader{Subservice: 1, ChunkClass: 5, DataLength: 4, SampleSize: 2}
	chunk := buildRawChunk(t, []CollectionHeader{h}, [][]byte{{1, 2, 3, 4}})

	spans, err := ScanCollections(chunk)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, h, spans[0].Header)
	assert.Equal(t, 0, spans[0].HeaderOffset)
	assert.Equal(t, CollectionHeaderSize, spans[0].DataOffset)
}

func TestScanCollectionsMultiple(t *testing.T) {
	h1 := CollectionHeader{Subservice: 1, ChunkClass: 5, DataLength: 2, SampleSize: 2}
	h2 := CollectionHeader{Subservice: 1, ChunkClass: 5, DataLength: 6, SampleSize: 2}
	chunk := buildRawChunk(t,
		[]CollectionHeader{h1, h2},
		[][]byte{{1, 2}, {3, 4, 5, 6, 7, 8}},
	)

	spans, err := ScanCollections(chunk)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].DataOffset+2, spans[1].HeaderOffset)
	assert.Equal(t, h2, spans[1].Header)
}

func TestScanCollectionsRejectsBadDivision(t *testing.T) {
	h := CollectionHeader{Subservice: 1, ChunkClass: 5, DataLength: 5, SampleSize: 2}
	chunk := buildRawChunk(t, []CollectionHeader{h}, [][]byte{{1, 2, 3, 4, 5}})

	_, err := ScanCollections(chunk)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestScanCollectionsRejectsOverrun(t *testing.T) {
	h := CollectionHeader{Subservice: 1, ChunkClass: 5, DataLength: 100, SampleSize: 2}
	chunk := buildRawChunk(t, []CollectionHeader{h}, [][]byte{{1, 2}})

	_, err := ScanCollections(chunk)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestParsePutCollectionHeaderRoundTrip(t *testing.T) {
	h := CollectionHeader{Subservice: 9, ChunkClass: 3, Reserved: 0xABCD, DataLength: 1024, SampleSize: 16}
	buf := make([]byte, CollectionHeaderSize)

	require.NoError(t, PutCollectionHeader(buf, h))

	got, err := ParseCollectionHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

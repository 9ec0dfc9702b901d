package cmpbits

import "encoding/binary"

// Collection-boundary scanning, adapted from the teacher's MP4 box-scan
// loop (internal/mp4/mp4.go's readBoxInfo/iterChildren): read a fixed
// header, derive a payload size from it, validate, advance past the
// payload, repeat until the buffer is exhausted. mp4.go walks a nested
// ISO-BMFF box tree over an io.ReadSeeker; this walks one flat sequence of
// fixed-size collection headers over an in-memory byte slice, since the
// chunk framer has no container nesting and never seeks.

// CollectionHeaderSize is the fixed size, in bytes, of a collection header.
const CollectionHeaderSize = 12

// CollectionHeader is the 12-byte per-collection header copied verbatim
// into the compressed bitstream (spec.md §4.6).
type CollectionHeader struct {
	Subservice uint8
	ChunkClass uint8
	Reserved   uint16
	DataLength uint32
	SampleSize uint32
}

// ParseCollectionHeader reads a 12-byte collection header from the front
// of buf.
func ParseCollectionHeader(buf []byte) (CollectionHeader, error) {
	if len(buf) < CollectionHeaderSize {
		return CollectionHeader{}, ErrSmallBuf
	}

	return CollectionHeader{
		Subservice: buf[0],
		ChunkClass: buf[1],
		Reserved:   binary.BigEndian.Uint16(buf[2:4]),
		DataLength: binary.BigEndian.Uint32(buf[4:8]),
		SampleSize: binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// PutCollectionHeader writes h as a 12-byte header at the front of buf.
func PutCollectionHeader(buf []byte, h CollectionHeader) error {
	if len(buf) < CollectionHeaderSize {
		return ErrSmallBuf
	}

	buf[0] = h.Subservice
	buf[1] = h.ChunkClass
	binary.BigEndian.PutUint16(buf[2:4], h.Reserved)
	binary.BigEndian.PutUint32(buf[4:8], h.DataLength)
	binary.BigEndian.PutUint32(buf[8:12], h.SampleSize)

	return nil
}

// CollectionSpan locates one collection's header and record payload within
// a raw (uncompressed) chunk buffer.
type CollectionSpan struct {
	Header       CollectionHeader
	HeaderOffset int
	DataOffset   int
}

// ScanCollections walks a raw chunk buffer header-by-header, the way
// mp4.go's iterChildren walks sibling boxes, validating as it goes:
// data_length must be a whole multiple of sample_size, and the spans must
// exactly tile the buffer with no gap or overrun. It never allocates more
// than the returned slice.
func ScanCollections(buf []byte) ([]CollectionSpan, error) {
	var spans []CollectionSpan

	pos := 0
	for pos < len(buf) {
		header, err := ParseCollectionHeader(buf[pos:])
		if err != nil {
			return nil, err
		}

		if header.SampleSize == 0 || header.DataLength%header.SampleSize != 0 {
			return nil, ErrCorruption
		}

		dataOffset := pos + CollectionHeaderSize
		end := dataOffset + int(header.DataLength)

		if end > len(buf) {
			return nil, ErrCorruption
		}

		spans = append(spans, CollectionSpan{
			Header:       header,
			HeaderOffset: pos,
			DataOffset:   dataOffset,
		})

		pos = end
	}

	return spans, nil
}

/*
   Copyright The plato-rdcu Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package cmp

import (
	"encoding/binary"
	"errors"

	"github.com/plato-rdcu/cmp/internal/cmpbits"
)

// Per-collection framing and raw fallback (part of G), per spec.md §4.6.
// The "try compressed, retry raw" strategy checkpoints the output offset
// before each collection and, on SMALL_BUF, rewinds and restarts in raw
// mode for that collection alone — the two-pass buffer spec.md §9 asks
// for, adapted from the same read-size/validate/advance rhythm the
// teacher's internal/mp4 box scanner uses (internal/cmpbits/scan.go).

// writeRecordsRaw writes records (in field declaration order) to buf as
// fixed-width big-endian values, with no bit packing — the RAW mode and
// per-collection raw-fallback wire format.
func writeRecordsRaw(buf []byte, layout RecordLayout, records [][]uint32) {
	off := 0

	for _, rec := range records {
		for fi, fd := range layout.Fields {
			off = cmpbits.PutField(buf, off, rec[fi], fd.MaxBits)
		}
	}
}

// readRecordsRaw inverts writeRecordsRaw.
func readRecordsRaw(buf []byte, layout RecordLayout, numRecords int) [][]uint32 {
	records := make([][]uint32, numRecords)
	off := 0

	for k := range records {
		rec := make([]uint32, len(layout.Fields))

		for fi, fd := range layout.Fields {
			rec[fi], off = cmpbits.GetField(buf, off, fd.MaxBits)
		}

		records[k] = rec
	}

	return records
}

// compressOneCollection appends one collection (length prefix, 12-byte
// header, bitstream-or-raw payload) to out starting at offset, returning
// the offset just past it. It first attempts compression into a budget of
// header.DataLength-1 bytes; on SMALL_BUF it falls back to a raw copy of
// the record bytes for this collection only.
func compressOneCollection(
	out []byte,
	offset int,
	header cmpbits.CollectionHeader,
	layout RecordLayout,
	cfg CompressionConfig,
	records [][]uint32,
	models, updatedModels FieldModels,
) (int, bool, error) {
	const lengthPrefixSize = 2

	headerStart := offset + lengthPrefixSize
	dataStart := headerStart + cmpbits.CollectionHeaderSize

	if dataStart > len(out) {
		return 0, false, wrap(SmallBuf, cmpbits.ErrSmallBuf)
	}

	if err := cmpbits.PutCollectionHeader(out[headerStart:], header); err != nil {
		return 0, false, wrap(SmallBuf, err)
	}

	budget := int(header.DataLength) - 1

	cmpLen, wasRaw, err := tryCompressRecords(out, dataStart, budget, layout, cfg, records, models, updatedModels)
	if err != nil {
		return 0, false, err
	}

	if cmpLen > 0xFFFF {
		return 0, false, wrap(IntCmpColTooLarge, ErrParGeneric)
	}

	binary.BigEndian.PutUint16(out[offset:], uint16(cmpLen))

	return dataStart + cmpLen, wasRaw, nil
}

// tryCompressRecords attempts the bounded compressed path and falls back
// to a raw copy when it does not fit.
func tryCompressRecords(
	out []byte,
	dataStart, budget int,
	layout RecordLayout,
	cfg CompressionConfig,
	records [][]uint32,
	models, updatedModels FieldModels,
) (int, bool, error) {
	if budget > 0 && dataStart+budget <= len(out) {
		w := cmpbits.NewBitWriter(out[dataStart : dataStart+budget])

		err := CompressRecords(w, layout, cfg, records, models, updatedModels)
		if err == nil {
			if alignErr := w.Align32(); alignErr == nil {
				return w.Len() / 8, false, nil
			}
		} else if !errors.Is(err, cmpbits.ErrSmallBuf) {
			return 0, false, err
		}
	}

	rawLen := int(layout.SampleSize()) * len(records)
	if dataStart+rawLen > len(out) {
		return 0, false, wrap(SmallBuf, cmpbits.ErrSmallBuf)
	}

	for i := range out[dataStart : dataStart+rawLen] {
		out[dataStart+i] = 0
	}

	writeRecordsRaw(out[dataStart:dataStart+rawLen], layout, records)

	if updatedModels != nil && modelModeIsUsed(cfg.Mode) {
		copyRawModel(layout, records, updatedModels)
	}

	return rawLen, true, nil
}

// copyRawModel implements "when this fallback triggers in model mode, the
// updated model for that collection is a copy of the raw data": the
// decoder, seeing a raw collection, can only reconstruct the model this
// way, so the encoder must match.
func copyRawModel(layout RecordLayout, records [][]uint32, updatedModels FieldModels) {
	for fi := range layout.Fields {
		for k, rec := range records {
			updatedModels[fi][k] = rec[fi]
		}
	}
}

// decompressOneCollection reads one length-prefixed collection from buf
// starting at offset, returning the offset just past it.
func decompressOneCollection(
	buf []byte,
	offset int,
	models FieldModels,
	cfg CompressionConfig,
) (int, cmpbits.CollectionHeader, RecordLayout, [][]uint32, FieldModels, error) {
	const lengthPrefixSize = 2

	if offset+lengthPrefixSize > len(buf) {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, wrap(ColSizeInconsistent, ErrColSizeInconsistent)
	}

	cmpLen := int(binary.BigEndian.Uint16(buf[offset:]))
	headerStart := offset + lengthPrefixSize
	dataStart := headerStart + cmpbits.CollectionHeaderSize

	header, err := cmpbits.ParseCollectionHeader(buf[headerStart:])
	if err != nil {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, wrap(ColSizeInconsistent, err)
	}

	if header.SampleSize == 0 || header.DataLength%header.SampleSize != 0 {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, wrap(ColSizeInconsistent, ErrColSizeInconsistent)
	}

	layout, err := LookupLayout(Subservice(header.Subservice))
	if err != nil {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, err
	}

	if layout.SampleSize() != int(header.SampleSize) {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, wrap(ColSizeInconsistent, ErrColSizeInconsistent)
	}

	numRecords := int(header.DataLength) / int(header.SampleSize)

	// A record needs at least one byte on the wire in any mode, so a
	// record count exceeding the buffer itself is implausible and would
	// otherwise force an unbounded allocation below.
	if numRecords > len(buf) {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, wrap(ColSizeInconsistent, ErrColSizeInconsistent)
	}

	if dataStart+cmpLen > len(buf) {
		return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, wrap(ColSizeInconsistent, ErrColSizeInconsistent)
	}

	isRaw := cmpLen == int(header.DataLength)
	useModel := modelModeIsUsed(cfg.Mode)

	var updatedModels FieldModels
	if useModel {
		updatedModels = newFieldModels(len(layout.Fields), numRecords)
	}

	var records [][]uint32

	if isRaw {
		records = readRecordsRaw(buf[dataStart:dataStart+cmpLen], layout, numRecords)

		if useModel {
			copyRawModel(layout, records, updatedModels)
		}
	} else {
		r := cmpbits.NewBitReader(buf[dataStart : dataStart+cmpLen])

		records, err = DecompressRecords(r, layout, cfg, numRecords, models, updatedModels)
		if err != nil {
			return 0, cmpbits.CollectionHeader{}, RecordLayout{}, nil, nil, err
		}
	}

	return dataStart + cmpLen, header, layout, records, updatedModels, nil
}

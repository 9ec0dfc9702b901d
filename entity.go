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

import "encoding/binary"

// Entity header (H), a fixed-layout big-endian metadata envelope (spec.md
// §4.7/§6). Adapted from the teacher's ParseMagicCookie (config.go):
// fixed-offset binary.BigEndian reads from a byte slice, with a small
// family of constant sizes (configSize/atomHeaderSize there, the header
// sizes below here) rather than a self-describing TLV format.

// DataType is the entity header's data_type enum.
type DataType uint8

// The data_type values.
const (
	DataTypeChunk DataType = iota + 1
	DataTypeNCAMImagette
	DataTypeSATImagette
)

func dataTypeForClass(class ChunkClass) DataType {
	switch class {
	case ClassNCAMImagette:
		return DataTypeNCAMImagette
	case ClassSATImagette:
		return DataTypeSATImagette
	default:
		return DataTypeChunk
	}
}

// Fixed byte offsets within the generic header. Part of the wire contract;
// never renumber.
const (
	offVersionID      = 0
	offEntitySize     = 4
	offOriginalSize   = 8
	offStartTimestamp = 12 // 6 bytes
	offEndTimestamp   = 18 // 6 bytes
	offDataType       = 24
	offRawBit         = 25
	offCmpMode        = 26
	offModelValue     = 27
	offLossyRound     = 28
	offReserved1      = 29
	offModelID        = 30 // 2 bytes
	offModelCounter   = 32 // 2 bytes
	offReserved2      = 34 // 2 bytes
	offParam0M        = 36 // cmp_par_1
	offParam0S        = 40 // spill_par_1

	// GenericHeaderSize is the raw-mode and imagette header size. It
	// includes parameter key 0 inline — the one every layout uses, single-
	// field Imagette included — so a one-field record never needs the
	// extension block below.
	GenericHeaderSize = 44

	// offParamBlock is where parameter keys 1..MaxParamKeys-1 (cmp_par_2..6,
	// spill_par_2..6) live, for layouts with more than one parameter key.
	offParamBlock = GenericHeaderSize
)

// ChunkHeaderSize is the non-imagette header size: the generic header plus
// five more (cmp_par, spill_par) u32 pairs, for parameter keys 1..5.
const ChunkHeaderSize = GenericHeaderSize + (MaxParamKeys-1)*8

// EntityHeader is the parsed form of the fixed-layout envelope.
type EntityHeader struct {
	VersionID      uint32
	EntitySize     uint32
	OriginalSize   uint32
	StartTimestamp uint64 // low 48 bits significant
	EndTimestamp   uint64 // low 48 bits significant
	DataType       DataType
	RawBit         bool
	CmpMode        Mode
	ModelValue     uint8
	LossyRound     uint8
	ModelID        uint16
	ModelCounter   uint16
	Params         [MaxParamKeys]FieldParams
}

func putUint48(buf []byte, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v<<16)
	copy(buf, tmp[:6])
}

func getUint48(buf []byte) uint64 {
	var tmp [8]byte
	copy(tmp[2:], buf[:6])

	return binary.BigEndian.Uint64(tmp[:])
}

// headerSize returns the on-wire size for a header describing a chunk of
// the given class: imagette classes carry no per-field parameter block.
func headerSize(class ChunkClass) int {
	if class == ClassNCAMImagette || class == ClassSATImagette {
		return GenericHeaderSize
	}

	return ChunkHeaderSize
}

// PutEntityHeader writes h into buf and returns the number of bytes
// written. buf must be at least headerSize(class) bytes, or
// GenericHeaderSize bytes when h.RawBit is set (a raw header carries no
// parameter block).
func PutEntityHeader(buf []byte, h EntityHeader, class ChunkClass) (int, error) {
	size := headerSize(class)
	if h.RawBit {
		size = GenericHeaderSize
	}

	if len(buf) < size {
		return 0, wrap(EntityTooSmall, ErrEntityTooSmall)
	}

	binary.BigEndian.PutUint32(buf[offVersionID:], h.VersionID)
	binary.BigEndian.PutUint32(buf[offEntitySize:], h.EntitySize)
	binary.BigEndian.PutUint32(buf[offOriginalSize:], h.OriginalSize)
	putUint48(buf[offStartTimestamp:], h.StartTimestamp)
	putUint48(buf[offEndTimestamp:], h.EndTimestamp)
	buf[offDataType] = byte(h.DataType)

	if h.RawBit {
		buf[offRawBit] = 1
	} else {
		buf[offRawBit] = 0
	}

	buf[offCmpMode] = byte(h.CmpMode)
	buf[offModelValue] = h.ModelValue
	buf[offLossyRound] = h.LossyRound
	buf[offReserved1] = 0
	binary.BigEndian.PutUint16(buf[offModelID:], h.ModelID)
	binary.BigEndian.PutUint16(buf[offModelCounter:], h.ModelCounter)
	binary.BigEndian.PutUint16(buf[offReserved2:], 0)

	if !h.RawBit {
		binary.BigEndian.PutUint32(buf[offParam0M:], h.Params[0].M)
		binary.BigEndian.PutUint32(buf[offParam0S:], h.Params[0].S)
	}

	if size == ChunkHeaderSize {
		off := offParamBlock
		for _, p := range h.Params[1:] {
			binary.BigEndian.PutUint32(buf[off:], p.M)
			binary.BigEndian.PutUint32(buf[off+4:], p.S)
			off += 8
		}
	}

	return size, nil
}

// ParseEntityHeader reads an EntityHeader from buf, inferring whether the
// per-field parameter block is present from the data_type field, and
// returns the header's on-wire size alongside it.
func ParseEntityHeader(buf []byte) (EntityHeader, int, error) {
	if len(buf) < GenericHeaderSize {
		return EntityHeader{}, 0, wrap(EntityTooSmall, ErrEntityTooSmall)
	}

	h := EntityHeader{
		VersionID:      binary.BigEndian.Uint32(buf[offVersionID:]),
		EntitySize:     binary.BigEndian.Uint32(buf[offEntitySize:]),
		OriginalSize:   binary.BigEndian.Uint32(buf[offOriginalSize:]),
		StartTimestamp: getUint48(buf[offStartTimestamp:]),
		EndTimestamp:   getUint48(buf[offEndTimestamp:]),
		DataType:       DataType(buf[offDataType]),
		RawBit:         buf[offRawBit] != 0,
		CmpMode:        Mode(buf[offCmpMode]),
		ModelValue:     buf[offModelValue],
		LossyRound:     buf[offLossyRound],
		ModelID:        binary.BigEndian.Uint16(buf[offModelID:]),
		ModelCounter:   binary.BigEndian.Uint16(buf[offModelCounter:]),
	}

	if h.EndTimestamp < h.StartTimestamp {
		return EntityHeader{}, 0, wrap(EntityTimestamp, ErrEntityTimestamp)
	}

	if !h.RawBit {
		h.Params[0] = FieldParams{
			M: binary.BigEndian.Uint32(buf[offParam0M:]),
			S: binary.BigEndian.Uint32(buf[offParam0S:]),
		}
	}

	size := GenericHeaderSize

	imagette := h.DataType == DataTypeNCAMImagette || h.DataType == DataTypeSATImagette
	if !imagette && !h.RawBit {
		if len(buf) < ChunkHeaderSize {
			return EntityHeader{}, 0, wrap(EntityTooSmall, ErrEntityTooSmall)
		}

		off := offParamBlock
		for i := 1; i < len(h.Params); i++ {
			h.Params[i] = FieldParams{
				M: binary.BigEndian.Uint32(buf[off:]),
				S: binary.BigEndian.Uint32(buf[off+4:]),
			}
			off += 8
		}

		size = ChunkHeaderSize
	}

	return h, size, nil
}

// SetModelIDAndCounter is the only post-hoc mutation of a finalized
// entity: it locates model_id/model_counter by fixed offset and rewrites
// them in place.
func SetModelIDAndCounter(entity []byte, modelID, modelCounter uint16) error {
	if len(entity) < GenericHeaderSize {
		return wrap(EntityTooSmall, ErrEntityTooSmall)
	}

	binary.BigEndian.PutUint16(entity[offModelID:], modelID)
	binary.BigEndian.PutUint16(entity[offModelCounter:], modelCounter)

	return nil
}

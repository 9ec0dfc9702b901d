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

import "github.com/plato-rdcu/cmp/internal/cmpbits"

// Chunk framer (G): CompressChunk/DecompressCmpEntity are the module's two
// exported entry points, mirroring the teacher's exported NewDecoder/
// DecodePacket surface — plain functions over caller-owned buffers, no
// internal state, no logging (spec.md §1's Non-goal).

// CmpEntityMaxOriginalSize bounds the original chunk size CompressChunk
// accepts (spec.md §4.6's input validation). Chosen to keep every size
// field and codeword-count computation representable in a uint32 with
// ample headroom for the framer's own overhead.
const CmpEntityMaxOriginalSize = 1 << 24

// collectionFramingOverhead is the worst-case per-collection bytes a
// compressed chunk adds beyond the original data: the 2-byte length
// prefix (the 12-byte header is already counted in the original chunk).
const collectionFramingOverhead = 2

// minCollectionSize is the smallest legal collection: a 12-byte header
// plus one 1-byte record.
const minCollectionSize = cmpbits.CollectionHeaderSize + 1

// CompressChunkCmpSizeBound returns a safe upper bound on the entity size
// CompressChunk can produce for a chunk of chunkLen bytes, for callers
// that need to size an output buffer before compressing (the Go analogue
// of a C API's cmp_cal_size / "give me a bound" call).
func CompressChunkCmpSizeBound(chunkLen int) int {
	maxCollections := chunkLen/minCollectionSize + 1

	return ChunkHeaderSize + chunkLen + maxCollections*collectionFramingOverhead
}

// CompressChunk compresses chunk (a sequence of raw collections — each a
// 12-byte header immediately followed by data_length bytes of big-endian
// records, tiling the buffer exactly) into out, using cfg for every
// collection's predictor/escape parameters. If cfg.Mode is Raw, the
// output is the chunk-level raw form (header plus the chunk copied
// verbatim); otherwise each collection is compressed independently with a
// per-collection raw fallback (spec.md §4.6).
//
// models is required, one FieldModels per collection in chunk order, iff
// cfg.Mode is a MODEL_* mode; the returned updatedModels has the same
// shape and holds the model recomputed after each record, for the caller
// to persist for the next chunk.
func CompressChunk(
	env Environment,
	cfg CompressionConfig,
	chunk []byte,
	models []FieldModels,
	out []byte,
) (int, []FieldModels, error) {
	if chunk == nil {
		return 0, nil, wrap(ChunkNull, ErrChunkNull)
	}

	if len(chunk) < cmpbits.CollectionHeaderSize {
		return 0, nil, wrap(ChunkTooSmall, ErrChunkTooSmall)
	}

	if len(chunk) > CmpEntityMaxOriginalSize {
		return 0, nil, wrap(ChunkTooLarge, ErrChunkTooLarge)
	}

	if err := cfg.Validate(); err != nil {
		return 0, nil, err
	}

	spans, err := cmpbits.ScanCollections(chunk)
	if err != nil {
		return 0, nil, wrap(ChunkSizeInconsistent, err)
	}

	class, layouts, err := classifySpans(spans)
	if err != nil {
		return 0, nil, err
	}

	if cfg.Mode == Raw {
		return compressChunkRaw(env, class, chunk, out)
	}

	return compressChunkFramed(env, cfg, class, chunk, spans, layouts, models, out)
}

// classifySpans resolves each span's layout and checks every collection
// shares one chunk class, per spec.md §4.6's "all collections in a chunk
// share the same chunk class".
func classifySpans(spans []cmpbits.CollectionSpan) (ChunkClass, []RecordLayout, error) {
	layouts := make([]RecordLayout, len(spans))

	var class ChunkClass

	for i, span := range spans {
		layout, err := LookupLayout(Subservice(span.Header.Subservice))
		if err != nil {
			return 0, nil, err
		}

		if layout.SampleSize() != int(span.Header.SampleSize) {
			return 0, nil, wrap(ColSizeInconsistent, ErrColSizeInconsistent)
		}

		if i == 0 {
			class = layout.Class
		} else if layout.Class != class {
			return 0, nil, wrap(ChunkSubserviceInconsistent, ErrChunkSubserviceInconsistent)
		}

		layouts[i] = layout
	}

	return class, layouts, nil
}

func compressChunkRaw(env Environment, class ChunkClass, chunk []byte, out []byte) (int, []FieldModels, error) {
	entitySize := GenericHeaderSize + len(chunk)
	if len(out) < entitySize {
		return 0, nil, wrap(SmallBuf, cmpbits.ErrSmallBuf)
	}

	start := env.timestamp48()

	header := EntityHeader{
		VersionID:      env.VersionID,
		EntitySize:     uint32(entitySize),
		OriginalSize:   uint32(len(chunk)),
		StartTimestamp: start,
		EndTimestamp:   env.timestamp48(),
		DataType:       dataTypeForClass(class),
		RawBit:         true,
		CmpMode:        Raw,
	}

	if _, err := PutEntityHeader(out, header, class); err != nil {
		return 0, nil, err
	}

	copy(out[GenericHeaderSize:entitySize], chunk)

	return entitySize, nil, nil
}

func compressChunkFramed(
	env Environment,
	cfg CompressionConfig,
	class ChunkClass,
	chunk []byte,
	spans []cmpbits.CollectionSpan,
	layouts []RecordLayout,
	models []FieldModels,
	out []byte,
) (int, []FieldModels, error) {
	hdrSize := headerSize(class)

	start := env.timestamp48()

	header := EntityHeader{
		VersionID:      env.VersionID,
		OriginalSize:   uint32(len(chunk)),
		StartTimestamp: start,
		DataType:       dataTypeForClass(class),
		CmpMode:        cfg.Mode,
		ModelValue:     cfg.Mu,
		LossyRound:     cfg.R,
		Params:         cfg.Params,
	}

	if _, err := PutEntityHeader(out, header, class); err != nil {
		return 0, nil, err
	}

	useModel := modelModeIsUsed(cfg.Mode)
	if useModel && len(models) != len(spans) {
		return 0, nil, wrap(ParNull, ErrParNull)
	}

	var updatedModels []FieldModels
	if useModel {
		updatedModels = make([]FieldModels, len(spans))
	}

	offset := hdrSize

	for i, span := range spans {
		layout := layouts[i]
		numRecords := int(span.Header.DataLength) / int(span.Header.SampleSize)
		records := readRecordsRaw(chunk[span.DataOffset:span.DataOffset+int(span.Header.DataLength)], layout, numRecords)

		var modelsForCol, updModelsForCol FieldModels
		if useModel {
			modelsForCol = models[i]
			updModelsForCol = newFieldModels(len(layout.Fields), numRecords)
			updatedModels[i] = updModelsForCol
		}

		newOffset, _, err := compressOneCollection(out, offset, span.Header, layout, cfg, records, modelsForCol, updModelsForCol)
		if err != nil {
			return 0, nil, err
		}

		offset = newOffset
	}

	header.EntitySize = uint32(offset)
	header.EndTimestamp = env.timestamp48()

	if _, err := PutEntityHeader(out, header, class); err != nil {
		return 0, nil, err
	}

	return offset, updatedModels, nil
}

// CompressChunkSetModelIDAndCounter finalizes a compressed entity's
// model_id/model_counter fields — the only post-hoc mutation spec.md
// allows, used once the caller has assigned these from its own model
// bookkeeping.
func CompressChunkSetModelIDAndCounter(entity []byte, modelID, modelCounter uint16) error {
	return SetModelIDAndCounter(entity, modelID, modelCounter)
}

// DecompressCmpEntity reconstructs the original raw chunk bytes from a
// compressed entity, the exact inverse of CompressChunk. models/
// updatedModels follow the same per-collection, MODEL_*-mode-only
// convention as CompressChunk.
func DecompressCmpEntity(entity []byte, models []FieldModels) ([]byte, []FieldModels, error) {
	if entity == nil {
		return nil, nil, wrap(EntityNull, ErrEntityNull)
	}

	if len(entity) < GenericHeaderSize {
		return nil, nil, wrap(EntityTooSmall, ErrEntityTooSmall)
	}

	header, hdrSize, err := ParseEntityHeader(entity)
	if err != nil {
		return nil, nil, err
	}

	if header.OriginalSize > CmpEntityMaxOriginalSize {
		return nil, nil, wrap(ChunkTooLarge, ErrChunkTooLarge)
	}

	if header.RawBit {
		chunk := make([]byte, header.OriginalSize)
		if hdrSize+len(chunk) > len(entity) {
			return nil, nil, wrap(EntityTooSmall, ErrEntityTooSmall)
		}

		copy(chunk, entity[hdrSize:hdrSize+len(chunk)])

		return chunk, nil, nil
	}

	cfg := CompressionConfig{Mode: header.CmpMode, Mu: header.ModelValue, R: header.LossyRound, Params: header.Params}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	chunk := make([]byte, header.OriginalSize)

	useModel := modelModeIsUsed(cfg.Mode)

	var updatedModels []FieldModels

	offset := hdrSize
	chunkOffset := 0

	for i := 0; offset < len(entity); i++ {
		var modelsForCol FieldModels
		if useModel {
			if i >= len(models) {
				return nil, nil, wrap(ParNull, ErrParNull)
			}

			modelsForCol = models[i]
		}

		newOffset, colHeader, layout, records, updModelsForCol, err := decompressOneCollection(entity, offset, modelsForCol, cfg)
		if err != nil {
			return nil, nil, err
		}

		if useModel {
			updatedModels = append(updatedModels, updModelsForCol)
		}

		if chunkOffset+cmpbits.CollectionHeaderSize > len(chunk) {
			return nil, nil, wrap(EntityHeaderMalformed, ErrEntityHeader)
		}

		if err := cmpbits.PutCollectionHeader(chunk[chunkOffset:], colHeader); err != nil {
			return nil, nil, wrap(EntityHeaderMalformed, err)
		}

		chunkOffset += cmpbits.CollectionHeaderSize
		dataLen := int(colHeader.DataLength)

		if chunkOffset+dataLen > len(chunk) {
			return nil, nil, wrap(EntityHeaderMalformed, ErrEntityHeader)
		}

		writeRecordsRaw(chunk[chunkOffset:chunkOffset+dataLen], layout, records)
		chunkOffset += dataLen
		offset = newOffset
	}

	if chunkOffset != len(chunk) {
		return nil, nil, wrap(ChunkSizeInconsistent, ErrChunkSizeInconsistent)
	}

	return chunk, updatedModels, nil
}

// newFieldModels allocates a FieldModels of numFields × numRecords,
// zero-initialized.
func newFieldModels(numFields, numRecords int) FieldModels {
	m := make(FieldModels, numFields)
	for i := range m {
		m[i] = make([]uint32, numRecords)
	}

	return m
}

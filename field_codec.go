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

// Per-field codec (E): drives one field sample through D (predictor),
// C (escape), B (prefix codeword) and A (bit I/O), then the record ×
// field × codeword loop across a whole collection's records.
//
// This replaces the teacher's element-tag dispatch loop
// (decoder.go's decodePacketInto/decodeSCE/decodeCPE, a switch over
// SCE/CPE/CCE/DSE/END tags) with a single generic loop driven by the
// registry's field descriptors — the "polymorphism over record variants"
// shape the teacher expresses as a type switch, expressed here as a
// table walk instead, since record layouts are homogeneous arrays rather
// than a handful of fixed element kinds.

// effectiveSpill resolves the spill threshold a caller left at its zero
// value to max_spill(m) for the field's own width, per spec.md §6. A
// nonzero S is returned unchanged.
func effectiveSpill(m, s uint32, width uint) uint32 {
	if s == 0 {
		return cmpbits.MaxSpill(m, width)
	}

	return s
}

func compressField(w *cmpbits.BitWriter, data, model uint32, cfg CompressionConfig, paramKey int, width uint) error {
	folded, err := cmpbits.ForwardResidual(data, model, uint(cfg.R), width)
	if err != nil {
		return wrap(DataValueTooLarge, cmpbits.ErrValueTooLarge)
	}

	params := cfg.Params[paramKey]
	spill := effectiveSpill(params.M, params.S, width)

	if multiEscapeMechIsUsed(cfg.Mode) {
		err = cmpbits.EncodeMultiEscape(w, folded, params.M, spill, width)
	} else {
		err = cmpbits.EncodeZeroEscape(w, folded, params.M, spill, width)
	}

	if err != nil {
		return wrap(SmallBuf, cmpbits.ErrSmallBuf)
	}

	return nil
}

func decompressField(r *cmpbits.BitReader, model uint32, cfg CompressionConfig, paramKey int, width uint) (uint32, error) {
	params := cfg.Params[paramKey]
	spill := effectiveSpill(params.M, params.S, width)

	var (
		folded uint32
		err    error
	)

	if multiEscapeMechIsUsed(cfg.Mode) {
		folded, err = cmpbits.DecodeMultiEscape(r, params.M, spill, width)
	} else {
		folded, err = cmpbits.DecodeZeroEscape(r, params.M, spill, width)
	}

	if err != nil {
		return 0, wrap(CorruptionDetected, cmpbits.ErrCorruption)
	}

	return cmpbits.InverseResidual(folded, model, uint(cfg.R), width), nil
}

// modelUpdate computes the half-up-rounded model update at the width the
// field actually uses: fields of 16 bits or narrower take the 16-bit
// accumulator, wider fields (fx, ncob, efx, ecob, the variance fields)
// take the 32-bit one.
func modelUpdate(width uint, data, modelOld uint32, mu uint8) uint32 {
	if width <= 16 {
		return cmpbits.ModelUpdate16(data, modelOld, uint32(mu))
	}

	return uint32(cmpbits.ModelUpdate32(uint64(data), uint64(modelOld), uint32(mu)))
}

// FieldModels holds, for each field, one model value per record, indexed
// [field][record]. Only
// meaningful for the MODEL_* modes; DIFF_* modes derive their reference
// value from the previous record instead and ignore this entirely.
type FieldModels [][]uint32

// CompressRecords writes N records of layout.Fields-shaped data through
// the per-field codec, in record × field × codeword order. records has
// one entry per record, each holding len(layout.Fields) values in
// declaration order. models is required (and indexed [field][record]) iff
// the mode is a MODEL_* mode; updatedModels, if non-nil, receives the
// recomputed model for each field/record under the same indexing.
func CompressRecords(
	w *cmpbits.BitWriter,
	layout RecordLayout,
	cfg CompressionConfig,
	records [][]uint32,
	models FieldModels,
	updatedModels FieldModels,
) error {
	useModel := modelModeIsUsed(cfg.Mode)

	for k, rec := range records {
		for fi, fd := range layout.Fields {
			data := rec[fi]

			model := referenceModel(useModel, models, records, fi, k)

			if err := compressField(w, data, model, cfg, fd.ParamKey, fd.MaxBits); err != nil {
				return err
			}

			if useModel && updatedModels != nil {
				updatedModels[fi][k] = modelUpdate(fd.MaxBits, data, model, cfg.Mu)
			}
		}
	}

	return nil
}

// DecompressRecords reads N records back from r, the exact inverse of
// CompressRecords. numRecords must equal the collection's record count
// (data_length / sample_size from the collection header).
func DecompressRecords(
	r *cmpbits.BitReader,
	layout RecordLayout,
	cfg CompressionConfig,
	numRecords int,
	models FieldModels,
	updatedModels FieldModels,
) ([][]uint32, error) {
	useModel := modelModeIsUsed(cfg.Mode)
	records := make([][]uint32, numRecords)

	for k := range records {
		records[k] = make([]uint32, len(layout.Fields))

		for fi, fd := range layout.Fields {
			model := referenceModel(useModel, models, records, fi, k)

			data, err := decompressField(r, model, cfg, fd.ParamKey, fd.MaxBits)
			if err != nil {
				return nil, err
			}

			records[k][fi] = data

			if useModel && updatedModels != nil {
				updatedModels[fi][k] = modelUpdate(fd.MaxBits, data, model, cfg.Mu)
			}
		}
	}

	return records, nil
}

// referenceModel resolves the reference value D subtracts for field fi of
// record k: the caller-supplied model under a MODEL_* mode, the previous
// record's value under a DIFF_* mode, or 0 for the first record.
func referenceModel(useModel bool, models FieldModels, records [][]uint32, fi, k int) uint32 {
	if useModel {
		return models[fi][k]
	}

	if k == 0 {
		return 0
	}

	return records[k-1][fi]
}

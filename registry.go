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

// ChunkClass identifies which family of collections may share one chunk
// (spec.md §3: "Mixing classes fails").
type ChunkClass uint8

// The chunk classes spec.md names.
const (
	ClassShortCadence ChunkClass = iota + 1
	ClassLongCadence
	ClassOffsetBackground
	ClassSmearing
	ClassNCAMImagette
	ClassSATImagette
	ClassFChain
)

// Subservice codes. Values are wire-stable; this is the one place a code
// is assigned, for both compress and decompress (resolves the F_FX*
// asymmetry Open Question — SPEC_FULL.md §9.3).
const (
	SubserviceImagette Subservice = iota + 1
	SubserviceSFx
	SubserviceSFxEfxNcobEcob
	SubserviceSFxNcobVariance
	SubserviceLFx
	SubserviceLFxEfxNcobEcob
	SubserviceLFxNcobVariance
	SubserviceFFx
	SubserviceFFxEfxNcobEcob
	SubserviceOffset
	SubserviceBackground
	SubserviceSmearing
)

// Subservice identifies the record layout carried by one collection.
type Subservice uint8

// FieldDescriptor is one (field_name, max_bits, parameter_key) tuple from
// spec.md §4.5. Its storage width (SPEC_FULL.md §3) is not stored; it is
// derived from MaxBits by StorageBytes.
type FieldDescriptor struct {
	Name     string
	MaxBits  uint
	ParamKey int
}

// StorageBytes returns the field's physical storage width.
func (f FieldDescriptor) StorageBytes() int {
	return cmpbits.BytesForWidth(f.MaxBits)
}

// RecordLayout describes one subservice's record shape: an ordered field
// list and the chunk class its collections belong to.
type RecordLayout struct {
	Subservice Subservice
	Class      ChunkClass
	Fields     []FieldDescriptor
}

// SampleSize is the byte size of one record under this layout — the
// collection header's sample_size field must equal this.
func (l RecordLayout) SampleSize() int {
	n := 0
	for _, f := range l.Fields {
		n += f.StorageBytes()
	}

	return n
}

//nolint:gochecknoglobals // static registry, read-only after init.
var registry = map[Subservice]RecordLayout{
	SubserviceImagette: {
		Subservice: SubserviceImagette,
		Class:      ClassNCAMImagette,
		Fields: []FieldDescriptor{
			{Name: "pixel", MaxBits: 16, ParamKey: 0},
		},
	},
	SubserviceSFx: {
		Subservice: SubserviceSFx,
		Class:      ClassShortCadence,
		Fields:     sFxFields(),
	},
	SubserviceSFxEfxNcobEcob: {
		Subservice: SubserviceSFxEfxNcobEcob,
		Class:      ClassShortCadence,
		Fields:     sFxEfxNcobEcobFields(),
	},
	SubserviceSFxNcobVariance: {
		Subservice: SubserviceSFxNcobVariance,
		Class:      ClassShortCadence,
		Fields:     sFxNcobVarianceFields(),
	},
	SubserviceLFx: {
		Subservice: SubserviceLFx,
		Class:      ClassLongCadence,
		Fields:     sFxFields(),
	},
	SubserviceLFxEfxNcobEcob: {
		Subservice: SubserviceLFxEfxNcobEcob,
		Class:      ClassLongCadence,
		Fields:     sFxEfxNcobEcobFields(),
	},
	SubserviceLFxNcobVariance: {
		Subservice: SubserviceLFxNcobVariance,
		Class:      ClassLongCadence,
		Fields:     sFxNcobVarianceFields(),
	},
	SubserviceFFx: {
		Subservice: SubserviceFFx,
		Class:      ClassFChain,
		Fields:     sFxFields(),
	},
	SubserviceFFxEfxNcobEcob: {
		Subservice: SubserviceFFxEfxNcobEcob,
		Class:      ClassFChain,
		Fields:     sFxEfxNcobEcobFields(),
	},
	SubserviceOffset: {
		Subservice: SubserviceOffset,
		Class:      ClassOffsetBackground,
		Fields: []FieldDescriptor{
			{Name: "mean", MaxBits: 16, ParamKey: 0},
			{Name: "variance", MaxBits: 16, ParamKey: 1},
		},
	},
	SubserviceBackground: {
		Subservice: SubserviceBackground,
		Class:      ClassOffsetBackground,
		Fields: []FieldDescriptor{
			{Name: "mean", MaxBits: 16, ParamKey: 0},
			{Name: "variance", MaxBits: 16, ParamKey: 1},
			{Name: "outlierPixels", MaxBits: 8, ParamKey: 2},
		},
	},
	SubserviceSmearing: {
		Subservice: SubserviceSmearing,
		Class:      ClassSmearing,
		Fields: []FieldDescriptor{
			{Name: "mean", MaxBits: 16, ParamKey: 0},
			{Name: "varianceMean", MaxBits: 16, ParamKey: 1},
			{Name: "outlierPixels", MaxBits: 8, ParamKey: 2},
		},
	},
}

func sFxFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "expFlags", MaxBits: 8, ParamKey: 0},
		{Name: "fx", MaxBits: 32, ParamKey: 1},
	}
}

func sFxEfxNcobEcobFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "expFlags", MaxBits: 8, ParamKey: 0},
		{Name: "fx", MaxBits: 32, ParamKey: 1},
		{Name: "ncobX", MaxBits: 32, ParamKey: 2},
		{Name: "ncobY", MaxBits: 32, ParamKey: 2},
		{Name: "efx", MaxBits: 32, ParamKey: 3},
		{Name: "ecobX", MaxBits: 32, ParamKey: 4},
		{Name: "ecobY", MaxBits: 32, ParamKey: 4},
	}
}

func sFxNcobVarianceFields() []FieldDescriptor {
	fields := sFxEfxNcobEcobFields()

	return append(fields,
		FieldDescriptor{Name: "fxVariance", MaxBits: 32, ParamKey: 5},
		FieldDescriptor{Name: "cobXVariance", MaxBits: 32, ParamKey: 5},
		FieldDescriptor{Name: "cobYVariance", MaxBits: 32, ParamKey: 5},
	)
}

// LookupLayout returns the registered layout for a subservice code. The
// same table serves both compress and decompress, so a code absent here
// is rejected identically by both directions.
func LookupLayout(sub Subservice) (RecordLayout, error) {
	layout, ok := registry[sub]
	if !ok {
		return RecordLayout{}, wrap(ColSubserviceUnsupported, ErrColSubserviceUnsupported)
	}

	if layout.SampleSize() == 0 {
		return RecordLayout{}, wrap(ColSubserviceUnsupported, ErrColSubserviceUnsupported)
	}

	return layout, nil
}

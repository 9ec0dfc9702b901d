package cmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeString(t *testing.T) {
	assert.Equal(t, "RAW", Raw.String())
	assert.Equal(t, "MODEL_MULTI", ModelMulti.String())
	assert.Equal(t, "UNKNOWN", Mode(99).String())
}

func TestModelModeIsUsed(t *testing.T) {
	assert.False(t, modelModeIsUsed(Raw))
	assert.False(t, modelModeIsUsed(DiffZero))
	assert.False(t, modelModeIsUsed(DiffMulti))
	assert.True(t, modelModeIsUsed(ModelZero))
	assert.True(t, modelModeIsUsed(ModelMulti))
}

func TestMultiEscapeMechIsUsed(t *testing.T) {
	assert.False(t, multiEscapeMechIsUsed(DiffZero))
	assert.True(t, multiEscapeMechIsUsed(DiffMulti))
	assert.False(t, multiEscapeMechIsUsed(ModelZero))
	assert.True(t, multiEscapeMechIsUsed(ModelMulti))
}

func validParams() [MaxParamKeys]FieldParams {
	var p [MaxParamKeys]FieldParams
	for i := range p {
		p[i] = FieldParams{M: 4, S: 100}
	}

	return p
}

func TestCompressionConfigValidate(t *testing.T) {
	cfg := CompressionConfig{Mode: DiffZero, Mu: 16, R: 2, Params: validParams()}
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.Mu = 17
	assert.ErrorIs(t, bad.Validate(), ErrParSpecific)

	bad = cfg
	bad.R = 3
	assert.ErrorIs(t, bad.Validate(), ErrParSpecific)

	bad = cfg
	bad.Params[0].M = 0
	assert.ErrorIs(t, bad.Validate(), ErrParSpecific)

	bad = cfg
	bad.Params[2].M = 1 << 17
	assert.ErrorIs(t, bad.Validate(), ErrParSpecific)
}

func TestCompressionConfigValidateRawIgnoresParams(t *testing.T) {
	cfg := CompressionConfig{Mode: Raw, Mu: 0, R: 0}
	assert.NoError(t, cfg.Validate())
}

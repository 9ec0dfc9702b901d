package cmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitEnvironmentRejectsNilTimestamp(t *testing.T) {
	_, err := InitEnvironment(nil, 1)
	assert.ErrorIs(t, err, ErrParNull)
}

func TestInitEnvironmentOK(t *testing.T) {
	env, err := InitEnvironment(func() uint64 { return 42 }, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), env.VersionID)
	assert.Equal(t, uint64(42), env.Timestamp())
}

func TestTimestamp48Masks(t *testing.T) {
	env, err := InitEnvironment(func() uint64 { return 1 << 50 }, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), env.timestamp48())
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLaneID(t *testing.T) {
	lane, err := ParseLaneID("00000001")
	require.NoError(t, err)
	assert.Equal(t, LaneID{0, 0, 0, 1}, lane)
	assert.Equal(t, "00000001", lane.String())

	_, err = ParseLaneID("0001")
	require.Error(t, err)
	_, err = ParseLaneID("zzzzzzzz")
	require.Error(t, err)
}

func TestNonceRange(t *testing.T) {
	r := NewNonceRange(3, 7)
	assert.False(t, r.IsEmpty())
	assert.Equal(t, uint64(5), r.Len())
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(8))
	assert.Equal(t, "3..=7", r.String())

	empty := NewNonceRange(5, 4)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, uint64(0), empty.Len())
}

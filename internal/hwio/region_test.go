package hwio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegionRejectsTinyBacking(t *testing.T) {
	_, err := NewRegion(nil)
	assert.Error(t, err)
	_, err = NewRegion(make([]byte, 3))
	assert.Error(t, err)
}

func TestWriteThenReadReturnsWrittenValue(t *testing.T) {
	r, err := NewRegion(make([]byte, 0x200))
	require.NoError(t, err)

	offsets := []uint32{0x000, 0x004, 0x008, 0x00C, 0x11C, 0x120, 0x128}
	for i, off := range offsets {
		want := uint32(0xA0000000 + i)
		r.Write32(off, want)
		assert.Equal(t, want, r.Read32(off), "offset %#x", off)
	}
}

func TestNeighboringRegistersAreIndependent(t *testing.T) {
	r, err := NewRegion(make([]byte, 64))
	require.NoError(t, err)

	r.Write32(0, 0x11111111)
	r.Write32(4, 0x22222222)
	r.Write32(8, 0x33333333)

	r.Write32(4, 0xFFFFFFFF)
	assert.Equal(t, uint32(0x11111111), r.Read32(0))
	assert.Equal(t, uint32(0xFFFFFFFF), r.Read32(4))
	assert.Equal(t, uint32(0x33333333), r.Read32(8))
}

func TestUnalignedOffsetPanics(t *testing.T) {
	r, err := NewRegion(make([]byte, 64))
	require.NoError(t, err)
	assert.Panics(t, func() { r.Read32(2) })
	assert.Panics(t, func() { r.Write32(5, 1) })
}

func TestOutOfRangeOffsetPanics(t *testing.T) {
	r, err := NewRegion(make([]byte, 64))
	require.NoError(t, err)
	assert.Panics(t, func() { r.Read32(64) })
	assert.Panics(t, func() { r.Read32(0xFFFFFFFC) })
	// Last valid word is fine.
	r.Write32(60, 7)
	assert.Equal(t, uint32(7), r.Read32(60))
}

func TestSize(t *testing.T) {
	r, err := NewRegion(make([]byte, 0x10000))
	require.NoError(t, err)
	assert.Equal(t, 0x10000, r.Size())
}

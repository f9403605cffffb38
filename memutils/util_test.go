package memutils_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/immix/memutils"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(memutils.BlockSize, "BlockSize"))
	require.NoError(t, memutils.CheckPow2(memutils.AllocAlignment, "AllocAlignment"))
	require.NoError(t, memutils.CheckPow2(1, "one"))

	err := memutils.CheckPow2(96, "value")
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
	require.Equal(t, "value is 96: number must be a power of two", err.Error())

	require.ErrorIs(t, memutils.CheckPow2(0, "zero"), memutils.PowerOfTwoError)
}

func TestCheckRange(t *testing.T) {
	require.NoError(t, memutils.CheckRange(0, memutils.NumLinesPerBlock, "line"))
	require.NoError(t, memutils.CheckRange(memutils.NumLinesPerBlock-1, memutils.NumLinesPerBlock, "line"))
	require.ErrorIs(t, memutils.CheckRange(memutils.NumLinesPerBlock, memutils.NumLinesPerBlock, "line"), memutils.OutOfRangeError)
	require.ErrorIs(t, memutils.CheckRange(-1, memutils.NumLinesPerBlock, "line"), memutils.OutOfRangeError)
}

func TestAlign(t *testing.T) {
	require.Equal(t, 0, memutils.AlignUp(0, 16))
	require.Equal(t, 16, memutils.AlignUp(1, 16))
	require.Equal(t, 256, memutils.AlignUp(256, 16))
	require.Equal(t, 272, memutils.AlignUp(257, 16))
}

func TestGeometryConstants(t *testing.T) {
	require.Equal(t, 256, memutils.NumLinesPerBlock)
	require.Equal(t, memutils.BlockSize, memutils.NumLinesPerBlock*memutils.LineSize)
}

func TestAddress(t *testing.T) {
	base := memutils.Address(7 * memutils.BlockSize)

	require.Equal(t, base, base.BlockBase())
	require.Equal(t, base, base.Add(memutils.BlockSize-1).BlockBase())
	require.Equal(t, base.Add(memutils.BlockSize), base.Add(memutils.BlockSize).BlockBase())

	require.Equal(t, 0, base.BlockOffset())
	require.Equal(t, 1000, base.Add(1000).BlockOffset())
	require.Equal(t, 1000, base.Add(1000).Sub(base))

	require.Equal(t, base.Add(1008), base.Add(1000).AlignUp(16))
	require.Equal(t, base.Add(992), base.Add(1000).AlignDown(16))
}

package pool_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/immix/block"
	"github.com/vkngwrapper/immix/memutils"
	"github.com/vkngwrapper/immix/pool"
	"golang.org/x/exp/slog"
)

type fixedSizer int

func (s fixedSizer) ObjectSize(object memutils.Address) int { return int(s) }

func newPool(t *testing.T, blockCount int) *pool.Pool {
	p, err := pool.New(slog.New(slog.NewTextHandler(io.Discard)), pool.CreateOptions{BlockCount: blockCount})
	require.NoError(t, err)
	return p
}

func TestAcquireUntilExhausted(t *testing.T) {
	p := newPool(t, 4)
	require.Equal(t, 4, p.FreeBlockCount())

	var leases []*pool.Lease
	seen := map[memutils.Address]struct{}{}
	for i := 0; i < 4; i++ {
		lease, err := p.Acquire()
		require.NoError(t, err)

		b := lease.Block()
		require.Zero(t, b.Begin().BlockOffset())
		require.True(t, b.Allocated())
		require.True(t, b.IsEmpty())
		require.Equal(t, block.BlockStateAllocated, b.State())

		_, duplicate := seen[b.Begin()]
		require.False(t, duplicate)
		seen[b.Begin()] = struct{}{}

		if len(leases) > 0 {
			require.Equal(t, leases[len(leases)-1].Block().Begin().Add(memutils.BlockSize), b.Begin())
		}
		leases = append(leases, lease)
	}

	_, err := p.Acquire()
	require.Error(t, err)
	require.True(t, errors.Is(err, pool.ErrPoolExhausted))
	require.Equal(t, 4, p.BlockCount())
	require.NoError(t, p.Validate())

	for _, lease := range leases {
		require.NoError(t, p.Release(lease))
	}
	require.Equal(t, 4, p.FreeBlockCount())
	require.NoError(t, p.Validate())
	require.NoError(t, p.Destroy())
}

func TestReleaseResetsBlock(t *testing.T) {
	p := newPool(t, 1)

	lease, err := p.Acquire()
	require.NoError(t, err)

	b := lease.Block()
	b.LineObjectMark(b.Offset(10*memutils.LineSize), fixedSizer(300))
	b.CountHoles()
	b.SetEvacuationCandidate(true)

	require.NoError(t, p.Release(lease))
	require.True(t, lease.Released())
	require.Panics(t, func() { lease.Block() })

	require.True(t, b.IsEmpty())
	require.Equal(t, block.BlockStateFree, b.State())

	second, err := p.Acquire()
	require.NoError(t, err)
	require.Equal(t, b, second.Block())
	require.True(t, second.Block().IsEmpty())

	require.NoError(t, p.Release(second))
	require.NoError(t, p.Destroy())
}

func TestReleaseErrors(t *testing.T) {
	p := newPool(t, 1)
	other := newPool(t, 1)

	lease, err := p.Acquire()
	require.NoError(t, err)

	require.Error(t, other.Release(lease))
	require.NoError(t, p.Release(lease))
	require.Error(t, p.Release(lease))

	require.NoError(t, p.Destroy())
	require.NoError(t, other.Destroy())
}

func TestLookup(t *testing.T) {
	p := newPool(t, 2)

	lease, err := p.Acquire()
	require.NoError(t, err)
	b := lease.Block()

	header, ok := p.Lookup(b.Offset(5000))
	require.True(t, ok)
	require.Equal(t, b, header)

	header, ok = p.Lookup(b.Begin())
	require.True(t, ok)
	require.Equal(t, b, header)

	// The second block is still free
	_, ok = p.Lookup(b.Offset(memutils.BlockSize + 10))
	require.False(t, ok)

	_, ok = p.Lookup(b.Begin() - 1)
	require.False(t, ok)

	_, ok = p.Lookup(b.Offset(2 * memutils.BlockSize))
	require.False(t, ok)

	require.NoError(t, p.Release(lease))
	_, ok = p.Lookup(b.Offset(5000))
	require.False(t, ok)

	require.NoError(t, p.Destroy())
}

func TestRecycle(t *testing.T) {
	p := newPool(t, 3)

	var leases []*pool.Lease
	for i := 0; i < 3; i++ {
		lease, err := p.Acquire()
		require.NoError(t, err)
		leases = append(leases, lease)
	}

	require.NoError(t, p.Recycle(1))
	require.True(t, leases[1].Released())
	require.Equal(t, 2, p.BlockCount())
	require.Equal(t, leases[0].Block(), p.Block(0))
	require.Equal(t, leases[2].Block(), p.Block(1))

	require.Error(t, p.Recycle(2))
	require.Error(t, p.Release(leases[1]))

	require.NoError(t, p.Release(leases[0]))
	require.NoError(t, p.Release(leases[2]))
	require.NoError(t, p.Destroy())
}

func TestDestroyWithOutstandingLeases(t *testing.T) {
	var logs bytes.Buffer
	p, err := pool.New(slog.New(slog.NewTextHandler(&logs)), pool.CreateOptions{BlockCount: 2})
	require.NoError(t, err)

	lease, err := p.Acquire()
	require.NoError(t, err)

	require.Error(t, p.Destroy())
	require.Contains(t, logs.String(), "[UNRELEASED BLOCK]")
	require.Contains(t, logs.String(), fmt.Sprintf("%#x", uintptr(lease.Block().Begin())))

	require.NoError(t, p.Release(lease))
	require.NoError(t, p.Destroy())
	require.Error(t, p.Destroy())

	_, err = p.Acquire()
	require.Error(t, err)
}

func TestExternallySynchronized(t *testing.T) {
	p, err := pool.New(nil, pool.CreateOptions{
		Flags:      pool.CreateExternallySynchronized,
		BlockCount: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "CreateExternallySynchronized", pool.CreateExternallySynchronized.String())

	lease, err := p.Acquire()
	require.NoError(t, err)
	require.NoError(t, p.Release(lease))
	require.NoError(t, p.Destroy())
}

func TestInvalidBlockCount(t *testing.T) {
	_, err := pool.New(nil, pool.CreateOptions{BlockCount: -1})
	require.EqualError(t, err, "invalid block count: -1")
}

func TestDefaultBlockCount(t *testing.T) {
	p := newPool(t, 0)
	require.Equal(t, 64, p.FreeBlockCount())
	require.NoError(t, p.Destroy())
}

func TestStatisticsAndDetailedMap(t *testing.T) {
	p := newPool(t, 3)

	first, err := p.Acquire()
	require.NoError(t, err)
	second, err := p.Acquire()
	require.NoError(t, err)

	first.Block().LineObjectMark(first.Block().Offset(20*memutils.LineSize), fixedSizer(memutils.LineSize))
	first.Block().CountHoles()
	second.Block().CountHoles()

	var stats memutils.Statistics
	p.AddStatistics(&stats)
	require.Equal(t, memutils.Statistics{
		BlockCount:     2,
		HoleCount:      3,
		MarkedLines:    2,
		AvailableLines: 2*memutils.NumLinesPerBlock - 2,
	}, stats)

	var detailed memutils.DetailedStatistics
	detailed.Clear()
	p.AddDetailedStatistics(&detailed)
	require.Equal(t, 20*memutils.LineSize, detailed.HoleSizeMin)
	require.Equal(t, memutils.BlockSize, detailed.HoleSizeMax)

	writer := jwriter.NewWriter()
	p.PrintDetailedMap(&writer)
	require.NoError(t, writer.Error())

	var decoded struct {
		TotalBlocks int
		FreeBlocks  int
		Blocks      map[string]struct {
			State       string
			Holes       int
			MarkedLines int
		}
	}
	require.NoError(t, json.Unmarshal(writer.Bytes(), &decoded))
	require.Equal(t, 3, decoded.TotalBlocks)
	require.Equal(t, 1, decoded.FreeBlocks)
	require.Len(t, decoded.Blocks, 2)

	firstData := decoded.Blocks[fmt.Sprintf("%#x", uintptr(first.Block().Begin()))]
	require.Equal(t, "Swept", firstData.State)
	require.Equal(t, 2, firstData.Holes)
	require.Equal(t, 2, firstData.MarkedLines)

	require.NoError(t, p.Release(first))
	require.NoError(t, p.Release(second))
	require.NoError(t, p.Destroy())
}

func TestValidateDuringTrace(t *testing.T) {
	p := newPool(t, 2)

	lease, err := p.Acquire()
	require.NoError(t, err)
	b := lease.Block()

	require.Equal(t, 1, b.CountHoles())
	b.LineObjectMark(b.Offset(100*memutils.LineSize), fixedSizer(0))
	b.LineObjectMark(b.Offset(200*memutils.LineSize), fixedSizer(0))

	// Marks made since the last hole count leave the cached count stale
	require.Equal(t, 1, b.HoleCount())
	require.NoError(t, p.Validate())

	require.Equal(t, 3, b.CountHoles())
	require.NoError(t, p.Validate())

	require.NoError(t, p.Release(lease))
	require.NoError(t, p.Destroy())
}

package pool

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/immix/block"
	"github.com/vkngwrapper/immix/internal/utils"
	"github.com/vkngwrapper/immix/memutils"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// Lease is the ownership token for a block acquired from a Pool. Exactly one Lease exists for each
// block that is out of the pool, and the block may only be used through it until it is released.
type Lease struct {
	pool     *Pool
	block    *block.ImmixBlock
	released bool
}

// Block returns the leased block. It panics if the lease has already been released.
func (l *Lease) Block() *block.ImmixBlock {
	if l.released {
		panic("attempted to use a block lease after it was released")
	}
	return l.block
}

func (l *Lease) Released() bool { return l.released }

// Pool is a fixed reservation of BlockSize-aligned blocks. It is the block source for the immix
// allocator and collector: it hands out freshly reset blocks and takes reclaimed ones back.
type Pool struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	region     []byte
	begin      memutils.Address
	blockCount int

	free   []*block.ImmixBlock
	leased []*Lease
	leases *swiss.Map[memutils.Address, *Lease]
}

func (p *Pool) logBlock(level slog.Level, msg string, b *block.ImmixBlock, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("block.begin", fmt.Sprintf("%#x", uintptr(b.Begin()))))
	p.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Acquire takes a free block out of the pool and returns the lease that owns it. ErrPoolExhausted is
// returned when every block is leased.
func (p *Pool) Acquire() (*Lease, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.region == nil {
		return nil, errors.New("attempted to acquire a block from a destroyed pool")
	}

	if len(p.free) == 0 {
		return nil, errors.Wrapf(ErrPoolExhausted, "all %d blocks are leased", p.blockCount)
	}

	b := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	b.SetAllocated(true)

	lease := &Lease{pool: p, block: b}
	p.leased = append(p.leased, lease)
	p.leases.Put(b.Begin(), lease)

	p.logBlock(slog.LevelDebug, "Pool::Acquire", b, slog.Int("FreeBlocks", len(p.free)))
	return lease, nil
}

// Release resets a leased block and returns it to the pool. The lease may not be used afterwards.
func (p *Pool) Release(lease *Lease) error {
	return p.mutex.WithLock(func() error {
		return p.releaseLocked(lease)
	})
}

func (p *Pool) releaseLocked(lease *Lease) error {
	if lease.pool != p {
		return errors.New("attempted to release a lease that belongs to a different pool")
	}
	if lease.released {
		return errors.Newf("block %#x was already released", uintptr(lease.block.Begin()))
	}

	index := slices.Index(p.leased, lease)
	if index < 0 {
		return errors.Newf("block %#x is not leased from this pool", uintptr(lease.block.Begin()))
	}

	p.leased = slices.Delete(p.leased, index, index+1)
	p.leases.Delete(lease.block.Begin())

	lease.block.Reset()
	lease.released = true
	p.free = append(p.free, lease.block)

	p.logBlock(slog.LevelDebug, "Pool::Release", lease.block, slog.Int("FreeBlocks", len(p.free)))
	return nil
}

// Lookup returns the header of the leased block containing object. The second return value is false
// if object is outside the pool's reservation or the block containing it is not leased.
func (p *Pool) Lookup(object memutils.Address) (*block.ImmixBlock, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if object < p.begin || object >= p.begin.Add(p.blockCount*memutils.BlockSize) {
		return nil, false
	}

	header := block.HeaderOf(object)
	if !p.leases.Has(header.Begin()) {
		return nil, false
	}
	return header, true
}

// FreeBlockCount returns the number of blocks available to Acquire
func (p *Pool) FreeBlockCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.free)
}

// BlockCount returns the number of leased blocks
func (p *Pool) BlockCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.leased)
}

// Block returns the leased block at index, in the order the blocks were acquired
func (p *Pool) Block(index int) *block.ImmixBlock {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.leased[index].block
}

// Recycle releases the leased block at index on behalf of the collector. The lease that owned the
// block is invalidated, and every leased block after index moves down by one.
func (p *Pool) Recycle(index int) error {
	return p.mutex.WithLock(func() error {
		if index < 0 || index >= len(p.leased) {
			return errors.Newf("attempted to recycle block %d, but only %d blocks are leased", index, len(p.leased))
		}

		return p.releaseLocked(p.leased[index])
	})
}

// AddStatistics sums the line usage of every leased block into stats
func (p *Pool) AddStatistics(stats *memutils.Statistics) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, lease := range p.leased {
		lease.block.AddStatistics(stats)
	}
}

// AddDetailedStatistics sums the detailed line usage of every leased block into stats
func (p *Pool) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, lease := range p.leased {
		lease.block.AddDetailedStatistics(stats)
	}
}

// PrintDetailedMap writes a json object describing every leased block, keyed by block address
func (p *Pool) PrintDetailedMap(writer *jwriter.Writer) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	objState := writer.Object()
	defer objState.End()

	objState.Name("TotalBlocks").Int(p.blockCount)
	objState.Name("FreeBlocks").Int(len(p.free))

	blocksObj := objState.Name("Blocks").Object()
	defer blocksObj.End()

	for _, lease := range p.leased {
		blockObj := blocksObj.Name(fmt.Sprintf("%#x", uintptr(lease.block.Begin()))).Object()
		lease.block.BlockJsonData(blockObj)
		blockObj.End()
	}
}

// Validate checks every block in the pool for consistency
func (p *Pool) Validate() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.free)+len(p.leased) != p.blockCount {
		return errors.Newf("pool has %d blocks, but %d are free and %d are leased", p.blockCount, len(p.free), len(p.leased))
	}

	if p.leases.Count() != len(p.leased) {
		return errors.Newf("pool has %d leased blocks, but %d entries in its lease table", len(p.leased), p.leases.Count())
	}

	for _, b := range p.free {
		if b.Allocated() {
			return errors.Newf("block %#x is free but marked allocated", uintptr(b.Begin()))
		}
		err := b.Validate()
		if err != nil {
			return err
		}
	}

	for _, lease := range p.leased {
		if !lease.block.Allocated() {
			return errors.Newf("block %#x is leased but not marked allocated", uintptr(lease.block.Begin()))
		}
		err := lease.block.Validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// Destroy unmaps the pool's reservation. Every lease must be released first: outstanding leases are
// logged and cause an error to be returned without unmapping anything.
func (p *Pool) Destroy() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.region == nil {
		return errors.New("attempted to destroy a pool that was already destroyed")
	}

	if len(p.leased) > 0 {
		for _, lease := range p.leased {
			p.logBlock(slog.LevelError, "[UNRELEASED BLOCK] block still leased", lease.block,
				slog.String("state", lease.block.State().String()))
		}

		return errors.New("some blocks were not released before the destruction of this pool!")
	}

	err := unreserve(p.region)
	if err != nil {
		return err
	}

	p.region = nil
	p.free = nil
	return nil
}

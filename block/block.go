package block

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/immix/linemap"
	"github.com/vkngwrapper/immix/memutils"
)

//go:generate mockgen -destination=mocks/object_sizer.go -package=mock_block github.com/vkngwrapper/immix/block ObjectSizer

// ObjectSizer reports the size of live objects. It is provided by the consumer's object model
// and is the only thing the block needs to know about an object.
type ObjectSizer interface {
	// ObjectSize returns the size in bytes of the object beginning at object
	ObjectSize(object memutils.Address) int
}

// ImmixBlock is the header of a single immix block. It is placed at the very start of a
// BlockSize-aligned region and everything after it is the arena that objects are bump
// allocated into.
//
// The header contains no Go pointers: it lives in memory the Go garbage collector never sees.
type ImmixBlock struct {
	lineMap linemap.LineMap

	holeCount           uint32
	allocated           bool
	evacuationCandidate bool
	swept               bool
}

// Holes are separated by at least one marked line
const maxHoles = (memutils.NumLinesPerBlock + 1) / 2

// HeaderSize is the number of bytes at the start of every block occupied by its header
const HeaderSize = int(unsafe.Sizeof(ImmixBlock{}))

// New initializes an empty block header at the provided address, which must be aligned to BlockSize
func New(at unsafe.Pointer) *ImmixBlock {
	memutils.DebugCheckRange(memutils.AddressOf(at).BlockOffset(), 1, "block alignment offset")

	b := (*ImmixBlock)(at)
	b.Reset()
	return b
}

// HeaderOf returns the header of the block containing object. Blocks are BlockSize-aligned, so the
// header is found by rounding object down to the block boundary. No validation is performed: an
// address outside of any block produces a meaningless header.
func HeaderOf(object memutils.Address) *ImmixBlock {
	return (*ImmixBlock)(object.BlockBase().Pointer())
}

// ObjectToLineNum returns the index of the line containing object within its block
func ObjectToLineNum(object memutils.Address) int {
	return object.BlockOffset() / memutils.LineSize
}

func (b *ImmixBlock) Begin() memutils.Address {
	return memutils.AddressOf(unsafe.Pointer(b))
}

// Offset returns the address offset bytes into the block
func (b *ImmixBlock) Offset(offset int) memutils.Address {
	return b.Begin().Add(offset)
}

func (b *ImmixBlock) lineAddress(line int) memutils.Address {
	return b.Begin().Add(line * memutils.LineSize)
}

func (b *ImmixBlock) Allocated() bool { return b.allocated }

// SetAllocated records whether the block is currently owned by an allocator. Handing the block to an
// allocator discards the previous sweep state.
func (b *ImmixBlock) SetAllocated(allocated bool) {
	b.allocated = allocated
	b.swept = false
}

// HoleCount returns the hole count computed by the most recent call to CountHoles
func (b *ImmixBlock) HoleCount() int { return int(b.holeCount) }

func (b *ImmixBlock) EvacuationCandidate() bool { return b.evacuationCandidate }

func (b *ImmixBlock) SetEvacuationCandidate(candidate bool) {
	b.evacuationCandidate = candidate
}

// State reports where the block is in its lifecycle
func (b *ImmixBlock) State() BlockState {
	switch {
	case b.evacuationCandidate:
		return BlockStateEvacuationCandidate
	case !b.allocated:
		return BlockStateFree
	case b.swept:
		return BlockStateSwept
	default:
		return BlockStateAllocated
	}
}

// Reset returns the block to the empty state it is in when it sits in a free pool
func (b *ImmixBlock) Reset() {
	b.lineMap.ClearAll()
	b.allocated = false
	b.holeCount = 0
	b.evacuationCandidate = false
	b.swept = false
}

// IsInBlock returns true if the block is allocated and p lies within (Begin, Begin+BlockSize]
func (b *ImmixBlock) IsInBlock(p memutils.Address) bool {
	if !b.allocated {
		return false
	}

	begin := b.Begin()
	end := begin.Add(memutils.BlockSize)
	return begin < p && p <= end
}

// IsEmpty returns true if no line in the block is marked
func (b *ImmixBlock) IsEmpty() bool {
	return b.lineMap.IsEmpty()
}

func (b *ImmixBlock) LineIsMarked(line int) bool {
	memutils.DebugCheckRange(line, memutils.NumLinesPerBlock, "line")
	return b.lineMap.Test(b.lineAddress(line), b.Begin())
}

// VisitMarkedLines calls visitor with the start address of each marked line in the block, in ascending order
func (b *ImmixBlock) VisitMarkedLines(visitor func(line memutils.Address)) {
	begin := b.Begin()
	b.lineMap.VisitMarkedRange(begin, begin, begin.Add(memutils.BlockSize), visitor)
}

// VisitMarkedRange calls visitor with the start address of each marked line starting in [visitBegin, visitEnd)
func (b *ImmixBlock) VisitMarkedRange(visitBegin, visitEnd memutils.Address, visitor func(line memutils.Address)) {
	b.lineMap.VisitMarkedRange(b.Begin(), visitBegin, visitEnd, visitor)
}

// Validate checks the header for internal consistency
func (b *ImmixBlock) Validate() error {
	if b.Begin().BlockOffset() != 0 {
		return errors.Newf("block header at %#x is not aligned to the block size %d", uintptr(b.Begin()), memutils.BlockSize)
	}

	if !b.allocated {
		if !b.lineMap.IsEmpty() {
			return errors.New("block is free but has marked lines")
		}
		if b.evacuationCandidate {
			return errors.New("block is free but is marked as an evacuation candidate")
		}
		return nil
	}

	// The cached hole count goes stale as soon as lines are marked, so it can only be bounds checked
	if int(b.holeCount) > maxHoles {
		return errors.Newf("block has a cached hole count of %d, but can contain at most %d holes", b.holeCount, maxHoles)
	}

	return nil
}

package linemap

import (
	"math/bits"
	"sync/atomic"

	"github.com/vkngwrapper/immix/memutils"
)

const (
	bitsPerWord = 64
	// WordCount is the number of 64-bit words needed to hold one bit for every line in a block
	WordCount = (memutils.NumLinesPerBlock + bitsPerWord - 1) / bitsPerWord
	// bytesPerWord is the number of block bytes whose lines share one word of the map
	bytesPerWord = memutils.LineSize * bitsPerWord
)

// LineMap holds one mark bit for each line of a single block. Bit i is set iff line i is
// considered live.
//
// Set and Clear are atomic read-modify-write operations on the containing word, so any number of
// collector workers may mark lines of the same block at once. ClearAll is not atomic with respect
// to concurrent marking and must only be called by the block's current owner.
//
// The zero value is an empty map. It contains no pointers and may live in memory that the Go
// garbage collector does not scan.
type LineMap struct {
	bitmap [WordCount]atomic.Uint64
}

// OffsetToIndex returns the index of the word holding the bit for the line at offset
func OffsetToIndex(offset int) int {
	return offset / memutils.LineSize / bitsPerWord
}

// OffsetBitIndex returns which bit of its word holds the line at offset
func OffsetBitIndex(offset int) int {
	return (offset / memutils.LineSize) % bitsPerWord
}

// OffsetToMask returns the single-bit mask for the line at offset within its word
func OffsetToMask(offset int) uint64 {
	return uint64(1) << OffsetBitIndex(offset)
}

// IndexToOffset returns the block offset of the first line held by word index
func IndexToOffset(index int) int {
	return index * bytesPerWord
}

func (m *LineMap) ClearAll() {
	for i := range m.bitmap {
		m.bitmap[i].Store(0)
	}
}

func (m *LineMap) IsEmpty() bool {
	for i := range m.bitmap {
		if m.bitmap[i].Load() != 0 {
			return false
		}
	}
	return true
}

// CountMarked returns the number of marked lines
func (m *LineMap) CountMarked() int {
	count := 0
	for i := range m.bitmap {
		count += bits.OnesCount64(m.bitmap[i].Load())
	}
	return count
}

func blockOffset(object, blockBegin memutils.Address) int {
	offset := object.Sub(blockBegin)
	memutils.DebugCheckRange(offset, memutils.BlockSize, "line map offset")
	return offset
}

// Test returns true if the line containing object is marked. object must lie within the block that
// begins at blockBegin.
func (m *LineMap) Test(object, blockBegin memutils.Address) bool {
	offset := blockOffset(object, blockBegin)
	return m.bitmap[OffsetToIndex(offset)].Load()&OffsetToMask(offset) != 0
}

// Set marks the line containing object. It returns true if the line was previously unmarked.
func (m *LineMap) Set(object, blockBegin memutils.Address) bool {
	offset := blockOffset(object, blockBegin)
	mask := OffsetToMask(offset)
	entry := &m.bitmap[OffsetToIndex(offset)]

	if entry.Load()&mask != 0 {
		return false
	}
	return entry.Or(mask)&mask == 0
}

// Clear unmarks the line containing object. It returns true if the line was previously marked.
func (m *LineMap) Clear(object, blockBegin memutils.Address) bool {
	offset := blockOffset(object, blockBegin)
	mask := OffsetToMask(offset)
	entry := &m.bitmap[OffsetToIndex(offset)]

	if entry.Load()&mask == 0 {
		return false
	}
	return entry.And(^mask)&mask != 0
}

// VisitMarkedRange calls visitor with the start address of every marked line whose start lies in
// [visitBegin, visitEnd), in ascending order. visitBegin and visitEnd are addresses within the block
// beginning at blockBegin; visitEnd may also be the address one past the end of the block.
func (m *LineMap) VisitMarkedRange(blockBegin, visitBegin, visitEnd memutils.Address, visitor func(line memutils.Address)) {
	offsetStart := visitBegin.Sub(blockBegin)
	offsetEnd := visitEnd.Sub(blockBegin)
	memutils.DebugCheckRange(offsetStart, memutils.BlockSize+1, "visit begin offset")
	memutils.DebugCheckRange(offsetEnd, memutils.BlockSize+1, "visit end offset")

	// Round both edges up to a line start so only lines starting in range are visited
	lineStart := memutils.AlignUp(offsetStart, uint(memutils.LineSize))
	lineEnd := memutils.AlignUp(offsetEnd, uint(memutils.LineSize))
	if lineStart >= lineEnd {
		return
	}

	indexStart := OffsetToIndex(lineStart)
	indexEnd := OffsetToIndex(lineEnd)
	bitStart := OffsetBitIndex(lineStart)
	bitEnd := OffsetBitIndex(lineEnd)

	leftEdge := m.bitmap[indexStart].Load()
	leftEdge &^= (uint64(1) << bitStart) - 1

	var rightEdge uint64
	if indexStart < indexEnd {
		visitWord(blockBegin, indexStart, leftEdge, visitor)

		for i := indexStart + 1; i < indexEnd; i++ {
			visitWord(blockBegin, i, m.bitmap[i].Load(), visitor)
		}

		// indexEnd is one past the final word when the range runs to the end of the block
		if bitEnd != 0 {
			rightEdge = m.bitmap[indexEnd].Load()
		}
	} else {
		rightEdge = leftEdge
	}

	rightEdge &= (uint64(1) << bitEnd) - 1
	visitWord(blockBegin, indexEnd, rightEdge, visitor)
}

func visitWord(blockBegin memutils.Address, index int, word uint64, visitor func(line memutils.Address)) {
	if word == 0 {
		return
	}

	base := blockBegin.Add(IndexToOffset(index))
	for word != 0 {
		shift := bits.TrailingZeros64(word)
		visitor(base.Add(shift * memutils.LineSize))
		word &= word - 1
	}
}

package block

import "github.com/vkngwrapper/immix/memutils"

// MarkLinesForObject sets or clears the marks of every line covered by the object beginning at
// object, depending on mark. The object's extent is over-approximated by one line so that an object
// straddling a line boundary never leaves its tail unmarked; lines past the end of the block are
// ignored.
//
// Line marks are updated atomically, so several collector workers may mark objects within the same
// block at once.
func (b *ImmixBlock) MarkLinesForObject(object memutils.Address, sizes ObjectSizer, mark bool) {
	begin := b.Begin()
	memutils.DebugCheckRange(object.Sub(begin), memutils.BlockSize, "object offset")

	lineNum := ObjectToLineNum(object)
	size := sizes.ObjectSize(object)

	end := lineNum + size/memutils.LineSize + 1
	if end > memutils.NumLinesPerBlock {
		end = memutils.NumLinesPerBlock
	}

	for line := lineNum; line < end; line++ {
		if mark {
			b.lineMap.Set(b.lineAddress(line), begin)
		} else {
			b.lineMap.Clear(b.lineAddress(line), begin)
		}
	}
}

// LineObjectMark marks the lines covered by the object beginning at object
func (b *ImmixBlock) LineObjectMark(object memutils.Address, sizes ObjectSizer) {
	b.MarkLinesForObject(object, sizes, true)
}

// LineObjectUnmark clears the lines covered by the object beginning at object
func (b *ImmixBlock) LineObjectUnmark(object memutils.Address, sizes ObjectSizer) {
	b.MarkLinesForObject(object, sizes, false)
}

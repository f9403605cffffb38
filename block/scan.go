package block

import "github.com/vkngwrapper/immix/memutils"

// ScanBlock finds the next hole to bump allocate into, starting after lastHighOffset.
//
// The scan begins at the line after the one containing lastHighOffset, because an object that began
// in the previous hole may spill one line past its end without that line being marked. For the same
// reason the first unmarked line found is skipped. A hole that is left with no usable lines is passed
// over and the scan resumes beyond it.
//
// lowOffset and highOffset are the first and last usable byte offsets of the hole. found is false when
// the block has no holes left after lastHighOffset. Feeding each highOffset back in walks the block's
// holes in ascending order.
func (b *ImmixBlock) ScanBlock(lastHighOffset int) (lowOffset, highOffset int, found bool) {
	for {
		lastHighIndex := lastHighOffset / memutils.LineSize
		lowIndex := memutils.NumLinesPerBlock - 1

		for index := lastHighIndex + 1; index < memutils.NumLinesPerBlock; index++ {
			if !b.LineIsMarked(index) {
				lowIndex = index + 1
				break
			}
		}

		highIndex := memutils.NumLinesPerBlock
		for index := lowIndex; index < memutils.NumLinesPerBlock; index++ {
			if b.LineIsMarked(index) {
				highIndex = index
				break
			}
		}

		// The final line is excluded so a block ending in a single unmarked line cannot rescan forever
		if lowIndex == highIndex && highIndex != memutils.NumLinesPerBlock-1 {
			lastHighOffset = highIndex*memutils.LineSize - 1
			continue
		}

		if lowIndex < memutils.NumLinesPerBlock-1 {
			return memutils.AlignUp(lowIndex*memutils.LineSize, memutils.AllocAlignment), highIndex*memutils.LineSize - 1, true
		}

		return 0, 0, false
	}
}

func (b *ImmixBlock) countHoles() int {
	holes := 0
	inHole := false

	for line := 0; line < memutils.NumLinesPerBlock; line++ {
		if b.LineIsMarked(line) {
			inHole = false
		} else if !inHole {
			holes++
			inHole = true
		}
	}

	return holes
}

// CountHoles counts the runs of unmarked lines in the block and caches the result
func (b *ImmixBlock) CountHoles() int {
	holes := b.countHoles()
	b.holeCount = uint32(holes)
	b.swept = true
	return holes
}

// CountHolesAndMarkedLines returns the hole count cached by the last call to CountHoles along with
// the current number of marked lines.
func (b *ImmixBlock) CountHolesAndMarkedLines() (holes int, markedLines int) {
	return int(b.holeCount), b.lineMap.CountMarked()
}

// CountHolesAndAvailableLines returns the hole count cached by the last call to CountHoles along with
// the current number of unmarked lines.
func (b *ImmixBlock) CountHolesAndAvailableLines() (holes int, availableLines int) {
	return int(b.holeCount), memutils.NumLinesPerBlock - b.lineMap.CountMarked()
}

// VisitHoles calls visitor with the first and last byte offsets of every run of unmarked lines, in
// ascending order. Unlike ScanBlock, the runs are reported exactly with no conservative margin.
func (b *ImmixBlock) VisitHoles(visitor func(lowOffset, highOffset int)) {
	start := -1

	for line := 0; line < memutils.NumLinesPerBlock; line++ {
		if !b.LineIsMarked(line) {
			if start < 0 {
				start = line
			}
			continue
		}

		if start >= 0 {
			visitor(start*memutils.LineSize, line*memutils.LineSize-1)
			start = -1
		}
	}

	if start >= 0 {
		visitor(start*memutils.LineSize, memutils.BlockSize-1)
	}
}

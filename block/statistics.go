package block

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/immix/memutils"
)

// AddStatistics sums this block's line usage into stats. The hole count is the one cached by the
// last call to CountHoles.
func (b *ImmixBlock) AddStatistics(stats *memutils.Statistics) {
	holes, marked := b.CountHolesAndMarkedLines()

	stats.BlockCount++
	stats.HoleCount += holes
	stats.MarkedLines += marked
	stats.AvailableLines += memutils.NumLinesPerBlock - marked
}

// AddDetailedStatistics sums this block's line usage and the exact size of each of its holes into stats
func (b *ImmixBlock) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	b.AddStatistics(&stats.Statistics)

	if b.evacuationCandidate {
		stats.EvacuationCandidates++
	}

	b.VisitHoles(func(lowOffset, highOffset int) {
		stats.AddHole(highOffset - lowOffset + 1)
	})
}

// BlockJsonData populates a json object with information about this block
func (b *ImmixBlock) BlockJsonData(json jwriter.ObjectState) {
	holes, marked := b.CountHolesAndMarkedLines()

	json.Name("Begin").String(fmt.Sprintf("%#x", uintptr(b.Begin())))
	json.Name("State").String(b.State().String())
	json.Name("Holes").Int(holes)
	json.Name("MarkedLines").Int(marked)
	json.Name("AvailableLines").Int(memutils.NumLinesPerBlock - marked)

	holeArray := json.Name("HoleRanges").Array()
	defer holeArray.End()

	b.VisitHoles(func(lowOffset, highOffset int) {
		obj := holeArray.Object()
		defer obj.End()

		obj.Name("Offset").Int(lowOffset)
		obj.Name("Size").Int(highOffset - lowOffset + 1)
	})
}

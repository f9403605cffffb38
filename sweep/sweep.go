package sweep

import (
	"context"
	"errors"
	"sort"

	"github.com/vkngwrapper/immix/block"
	"github.com/vkngwrapper/immix/memutils"
	"golang.org/x/exp/slog"
)

// BlockList is the set of blocks owned by the collector for the duration of a sweep
type BlockList interface {
	BlockCount() int
	Block(index int) *block.ImmixBlock
	// Recycle returns the block at index to the free pool. Blocks after index shift down by one.
	Recycle(index int) error
}

// Decision is the outcome of sweeping a single block
type Decision uint32

const (
	// DecisionKeep indicates that the block will be reused in place by the allocator
	DecisionKeep Decision = iota
	// DecisionRecycle indicates that the block had no live lines and was returned to the pool
	DecisionRecycle
	// DecisionEvacuate indicates that the block was selected as an evacuation candidate
	DecisionEvacuate
)

var decisionMapping = map[Decision]string{
	DecisionKeep:     "Keep",
	DecisionRecycle:  "Recycle",
	DecisionEvacuate: "Evacuate",
}

func (d Decision) String() string {
	return decisionMapping[d]
}

// Options tune how evacuation candidates are chosen
type Options struct {
	// HeadroomLines is the number of free lines outside of the swept blocks, such as in blocks still
	// sitting in the pool, that evacuated objects may be copied into
	HeadroomLines int
	// MaxCandidates is the maximum number of evacuation candidates per sweep. 0 means no limit.
	MaxCandidates int
	// DisableEvacuation prevents any block from being selected as an evacuation candidate
	DisableEvacuation bool
}

// Stats contains metrics for one or more sweeps
type Stats struct {
	BlocksSwept          int
	BlocksRecycled       int
	EvacuationCandidates int
	// MarkedLines and AvailableLines count lines in blocks that survived the sweep
	MarkedLines    int
	AvailableLines int
	// LinesToEvacuate is the number of marked lines inside evacuation candidates
	LinesToEvacuate int
}

func (s *Stats) Add(stats Stats) {
	s.BlocksSwept += stats.BlocksSwept
	s.BlocksRecycled += stats.BlocksRecycled
	s.EvacuationCandidates += stats.EvacuationCandidates
	s.MarkedLines += stats.MarkedLines
	s.AvailableLines += stats.AvailableLines
	s.LinesToEvacuate += stats.LinesToEvacuate
}

// Context drives the post-trace sweep of a BlockList. A Context can be reused for many collection
// cycles; Stats accumulates across all of them.
type Context struct {
	Logger  *slog.Logger
	Options Options
	// Stats is the running total for every sweep performed with this Context
	Stats Stats
}

type blockScore struct {
	block  *block.ImmixBlock
	holes  int
	marked int
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Sweep recounts the holes and marked lines of every block in list. Blocks with no marked lines are
// recycled. Of the remaining blocks, the most fragmented are flagged as evacuation candidates as long
// as their live lines fit into the free lines left over elsewhere. The returned decisions are in the
// order of the blocks before any were recycled.
//
// Errors returned from Recycle are combined with errors.Join; the blocks that failed to recycle keep
// a DecisionRecycle decision but are not counted in Stats.BlocksRecycled.
func (c *Context) Sweep(list BlockList) ([]Decision, Stats, error) {
	var stats Stats

	count := list.BlockCount()
	decisions := make([]Decision, count)
	scores := make([]blockScore, 0, count)
	var recycle []int

	for index := 0; index < count; index++ {
		b := list.Block(index)
		b.SetEvacuationCandidate(false)
		stats.BlocksSwept++

		holes := b.CountHoles()
		_, marked := b.CountHolesAndMarkedLines()
		if marked == 0 {
			decisions[index] = DecisionRecycle
			recycle = append(recycle, index)
			continue
		}

		stats.MarkedLines += marked
		stats.AvailableLines += memutils.NumLinesPerBlock - marked
		scores = append(scores, blockScore{block: b, holes: holes, marked: marked})
	}

	if !c.Options.DisableEvacuation {
		freeLines := c.Options.HeadroomLines + stats.AvailableLines + len(recycle)*memutils.NumLinesPerBlock
		c.selectCandidates(scores, freeLines, &stats)
	}

	for index := 0; index < count; index++ {
		if decisions[index] == DecisionKeep && list.Block(index).EvacuationCandidate() {
			decisions[index] = DecisionEvacuate
		}
	}

	// Recycle from the back so the indices still to be recycled stay valid
	var allErrors []error
	for i := len(recycle) - 1; i >= 0; i-- {
		err := list.Recycle(recycle[i])
		if err != nil {
			allErrors = append(allErrors, err)
			continue
		}
		stats.BlocksRecycled++
	}

	c.Stats.Add(stats)
	c.logger().LogAttrs(context.Background(), slog.LevelDebug, "Context::Sweep",
		slog.Int("BlocksSwept", stats.BlocksSwept),
		slog.Int("BlocksRecycled", stats.BlocksRecycled),
		slog.Int("EvacuationCandidates", stats.EvacuationCandidates),
		slog.Int("LinesToEvacuate", stats.LinesToEvacuate),
	)

	return decisions, stats, errors.Join(allErrors...)
}

func (c *Context) selectCandidates(scores []blockScore, freeLines int, stats *Stats) {
	// Most holes first, then fewest live lines to copy
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].holes != scores[j].holes {
			return scores[i].holes > scores[j].holes
		}
		return scores[i].marked < scores[j].marked
	})

	for _, score := range scores {
		if c.Options.MaxCandidates > 0 && stats.EvacuationCandidates >= c.Options.MaxCandidates {
			return
		}

		// A block with a single hole is not fragmented, and neither is anything after it
		if score.holes <= 1 {
			return
		}

		// An evacuated block's own free lines can't receive its objects
		remaining := freeLines - (memutils.NumLinesPerBlock - score.marked)
		if score.marked > remaining {
			continue
		}

		freeLines = remaining - score.marked
		score.block.SetEvacuationCandidate(true)
		stats.EvacuationCandidates++
		stats.LinesToEvacuate += score.marked
	}
}

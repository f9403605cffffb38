package block

// BlockState identifies where a block is in its lifecycle. Transitions are driven by the
// allocator and the collector: Free -> Allocated -> Swept -> (EvacuationCandidate) -> Free.
type BlockState uint32

const (
	// BlockStateFree indicates that the block sits in a free pool with no marked lines
	BlockStateFree BlockState = iota
	// BlockStateAllocated indicates that the block is owned by an allocator and is being bump allocated into
	BlockStateAllocated
	// BlockStateSwept indicates that line marks and the hole count were recomputed after a trace
	BlockStateSwept
	// BlockStateEvacuationCandidate indicates that the collector has chosen to copy live objects
	// out of the block rather than reuse it in place
	BlockStateEvacuationCandidate
)

var blockStateMapping = map[BlockState]string{
	BlockStateFree:                "Free",
	BlockStateAllocated:           "Allocated",
	BlockStateSwept:               "Swept",
	BlockStateEvacuationCandidate: "EvacuationCandidate",
}

func (s BlockState) String() string {
	return blockStateMapping[s]
}

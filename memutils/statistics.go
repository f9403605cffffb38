package memutils

import "math"

// Statistics sums line usage across one or more blocks
type Statistics struct {
	BlockCount     int
	HoleCount      int
	MarkedLines    int
	AvailableLines int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.HoleCount = 0
	s.MarkedLines = 0
	s.AvailableLines = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.HoleCount += other.HoleCount
	s.MarkedLines += other.MarkedLines
	s.AvailableLines += other.AvailableLines
}

// BlockBytes is the number of bytes covered by the blocks counted in these statistics
func (s *Statistics) BlockBytes() int {
	return s.BlockCount * BlockSize
}

type DetailedStatistics struct {
	Statistics
	EvacuationCandidates int
	HoleSizeMin          int
	HoleSizeMax          int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.EvacuationCandidates = 0
	s.HoleSizeMin = math.MaxInt
	s.HoleSizeMax = 0
}

// AddHole records a hole of size bytes
func (s *DetailedStatistics) AddHole(size int) {
	if size < s.HoleSizeMin {
		s.HoleSizeMin = size
	}

	if size > s.HoleSizeMax {
		s.HoleSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.EvacuationCandidates += other.EvacuationCandidates

	if other.HoleSizeMin < s.HoleSizeMin {
		s.HoleSizeMin = other.HoleSizeMin
	}

	if other.HoleSizeMax > s.HoleSizeMax {
		s.HoleSizeMax = other.HoleSizeMax
	}
}

package memutils

const (
	// BlockSize is the size in bytes of a single immix block. Every block begins at an address
	// that is a multiple of BlockSize.
	BlockSize int = 32 * 1024
	// LineSize is the granularity in bytes at which liveness is tracked inside a block
	LineSize int = 128
	// NumLinesPerBlock is the number of lines tracked for each block
	NumLinesPerBlock int = BlockSize / LineSize
	// AllocAlignment is the minimum alignment of the low offset of a hole returned from a block scan
	AllocAlignment uint = 16
)

// Compile-time geometry checks
var _ [-(BlockSize % LineSize)]struct{}
var _ [-(BlockSize & (BlockSize - 1))]struct{}

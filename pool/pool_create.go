package pool

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	perrors "github.com/pkg/errors"
	"github.com/vkngwrapper/immix/block"
	"github.com/vkngwrapper/immix/memutils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific pool behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateExternallySynchronized ensures that the pool will not be synchronized internally. The
	// consumer must guarantee that it is used from only one goroutine at a time.
	CreateExternallySynchronized CreateFlags = 1 << iota
)

var createFlagsMapping = map[CreateFlags]string{
	CreateExternallySynchronized: "CreateExternallySynchronized",
}

func (f CreateFlags) String() string {
	return createFlagsMapping[f]
}

// defaultBlockCount is the number of blocks reserved when CreateOptions.BlockCount is left at 0.
// It is equal to 2Mb of blocks.
const defaultBlockCount int = 64

// ErrPoolExhausted is returned from Pool.Acquire when no free blocks remain
var ErrPoolExhausted error = perrors.New("no free blocks remain in the pool")

// CreateOptions contains optional settings when creating a pool
type CreateOptions struct {
	// Flags indicates specific pool behaviors to activate or deactivate
	Flags CreateFlags
	// BlockCount is the number of blocks reserved when the pool is created. The pool never grows.
	BlockCount int
}

// New reserves memory for a pool of blocks and initializes every block to the free state
//
// logger - Receives debug output for block traffic and errors for unreleased blocks. slog.Default
// is used if it is nil.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, options CreateOptions) (*Pool, error) {
	memutils.DebugCheckPow2(uint(memutils.BlockSize), "BlockSize")
	memutils.DebugCheckPow2(memutils.AllocAlignment, "AllocAlignment")

	if logger == nil {
		logger = slog.Default()
	}

	blockCount := options.BlockCount
	if blockCount < 0 {
		return nil, errors.Newf("invalid block count: %d", blockCount)
	}
	if blockCount == 0 {
		blockCount = defaultBlockCount
	}

	// One extra block leaves room to align the start of the reservation
	region, err := reserve((blockCount + 1) * memutils.BlockSize)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		logger:     logger,
		region:     region,
		begin:      memutils.AddressOf(unsafe.Pointer(&region[0])).AlignUp(uint(memutils.BlockSize)),
		blockCount: blockCount,
		free:       make([]*block.ImmixBlock, 0, blockCount),
		leases:     swiss.NewMap[memutils.Address, *Lease](uint32(blockCount)),
	}
	p.mutex.UseMutex = options.Flags&CreateExternallySynchronized == 0

	// Lower addresses are handed out first
	for i := blockCount - 1; i >= 0; i-- {
		p.free = append(p.free, block.New(p.begin.Add(i*memutils.BlockSize).Pointer()))
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, "Pool::New",
		slog.Int("BlockCount", blockCount),
		slog.String("Begin", fmt.Sprintf("%#x", uintptr(p.begin))),
		slog.String("Flags", options.Flags.String()),
	)

	memutils.DebugValidate(p)
	return p, nil
}

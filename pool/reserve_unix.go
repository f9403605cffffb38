//go:build unix

package pool

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// reserve maps size bytes of zeroed, private memory outside the Go heap
func reserve(size int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %d bytes for the block pool", size)
	}
	return data, nil
}

func unreserve(data []byte) error {
	err := unix.Munmap(data)
	if err != nil {
		return errors.Wrap(err, "failed to unmap the block pool")
	}
	return nil
}

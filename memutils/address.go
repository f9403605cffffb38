package memutils

import "unsafe"

// Address is a raw machine address. Block geometry is computed with plain integer arithmetic on it.
type Address uintptr

// AddressOf returns the Address of a pointer
func AddressOf(p unsafe.Pointer) Address {
	return Address(uintptr(p))
}

func (a Address) Add(offset int) Address {
	return a + Address(offset)
}

// Sub returns the distance in bytes from other to a
func (a Address) Sub(other Address) int {
	return int(a - other)
}

func (a Address) AlignUp(alignment uint) Address {
	return (a + Address(alignment) - 1) &^ (Address(alignment) - 1)
}

func (a Address) AlignDown(alignment uint) Address {
	return a &^ (Address(alignment) - 1)
}

// BlockBase returns the start of the block containing a
func (a Address) BlockBase() Address {
	return a.AlignDown(uint(BlockSize))
}

// BlockOffset returns the offset of a in bytes from the start of the block containing it
func (a Address) BlockOffset() int {
	return int(a % Address(BlockSize))
}

func (a Address) Pointer() unsafe.Pointer {
	// Block addresses point into mmap'd memory the Go heap never moves or collects
	return unsafe.Pointer(uintptr(a))
}

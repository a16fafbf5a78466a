// Package hwio provides register-level access to a memory-mapped peripheral
// window. Every access goes through sync/atomic so the compiler and CPU can
// neither elide nor reorder it relative to the surrounding control flow; the
// backing memory is hardware, not RAM, and reads have side effects.
package hwio

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Region is a fixed-size window of device registers. Offsets are byte
// offsets from the start of the window and must be 32-bit aligned; the
// peripheral is accessed in native endianness, which on the targets this
// runs on matches the bus.
type Region struct {
	mem []byte
}

// NewRegion wraps mem as a register window. mem is normally the slice
// returned by mmap of the device file, but any 4-byte-aligned backing works
// (tests use a heap slice).
func NewRegion(mem []byte) (*Region, error) {
	if len(mem) < 4 {
		return nil, fmt.Errorf("hwio: region too small: %d bytes", len(mem))
	}
	if uintptr(unsafe.Pointer(&mem[0]))%4 != 0 {
		return nil, fmt.Errorf("hwio: region base not 32-bit aligned")
	}
	return &Region{mem: mem}, nil
}

// Read32 performs a volatile 32-bit read of the register at off.
func (r *Region) Read32(off uint32) uint32 {
	return atomic.LoadUint32(r.word(off))
}

// Write32 performs a volatile 32-bit write of val to the register at off.
func (r *Region) Write32(off, val uint32) {
	atomic.StoreUint32(r.word(off), val)
}

// Size returns the window size in bytes.
func (r *Region) Size() int {
	return len(r.mem)
}

// word validates off and returns the register address. An unaligned or
// out-of-range offset is a programmer error, the same class of bug as a
// stray MMIO access, so it panics rather than returning an error.
func (r *Region) word(off uint32) *uint32 {
	if off%4 != 0 {
		panic(fmt.Sprintf("hwio: unaligned register offset %#x", off))
	}
	if int64(off)+4 > int64(len(r.mem)) {
		panic(fmt.Sprintf("hwio: register offset %#x outside %d-byte window", off, len(r.mem)))
	}
	return (*uint32)(unsafe.Pointer(&r.mem[off]))
}

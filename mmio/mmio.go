// Package mmio provides volatile access to memory-mapped peripheral registers.
//
// Under TinyGo the register cells are runtime/volatile registers, so every
// Get or Set is exactly one bus transaction. Under the regular Go toolchain
// the cells are plain memory with the same size and alignment, which lets
// register layouts and bit manipulation be tested on a host.
package mmio

import "unsafe"

// IOBase is the physical base address of the BCM2837 peripheral window.
const IOBase uintptr = 0x3F00_0000

// ioSize is the size of the peripheral window.
const ioSize uintptr = 0x0100_0000

// Peripheral returns the physical address of a peripheral register at offset
// from IOBase. It panics when the address falls outside the peripheral window
// or is not aligned to align bytes.
func Peripheral(offset uintptr, align uintptr) uintptr {
	if offset >= ioSize {
		panic("mmio: peripheral offset outside the I/O window")
	}
	addr := IOBase + offset
	if align != 0 && addr%align != 0 {
		panic("mmio: misaligned peripheral address")
	}
	return addr
}

// Bind returns a typed pointer to the register block at addr. This is the
// only place a raw address is turned into a register view.
func Bind[T any](addr uintptr) *T {
	// addr is a fixed physical address, not a Go allocation; vet's
	// unsafeptr warning here is expected.
	return (*T)(unsafe.Pointer(addr))
}

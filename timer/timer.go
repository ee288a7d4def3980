// Package timer supplies the monotonic microsecond clock used for timeouts
// and spin delays.
package timer

import (
	"sync/atomic"

	"pios/mmio"
)

// Clock is a monotonic time source in microseconds.
type Clock interface {
	// Now returns the current time in microseconds.
	Now() uint64
}

// Registers mirrors the BCM2837 system timer block at IOBase + 0x3000.
type Registers struct {
	CS  mmio.Register32    // 0x00 control/status
	CLO mmio.Register32    // 0x04 counter low word
	CHI mmio.Register32    // 0x08 counter high word
	C   [4]mmio.Register32 // 0x0C compare registers
}

const registersOffset = 0x3000

// SystemTimer reads the free-running 1MHz system counter.
type SystemTimer struct {
	regs *Registers
}

var _ Clock = (*SystemTimer)(nil)

// NewSystemTimer returns a clock over regs.
func NewSystemTimer(regs *Registers) *SystemTimer {
	return &SystemTimer{regs: regs}
}

var claimed atomic.Bool

// Hardware returns the system timer bound to its physical registers.
// It may be called once; a second call panics.
func Hardware() *SystemTimer {
	if !claimed.CompareAndSwap(false, true) {
		panic("timer: register block already claimed")
	}
	return NewSystemTimer(mmio.Bind[Registers](mmio.Peripheral(registersOffset, 4)))
}

// Now returns the 64-bit counter value.
// High is read before and after low to detect a carry between the reads.
func (s *SystemTimer) Now() uint64 {
	for {
		high1 := s.regs.CHI.Get()
		low := s.regs.CLO.Get()
		high2 := s.regs.CHI.Get()

		if high1 == high2 {
			return uint64(high1)<<32 | uint64(low)
		}
	}
}

// SpinSleepUS busy-waits until at least us microseconds have passed on c.
func SpinSleepUS(c Clock, us uint64) {
	start := c.Now()
	for c.Now()-start < us {
		// Spin
	}
}

// SpinSleepMS busy-waits until at least ms milliseconds have passed on c.
func SpinSleepMS(c Clock, ms uint64) {
	SpinSleepUS(c, ms*1000)
}

package miniuart

import (
	"sync/atomic"

	"pios/mmio"
)

// Reg names one register of the mini UART (plus the shared aux enable).
type Reg uint8

const (
	RegIO         Reg = iota // data FIFO
	RegIER                   // interrupt enable
	RegIIR                   // interrupt identify
	RegLCR                   // line control
	RegMCR                   // modem control
	RegLSR                   // line status (read only)
	RegMSR                   // modem status (read only)
	RegScratch               // scratch
	RegCNTL                  // extra control
	RegSTAT                  // extra status (read only)
	RegBaud                  // baud rate divisor
	RegAuxEnables            // AUXENB, outside the mini UART block
	NumRegs
)

var regNames = [NumRegs]string{
	"IO", "IER", "IIR", "LCR", "MCR", "LSR", "MSR", "SCRATCH", "CNTL", "STAT", "BAUD", "AUXENB",
}

func (r Reg) String() string {
	if r < NumRegs {
		return regNames[r]
	}
	return "Reg(?)"
}

// ReadOnly reports whether writes to r are addressing bugs.
func (r Reg) ReadOnly() bool {
	return r == RegLSR || r == RegMSR || r == RegSTAT
}

// RegisterBlock is the typed accessor surface over the mini UART registers.
// Values are widened to uint32; narrower registers use the low bits.
type RegisterBlock interface {
	Read(r Reg) uint32
	Write(r Reg, value uint32)
	// SetBits is a read-modify-write that ORs mask into r.
	SetBits(r Reg, mask uint32)
}

// Registers mirrors the mini UART register block at IOBase + 0x215040.
// Every field sits at its hardware byte offset.
type Registers struct {
	IO      mmio.Register8 // 0x00
	_       [3]uint8
	IER     mmio.Register8 // 0x04
	_       [3]uint8
	IIR     mmio.Register8 // 0x08
	_       [3]uint8
	LCR     mmio.Register8 // 0x0C
	_       [3]uint8
	MCR     mmio.Register8 // 0x10
	_       [3]uint8
	LSR     mmio.Register8 // 0x14, read only
	_       [3]uint8
	MSR     mmio.Register8 // 0x18, read only
	_       [3]uint8
	Scratch mmio.Register8 // 0x1C
	_       [3]uint8
	CNTL    mmio.Register8 // 0x20
	_       [3]uint8
	STAT    mmio.Register32 // 0x24, read only
	Baud    mmio.Register16 // 0x28
	_       [2]uint8
}

const (
	registersOffset  = 0x215040
	auxEnablesOffset = 0x215004
)

// Block binds a RegisterBlock to a Registers view and the aux enable register.
type Block struct {
	regs *Registers
	aux  *mmio.Register8
}

var _ RegisterBlock = (*Block)(nil)

// NewBlock returns a register block over regs and aux.
func NewBlock(regs *Registers, aux *mmio.Register8) *Block {
	return &Block{regs: regs, aux: aux}
}

var claimed atomic.Bool

// Hardware returns the register block bound to the physical mini UART.
// There is one mini UART, so there is one handle: a second call panics.
func Hardware() *Block {
	if !claimed.CompareAndSwap(false, true) {
		panic("miniuart: register block already claimed")
	}
	return NewBlock(
		mmio.Bind[Registers](mmio.Peripheral(registersOffset, 4)),
		mmio.Bind[mmio.Register8](mmio.Peripheral(auxEnablesOffset, 4)),
	)
}

func (b *Block) reg8(r Reg) *mmio.Register8 {
	switch r {
	case RegIO:
		return &b.regs.IO
	case RegIER:
		return &b.regs.IER
	case RegIIR:
		return &b.regs.IIR
	case RegLCR:
		return &b.regs.LCR
	case RegMCR:
		return &b.regs.MCR
	case RegLSR:
		return &b.regs.LSR
	case RegMSR:
		return &b.regs.MSR
	case RegScratch:
		return &b.regs.Scratch
	case RegCNTL:
		return &b.regs.CNTL
	case RegAuxEnables:
		return b.aux
	}
	return nil
}

// Read returns the value of r.
func (b *Block) Read(r Reg) uint32 {
	switch r {
	case RegSTAT:
		return b.regs.STAT.Get()
	case RegBaud:
		return uint32(b.regs.Baud.Get())
	}
	if p := b.reg8(r); p != nil {
		return uint32(p.Get())
	}
	panic("miniuart: read of unknown register " + r.String())
}

// Write stores value in r. Writing a read-only register panics.
func (b *Block) Write(r Reg, value uint32) {
	if r.ReadOnly() {
		panic("miniuart: write to read-only register " + r.String())
	}
	if r == RegBaud {
		b.regs.Baud.Set(uint16(value))
		return
	}
	if p := b.reg8(r); p != nil {
		p.Set(uint8(value))
		return
	}
	panic("miniuart: write of unknown register " + r.String())
}

// SetBits ORs mask into r.
func (b *Block) SetBits(r Reg, mask uint32) {
	if r.ReadOnly() {
		panic("miniuart: write to read-only register " + r.String())
	}
	if r == RegBaud {
		b.regs.Baud.SetBits(uint16(mask))
		return
	}
	if p := b.reg8(r); p != nil {
		p.SetBits(uint8(mask))
		return
	}
	panic("miniuart: write of unknown register " + r.String())
}

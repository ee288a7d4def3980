// Package gpio selects pin functions on the BCM2837 GPIO block.
package gpio

import (
	"sync/atomic"

	"pios/mmio"
)

// Pin identifies a BCM2837 GPIO pin number.
type Pin uint8

// PinCount is the number of GPIO pins on the BCM2837.
const PinCount = 54

// Function is a pin function select code (3 bits in GPFSELn).
type Function uint8

// Function select codes. The alternate function encoding is not sequential.
const (
	Input  Function = 0b000
	Output Function = 0b001
	Alt0   Function = 0b100
	Alt1   Function = 0b101
	Alt2   Function = 0b110
	Alt3   Function = 0b111
	Alt4   Function = 0b011
	Alt5   Function = 0b010
)

// FunctionSelector is the abstract pin configuration interface drivers use.
// Platform code hands in a Controller; tests hand in a recorder.
type FunctionSelector interface {
	// SetFunction routes pin to function fn.
	SetFunction(pin Pin, fn Function)
}

// Registers mirrors the GPIO register block at IOBase + 0x200000.
type Registers struct {
	FSEL [6]mmio.Register32 // 0x00
	_    uint32
	SET  [2]mmio.Register32 // 0x1C
	_    uint32
	CLR  [2]mmio.Register32 // 0x28
	_    uint32
	LEV  [2]mmio.Register32 // 0x34
}

const registersOffset = 0x200000

// Controller drives pins through a GPIO register block.
type Controller struct {
	regs *Registers
}

var _ FunctionSelector = (*Controller)(nil)

// NewController returns a controller over regs.
func NewController(regs *Registers) *Controller {
	return &Controller{regs: regs}
}

var claimed atomic.Bool

// Hardware returns the controller bound to the physical GPIO block.
// It may be called once; a second call panics.
func Hardware() *Controller {
	if !claimed.CompareAndSwap(false, true) {
		panic("gpio: register block already claimed")
	}
	return NewController(mmio.Bind[Registers](mmio.Peripheral(registersOffset, 4)))
}

func checkPin(pin Pin) {
	if pin >= PinCount {
		panic("gpio: pin out of range")
	}
}

// SetFunction writes the 3-bit function field for pin, preserving the other
// pins in the same GPFSEL register.
func (c *Controller) SetFunction(pin Pin, fn Function) {
	checkPin(pin)
	c.regs.FSEL[pin/10].ReplaceBits(uint32(fn), 0b111, uint8(pin%10)*3)
}

// Function reads back the function currently selected for pin.
func (c *Controller) Function(pin Pin) Function {
	checkPin(pin)
	return Function(mmio.Field(c.regs.FSEL[pin/10].Get(), uint(pin%10)*3, 3))
}

// Set drives an output pin high.
func (c *Controller) Set(pin Pin) {
	checkPin(pin)
	c.regs.SET[pin/32].Set(mmio.Bit[uint32](uint(pin % 32)))
}

// Clear drives an output pin low.
func (c *Controller) Clear(pin Pin) {
	checkPin(pin)
	c.regs.CLR[pin/32].Set(mmio.Bit[uint32](uint(pin % 32)))
}

// Level reports the current level of pin.
func (c *Controller) Level(pin Pin) bool {
	checkPin(pin)
	return c.regs.LEV[pin/32].HasBits(mmio.Bit[uint32](uint(pin % 32)))
}

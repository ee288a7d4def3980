// Package miniuart drives the BCM2837 auxiliary "mini UART".
//
// All transfers are polled: SendByte and RecvByte spin on the line status
// register, and only WaitForByte honors the read timeout. Callers that want
// a timed read call WaitForByte before RecvByte (ReadByte and Read do this).
package miniuart

import (
	"pios/gpio"
	"pios/timer"

	"tinygo.org/x/drivers"
)

// Line status register bits.
const (
	lsrDataReady   = 1 << 0
	lsrTxAvailable = 1 << 5
)

const (
	auxEnableMiniUART = 1 << 0
	lcrDataSize8Bit   = 0b11
	cntlTxRxEnable    = 0b11

	// Divisor 270 gives ~115200 baud from the 250MHz system clock.
	baudDivisor = 270
)

// Pins routed to TXD1/RXD1.
const (
	PinTX gpio.Pin = 14
	PinRX gpio.Pin = 15
)

// MiniUART is the mini UART driver. It owns its register block; there must
// be at most one per register block and it must not be shared between
// goroutines.
type MiniUART struct {
	regs  RegisterBlock
	clock timer.Clock

	timeout    uint32 // milliseconds
	hasTimeout bool
}

var _ drivers.UART = (*MiniUART)(nil)

// New brings up the mini UART: pins 14 and 15 to Alt5, the peripheral
// enabled as an aux device, 8-bit data, ~115200 baud, transmitter and
// receiver on. The order matters to the hardware.
//
// Reads never time out until SetReadTimeout is called.
func New(regs RegisterBlock, pins gpio.FunctionSelector, clock timer.Clock) *MiniUART {
	pins.SetFunction(PinTX, gpio.Alt5)
	pins.SetFunction(PinRX, gpio.Alt5)

	regs.SetBits(RegAuxEnables, auxEnableMiniUART)
	regs.Write(RegLCR, lcrDataSize8Bit)
	regs.Write(RegBaud, baudDivisor)
	regs.Write(RegCNTL, cntlTxRxEnable)

	return &MiniUART{
		regs:  regs,
		clock: clock,
	}
}

// SetReadTimeout sets the read timeout to milliseconds. Zero is valid and
// means WaitForByte fails unless a byte is already waiting.
func (u *MiniUART) SetReadTimeout(milliseconds uint32) {
	u.timeout = milliseconds
	u.hasTimeout = true
}

// ClearReadTimeout makes reads block indefinitely again.
func (u *MiniUART) ClearReadTimeout() {
	u.timeout = 0
	u.hasTimeout = false
}

// ReadTimeout returns the configured timeout and whether one is set.
func (u *MiniUART) ReadTimeout() (uint32, bool) {
	return u.timeout, u.hasTimeout
}

// Clock returns the clock the driver measures timeouts with.
func (u *MiniUART) Clock() timer.Clock {
	return u.clock
}

// SendByte writes b, blocking until the transmit FIFO has room. It never
// times out.
func (u *MiniUART) SendByte(b byte) {
	for u.regs.Read(RegLSR)&lsrTxAvailable == 0 {
		// Spin while TX FIFO is full
	}
	u.regs.Write(RegIO, uint32(b))
}

// HasByte reports whether at least one byte is ready to be read. When it
// returns true the next RecvByte returns immediately. It never blocks.
func (u *MiniUART) HasByte() bool {
	return u.regs.Read(RegLSR)&lsrDataReady != 0
}

// WaitForByte blocks until a byte is ready to read, or until the read
// timeout expires, in which case it returns ErrTimeout. Without a timeout
// it blocks indefinitely.
func (u *MiniUART) WaitForByte() error {
	start := u.clock.Now()

	for !u.HasByte() {
		if u.hasTimeout && u.clock.Now() > start+uint64(u.timeout)*1000 {
			return ErrTimeout
		}
	}
	return nil
}

// RecvByte reads one byte, blocking indefinitely until one is ready.
// The read timeout does not apply here.
func (u *MiniUART) RecvByte() byte {
	for !u.HasByte() {
		// Spin while RX FIFO is empty
	}
	return byte(u.regs.Read(RegIO))
}

// Buffered returns the number of bytes that can be read without blocking.
// The line status register only exposes "at least one", so this is 0 or 1.
func (u *MiniUART) Buffered() int {
	if u.HasByte() {
		return 1
	}
	return 0
}

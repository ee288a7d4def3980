// Package uarttest provides a simulated mini UART for tests.
//
// Device implements both miniuart.RegisterBlock and gpio.FunctionSelector so
// a single ordered trace covers pin setup and register writes. Reads of IO
// pop the receive queue and writes to IO append to the transmit log, the way
// the hardware FIFOs behave.
package uarttest

import (
	"sync"

	"pios/gpio"
	"pios/miniuart"
)

// Op is the kind of a traced access.
type Op uint8

const (
	OpWrite Op = iota
	OpSetBits
	OpSetFunction
)

// Access is one traced state-changing access.
type Access struct {
	Op    Op
	Reg   miniuart.Reg
	Value uint32
	Pin   gpio.Pin
	Fn    gpio.Function
}

const (
	lsrDataReady     = 1 << 0
	lsrTxAvailable   = 1 << 5
	lsrTransmitterOK = 1 << 6
)

// Device is a simulated mini UART register block. It is safe for use from
// a test goroutine and the goroutine driving the UART.
type Device struct {
	mu sync.Mutex

	regs  [miniuart.NumRegs]uint32
	reads [miniuart.NumRegs]int
	trace []Access

	rx     []byte
	tx     []byte
	holdRx int
	busyTx int
}

var (
	_ miniuart.RegisterBlock = (*Device)(nil)
	_ gpio.FunctionSelector  = (*Device)(nil)
)

// NewDevice returns an idle device: empty receive queue, transmitter ready.
func NewDevice() *Device {
	return &Device{}
}

// Preset stores value in r without tracing it, as if left there by firmware.
func (d *Device) Preset(r miniuart.Reg, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[r] = value
}

// Feed queues bytes as received from the line.
func (d *Device) Feed(b ...byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx = append(d.rx, b...)
}

// FeedString queues s as received from the line.
func (d *Device) FeedString(s string) {
	d.Feed([]byte(s)...)
}

// HoldRx makes the next n line status reads report no data, even if bytes
// are queued.
func (d *Device) HoldRx(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.holdRx = n
}

// BusyTx makes the next n line status reads report a full transmit FIFO.
func (d *Device) BusyTx(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busyTx = n
}

// Pending returns the number of queued receive bytes.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rx)
}

// Transmitted returns a copy of every byte written to IO.
func (d *Device) Transmitted() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.tx...)
}

// ResetTransmitted clears the transmit log.
func (d *Device) ResetTransmitted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tx = d.tx[:0]
}

// Trace returns a copy of the state-changing accesses in order.
func (d *Device) Trace() []Access {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Access(nil), d.trace...)
}

// Reads returns how many times r was read.
func (d *Device) Reads(r miniuart.Reg) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[r]
}

// Value returns the last value written to r, without side effects.
func (d *Device) Value(r miniuart.Reg) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[r]
}

func (d *Device) lineStatus() uint32 {
	var lsr uint32
	if d.holdRx > 0 {
		d.holdRx--
	} else if len(d.rx) > 0 {
		lsr |= lsrDataReady
	}
	if d.busyTx > 0 {
		d.busyTx--
	} else {
		lsr |= lsrTxAvailable | lsrTransmitterOK
	}
	return lsr
}

// Read implements miniuart.RegisterBlock.
func (d *Device) Read(r miniuart.Reg) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads[r]++

	switch r {
	case miniuart.RegLSR:
		return d.lineStatus()
	case miniuart.RegIO:
		if len(d.rx) == 0 {
			return 0
		}
		b := d.rx[0]
		d.rx = d.rx[1:]
		return uint32(b)
	}
	return d.regs[r]
}

// Write implements miniuart.RegisterBlock.
func (d *Device) Write(r miniuart.Reg, value uint32) {
	if r.ReadOnly() {
		panic("uarttest: write to read-only register " + r.String())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, Access{Op: OpWrite, Reg: r, Value: value})

	if r == miniuart.RegIO {
		d.tx = append(d.tx, byte(value))
		return
	}
	d.regs[r] = value
}

// SetBits implements miniuart.RegisterBlock.
func (d *Device) SetBits(r miniuart.Reg, mask uint32) {
	if r.ReadOnly() {
		panic("uarttest: write to read-only register " + r.String())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, Access{Op: OpSetBits, Reg: r, Value: mask})
	d.regs[r] |= mask
}

// SetFunction implements gpio.FunctionSelector.
func (d *Device) SetFunction(pin gpio.Pin, fn gpio.Function) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, Access{Op: OpSetFunction, Pin: pin, Fn: fn})
}

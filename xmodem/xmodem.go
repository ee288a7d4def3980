// Package xmodem implements the checksum variant of the XMODEM file
// transfer protocol: 128-byte packets, one-byte arithmetic checksum.
//
// Both sides work over any byte stream. Read timeouts come from the stream
// itself (for the mini UART, its read timeout). The receiver answers an
// error reporting Timeout() == true with NAK and retries, before the
// transfer starts and in the middle of a packet alike; the transmitter
// retries timeouts while waiting for the start NAK. Any other read error
// aborts the transfer. A receiving stream that is a drivers.UART has its
// buffered input purged before the first NAK.
package xmodem

import (
	"errors"
	"fmt"
	"io"
)

// Protocol bytes.
const (
	SOH byte = 0x01
	EOT byte = 0x04
	ACK byte = 0x06
	NAK byte = 0x15
	CAN byte = 0x18
)

// PacketSize is the payload size of one packet.
const PacketSize = 128

// MaxRetries bounds how often a packet or the start handshake is retried.
const MaxRetries = 10

var (
	ErrCanceled = errors.New("xmodem: transfer canceled by peer")
	ErrRetries  = errors.New("xmodem: too many retries")
	ErrProtocol = errors.New("xmodem: unexpected byte")
	ErrSequence = errors.New("xmodem: packet out of sequence")
)

// Checksum is the XMODEM arithmetic checksum of data.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

type conn struct {
	rw  io.ReadWriter
	br  io.ByteReader
	one [1]byte
}

func newConn(rw io.ReadWriter) *conn {
	c := &conn{rw: rw}
	if br, ok := rw.(io.ByteReader); ok {
		c.br = br
	}
	return c
}

func (c *conn) readByte() (byte, error) {
	if c.br != nil {
		return c.br.ReadByte()
	}
	if _, err := io.ReadFull(c.rw, c.one[:]); err != nil {
		return 0, err
	}
	return c.one[0], nil
}

func (c *conn) writeByte(b byte) error {
	c.one[0] = b
	_, err := c.rw.Write(c.one[:])
	return err
}

// expect reads one byte and checks it is want. CAN from the peer is reported
// as ErrCanceled.
func (c *conn) expect(want byte) error {
	b, err := c.readByte()
	if err != nil {
		return err
	}
	switch b {
	case want:
		return nil
	case CAN:
		return ErrCanceled
	}
	return fmt.Errorf("%w: 0x%02x, expected 0x%02x", ErrProtocol, b, want)
}

func (c *conn) cancel() {
	c.writeByte(CAN)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

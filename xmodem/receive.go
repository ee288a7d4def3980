package xmodem

import (
	"errors"
	"fmt"
	"io"

	"tinygo.org/x/drivers"
)

// Receive accepts a transfer on rw and writes every packet payload to w.
// The sender's padding is kept, so the result is a multiple of PacketSize.
// It returns the number of bytes written.
func Receive(rw io.ReadWriter, w io.Writer) (int64, error) {
	c := newConn(rw)

	var (
		received int64
		expected byte = 1
		retries  int
		packet   [2 + PacketSize + 1]byte
	)

	if u, ok := rw.(drivers.UART); ok {
		purge(u)
	}
	if err := c.writeByte(NAK); err != nil {
		return 0, err
	}

	for {
		if retries > MaxRetries {
			c.cancel()
			return received, ErrRetries
		}

		b, err := c.readByte()
		if err != nil {
			if isTimeout(err) {
				retries++
				if err := c.writeByte(NAK); err != nil {
					return received, err
				}
				continue
			}
			return received, err
		}

		switch b {
		case SOH:
		case EOT:
			return received, c.acceptEOT()
		case CAN:
			return received, ErrCanceled
		default:
			retries++
			continue
		}

		if _, err := io.ReadFull(rw, packet[:]); err != nil {
			if !isTimeout(err) {
				return received, err
			}
			// The rest of the packet never came; ask for all of it again.
			retries++
			if err := c.writeByte(NAK); err != nil {
				return received, err
			}
			continue
		}
		number, complement := packet[0], packet[1]
		payload := packet[2 : 2+PacketSize]

		if number != ^complement || Checksum(payload) != packet[len(packet)-1] {
			retries++
			if err := c.writeByte(NAK); err != nil {
				return received, err
			}
			continue
		}

		switch number {
		case expected:
			if _, err := w.Write(payload); err != nil {
				c.cancel()
				return received, fmt.Errorf("xmodem: writing output: %w", err)
			}
			received += PacketSize
			expected++
		case expected - 1:
			// Our ACK was lost and the sender repeated the packet.
		default:
			c.cancel()
			return received, fmt.Errorf("%w: got %d, expected %d", ErrSequence, number, expected)
		}

		retries = 0
		if err := c.writeByte(ACK); err != nil {
			return received, err
		}
	}
}

// purge discards whatever u has already buffered, such as the tail of a
// command line or noise from an earlier aborted transfer. Anything that
// arrives before the first NAK is not part of the transfer.
func purge(u drivers.UART) {
	var buf [16]byte
	for u.Buffered() > 0 {
		if _, err := u.Read(buf[:]); err != nil {
			return
		}
	}
}

// acceptEOT answers the first EOT with NAK and the second with ACK.
func (c *conn) acceptEOT() error {
	if err := c.writeByte(NAK); err != nil {
		return err
	}
	if err := c.expect(EOT); err != nil {
		if errors.Is(err, ErrProtocol) {
			c.cancel()
		}
		return err
	}
	return c.writeByte(ACK)
}

package xmodem

import (
	"errors"
	"fmt"
	"io"
)

// Transmit sends data over rw. It waits for the receiver's NAK, sends every
// packet (the last one zero-padded) and completes the EOT handshake. It
// returns the number of payload bytes sent, without padding.
func Transmit(rw io.ReadWriter, data io.Reader) (int64, error) {
	c := newConn(rw)
	if err := c.waitForStart(); err != nil {
		return 0, err
	}

	var (
		sent   int64
		number byte = 1
		packet [3 + PacketSize + 1]byte
	)
	for {
		payload := packet[3 : 3+PacketSize]
		n, err := io.ReadFull(data, payload)
		if n == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			c.cancel()
			return sent, fmt.Errorf("xmodem: reading input: %w", err)
		}
		clear(payload[n:])

		packet[0] = SOH
		packet[1] = number
		packet[2] = ^number
		packet[len(packet)-1] = Checksum(payload)

		if err := c.sendPacket(packet[:]); err != nil {
			return sent, err
		}
		sent += int64(n)
		number++

		if n < PacketSize {
			break
		}
	}

	if err := c.finish(); err != nil {
		return sent, err
	}
	return sent, nil
}

func (c *conn) waitForStart() error {
	for retries := 0; ; retries++ {
		if retries > MaxRetries {
			c.cancel()
			return ErrRetries
		}
		b, err := c.readByte()
		if isTimeout(err) {
			continue
		}
		if err != nil {
			return err
		}
		switch b {
		case NAK:
			return nil
		case CAN:
			return ErrCanceled
		}
	}
}

func (c *conn) sendPacket(packet []byte) error {
	for retries := 0; ; retries++ {
		if retries > MaxRetries {
			c.cancel()
			return ErrRetries
		}
		if _, err := c.rw.Write(packet); err != nil {
			return err
		}

		err := c.expect(ACK)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCanceled) {
			return err
		}
		if !errors.Is(err, ErrProtocol) && !isTimeout(err) {
			return err
		}
		// NAK, noise or timeout: resend
	}
}

// finish sends EOT, expects NAK, sends EOT again and expects ACK.
func (c *conn) finish() error {
	if err := c.writeByte(EOT); err != nil {
		return err
	}
	if err := c.expect(NAK); err != nil {
		return err
	}
	if err := c.writeByte(EOT); err != nil {
		return err
	}
	return c.expect(ACK)
}

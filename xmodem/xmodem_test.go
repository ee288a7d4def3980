package xmodem

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
)

// script is a ReadWriter that replays canned peer input and records output.
type script struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newScript(in ...byte) *script {
	return &script{in: bytes.NewReader(in)}
}

func (s *script) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *script) Write(p []byte) (int, error) { return s.out.Write(p) }

func packetFor(number byte, data []byte) []byte {
	payload := make([]byte, PacketSize)
	copy(payload, data)
	pkt := []byte{SOH, number, ^number}
	pkt = append(pkt, payload...)
	return append(pkt, Checksum(payload))
}

func TestChecksum(t *testing.T) {
	testCases := []struct {
		data []byte
		want byte
	}{
		{nil, 0},
		{[]byte("hi"), 209},
		{bytes.Repeat([]byte{0xFF}, 2), 0xFE},
	}
	for _, tc := range testCases {
		if got := Checksum(tc.data); got != tc.want {
			t.Errorf("Checksum(%v): expected %d, got %d", tc.data, tc.want, got)
		}
	}
}

func TestTransmitWireFormat(t *testing.T) {
	s := newScript(NAK, ACK, NAK, ACK)

	n, err := Transmit(s, bytes.NewReader([]byte("hi")))
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 bytes sent, got %d", n)
	}

	want := append(packetFor(1, []byte("hi")), EOT, EOT)
	if !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("wire mismatch:\nexpected %v\ngot      %v", want, s.out.Bytes())
	}
}

func TestTransmitEmpty(t *testing.T) {
	s := newScript(NAK, NAK, ACK)

	n, err := Transmit(s, bytes.NewReader(nil))
	if err != nil || n != 0 {
		t.Fatalf("Transmit: n=%d err=%v", n, err)
	}
	if !bytes.Equal(s.out.Bytes(), []byte{EOT, EOT}) {
		t.Errorf("expected only the EOT handshake, got %v", s.out.Bytes())
	}
}

func TestTransmitResendsOnNAK(t *testing.T) {
	s := newScript(NAK, NAK, ACK, NAK, ACK)

	if _, err := Transmit(s, bytes.NewReader([]byte{1, 2, 3})); err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	pkt := packetFor(1, []byte{1, 2, 3})
	want := append(append(append([]byte{}, pkt...), pkt...), EOT, EOT)
	if !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("expected the packet twice followed by EOTs")
	}
}

func TestTransmitTooManyRetries(t *testing.T) {
	in := []byte{NAK}
	for i := 0; i <= MaxRetries; i++ {
		in = append(in, NAK)
	}
	s := newScript(in...)

	_, err := Transmit(s, bytes.NewReader([]byte("x")))
	if !errors.Is(err, ErrRetries) {
		t.Fatalf("expected ErrRetries, got %v", err)
	}
	if out := s.out.Bytes(); out[len(out)-1] != CAN {
		t.Error("expected CAN after giving up")
	}
}

func TestTransmitCanceled(t *testing.T) {
	s := newScript(NAK, CAN)

	if _, err := Transmit(s, bytes.NewReader([]byte("x"))); !errors.Is(err, ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
}

func TestReceiveWireFormat(t *testing.T) {
	in := append(packetFor(1, []byte("hello")), EOT, EOT)
	s := newScript(in...)
	var out bytes.Buffer

	n, err := Receive(s, &out)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if n != PacketSize {
		t.Errorf("expected %d bytes, got %d", PacketSize, n)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("hello")) || out.Len() != PacketSize {
		t.Errorf("unexpected payload %q", out.Bytes()[:8])
	}
	if want := []byte{NAK, ACK, NAK, ACK}; !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("expected responses %v, got %v", want, s.out.Bytes())
	}
}

func TestReceiveBadChecksum(t *testing.T) {
	bad := packetFor(1, []byte("abc"))
	bad[len(bad)-1]++
	in := append(bad, packetFor(1, []byte("abc"))...)
	in = append(in, EOT, EOT)
	s := newScript(in...)
	var out bytes.Buffer

	if _, err := Receive(s, &out); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if want := []byte{NAK, NAK, ACK, NAK, ACK}; !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("expected responses %v, got %v", want, s.out.Bytes())
	}
	if out.Len() != PacketSize {
		t.Errorf("expected one packet written, got %d bytes", out.Len())
	}
}

func TestReceiveDuplicatePacket(t *testing.T) {
	pkt := packetFor(1, []byte("dup"))
	in := append(append(append([]byte{}, pkt...), pkt...), EOT, EOT)
	s := newScript(in...)
	var out bytes.Buffer

	if _, err := Receive(s, &out); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if out.Len() != PacketSize {
		t.Errorf("duplicate packet written twice: %d bytes", out.Len())
	}
}

func TestReceiveOutOfSequence(t *testing.T) {
	s := newScript(packetFor(3, nil)...)
	var out bytes.Buffer

	_, err := Receive(s, &out)
	if !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
	if got := s.out.Bytes(); got[len(got)-1] != CAN {
		t.Error("expected CAN on sequence error")
	}
}

func TestReceiveCanceled(t *testing.T) {
	s := newScript(CAN)

	if _, err := Receive(s, io.Discard); !errors.Is(err, ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
}

type stallError struct{}

func (stallError) Error() string { return "read timed out" }
func (stallError) Timeout() bool { return true }

// stalling is a ReadWriter that replays chunks of peer input. A nil chunk
// makes one Read fail with a timeout.
type stalling struct {
	chunks [][]byte
	out    bytes.Buffer
}

func (s *stalling) Read(p []byte) (int, error) {
	for len(s.chunks) > 0 && s.chunks[0] != nil && len(s.chunks[0]) == 0 {
		s.chunks = s.chunks[1:]
	}
	if len(s.chunks) == 0 {
		return 0, io.EOF
	}
	if s.chunks[0] == nil {
		s.chunks = s.chunks[1:]
		return 0, stallError{}
	}
	n := copy(p, s.chunks[0])
	s.chunks[0] = s.chunks[0][n:]
	return n, nil
}

func (s *stalling) Write(p []byte) (int, error) { return s.out.Write(p) }

func TestReceiveTimeoutMidPacket(t *testing.T) {
	second := packetFor(2, []byte("second"))
	s := &stalling{chunks: [][]byte{
		packetFor(1, []byte("first")),
		second[:40],
		nil,
		second,
		nil,
		{EOT, EOT},
	}}
	var out bytes.Buffer

	n, err := Receive(s, &out)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if n != 2*PacketSize {
		t.Errorf("expected %d bytes, got %d", 2*PacketSize, n)
	}
	if !bytes.HasPrefix(out.Bytes()[PacketSize:], []byte("second")) {
		t.Error("second packet not written after the retry")
	}
	want := []byte{NAK, ACK, NAK, ACK, NAK, NAK, ACK}
	if !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("expected responses %v, got %v", want, s.out.Bytes())
	}
}

func TestReceiveGivesUpOnStalledPacket(t *testing.T) {
	partial := packetFor(1, nil)[:10]
	chunks := [][]byte{}
	for i := 0; i <= MaxRetries; i++ {
		chunks = append(chunks, append([]byte(nil), partial...), nil)
	}
	s := &stalling{chunks: chunks}

	_, err := Receive(s, io.Discard)
	if !errors.Is(err, ErrRetries) {
		t.Fatalf("expected ErrRetries, got %v", err)
	}
	if got := s.out.Bytes(); got[len(got)-1] != CAN {
		t.Error("expected CAN after the last retry")
	}
}

// corruptOnce flips one byte of the first packet written through it.
type corruptOnce struct {
	net.Conn
	done bool
}

func (c *corruptOnce) Write(p []byte) (int, error) {
	if !c.done && len(p) > 10 {
		c.done = true
		q := append([]byte(nil), p...)
		q[10] ^= 0xFF
		return c.Conn.Write(q)
	}
	return c.Conn.Write(p)
}

func TestRoundTrip(t *testing.T) {
	data := make([]byte, 3*PacketSize+17)
	for i := range data {
		data[i] = byte(i * 7)
	}

	for _, corrupt := range []bool{false, true} {
		a, b := net.Pipe()
		var sender io.ReadWriter = a
		if corrupt {
			sender = &corruptOnce{Conn: a}
		}

		type result struct {
			n   int64
			err error
		}
		done := make(chan result, 1)
		go func() {
			n, err := Transmit(sender, bytes.NewReader(data))
			done <- result{n, err}
		}()

		var out bytes.Buffer
		n, err := Receive(b, &out)
		if err != nil {
			t.Fatalf("Receive (corrupt=%v): %v", corrupt, err)
		}
		tx := <-done
		if tx.err != nil {
			t.Fatalf("Transmit (corrupt=%v): %v", corrupt, tx.err)
		}
		a.Close()
		b.Close()

		if tx.n != int64(len(data)) {
			t.Errorf("sent %d bytes, expected %d", tx.n, len(data))
		}
		if n != 4*PacketSize {
			t.Errorf("received %d bytes, expected %d", n, 4*PacketSize)
		}
		if !bytes.Equal(out.Bytes()[:len(data)], data) {
			t.Errorf("payload mismatch (corrupt=%v)", corrupt)
		}
		if tail := out.Bytes()[len(data):]; !bytes.Equal(tail, make([]byte, len(tail))) {
			t.Errorf("padding is not zero (corrupt=%v)", corrupt)
		}
	}
}

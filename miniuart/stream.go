package miniuart

import (
	"io"
	"os"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "miniuart: read timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func (timeoutError) Is(target error) bool {
	return target == os.ErrDeadlineExceeded
}

// ErrTimeout is returned when the read timeout expires before a byte is ready.
// It reports Timeout() == true and matches os.ErrDeadlineExceeded.
var ErrTimeout error = timeoutError{}

var (
	_ io.ReadWriter   = (*MiniUART)(nil)
	_ io.StringWriter = (*MiniUART)(nil)
	_ io.ByteReader   = (*MiniUART)(nil)
	_ io.ByteWriter   = (*MiniUART)(nil)
)

// Read waits (subject to the read timeout) for one byte, then drains
// whatever else is already available without waiting further. It returns
// ErrTimeout with nothing consumed if no byte arrives in time.
func (u *MiniUART) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := u.WaitForByte(); err != nil {
		return 0, err
	}

	n := 0
	for n < len(p) && u.HasByte() {
		p[n] = u.RecvByte()
		n++
	}
	return n, nil
}

// Write sends p as-is. It never fails.
func (u *MiniUART) Write(p []byte) (int, error) {
	for _, b := range p {
		u.SendByte(b)
	}
	return len(p), nil
}

// Flush is a no-op: there is no software buffering.
func (u *MiniUART) Flush() error {
	return nil
}

// ReadByte is a timed single-byte read.
func (u *MiniUART) ReadByte() (byte, error) {
	if err := u.WaitForByte(); err != nil {
		return 0, err
	}
	return u.RecvByte(), nil
}

// WriteByte sends c. It never fails.
func (u *MiniUART) WriteByte(c byte) error {
	u.SendByte(c)
	return nil
}

// WriteString writes s as text: every LF is preceded by a CR.
func (u *MiniUART) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		u.sendText(s[i])
	}
	return len(s), nil
}

func (u *MiniUART) sendText(b byte) {
	// Terminals expect CR before NL.
	if b == '\n' {
		u.SendByte('\r')
	}
	u.SendByte(b)
}

// Text returns an io.Writer that applies the WriteString line ending
// translation, for use with fmt.Fprintf and friends.
func (u *MiniUART) Text() io.Writer {
	return textWriter{u}
}

type textWriter struct {
	u *MiniUART
}

func (w textWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		w.u.sendText(b)
	}
	return len(p), nil
}

func (w textWriter) WriteString(s string) (int, error) {
	return w.u.WriteString(s)
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pios/host/serial"
	"pios/xmodem"
)

// fakePort replays canned device responses and records what was written.
type fakePort struct {
	in      *bytes.Reader
	written bytes.Buffer
	closed  bool
}

func (f *fakePort) Read(p []byte) (int, error)  { return f.in.Read(p) }
func (f *fakePort) Write(p []byte) (int, error) { return f.written.Write(p) }
func (f *fakePort) Close() error                { f.closed = true; return nil }
func (f *fakePort) Flush() error                { return nil }

func withPort(t *testing.T, port *fakePort) *serial.Config {
	t.Helper()
	var got serial.Config
	saved := openPort
	openPort = func(cfg *serial.Config) (serial.Port, error) {
		got = *cfg
		return port, nil
	}
	t.Cleanup(func() { openPort = saved })
	return &got
}

func TestSendRaw(t *testing.T) {
	port := &fakePort{in: bytes.NewReader(nil)}
	n, err := send(port, strings.NewReader("boot\n"), true)
	if err != nil || n != 5 {
		t.Fatalf("send: n=%d err=%v", n, err)
	}
	if port.written.String() != "boot\n" {
		t.Errorf("expected raw bytes, got %q", port.written.String())
	}
}

func TestSendXmodem(t *testing.T) {
	port := &fakePort{in: bytes.NewReader([]byte{xmodem.NAK, xmodem.ACK, xmodem.NAK, xmodem.ACK})}
	n, err := send(port, strings.NewReader("kernel"), false)
	if err != nil || n != 6 {
		t.Fatalf("send: n=%d err=%v", n, err)
	}
	if got := port.written.Len(); got != 3+xmodem.PacketSize+1+2 {
		t.Errorf("expected one packet and two EOTs, got %d bytes", got)
	}
}

func TestCommandRawFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel8.img")
	if err := os.WriteFile(path, []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}
	port := &fakePort{in: bytes.NewReader(nil)}
	cfg := withPort(t, port)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-d", "/dev/ttyAMA9", "-b", "9600", "-t", "50", "--raw", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if cfg.Device != "/dev/ttyAMA9" || cfg.Baud != 9600 || cfg.ReadTimeout != 50 {
		t.Errorf("flags not applied: %+v", *cfg)
	}
	if !bytes.Equal(port.written.Bytes(), []byte{1, 2, 3, 4}) {
		t.Errorf("unexpected bytes written: %v", port.written.Bytes())
	}
	if !port.closed {
		t.Error("port not closed")
	}
	if want := "wrote 4 bytes to /dev/ttyAMA9\n"; out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestCommandStdinXmodemCanceled(t *testing.T) {
	port := &fakePort{in: bytes.NewReader([]byte{xmodem.CAN})}
	withPort(t, port)

	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader("data"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if !errors.Is(err, xmodem.ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
}

func TestCommandMissingInput(t *testing.T) {
	withPort(t, &fakePort{in: bytes.NewReader(nil)})

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing")})
	if err := cmd.Execute(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

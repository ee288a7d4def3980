package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port io.ReadWriteCloser
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return newNativePort(port, cfg), nil
}

func newNativePort(port io.ReadWriteCloser, cfg *Config) *NativePort {
	return &NativePort{
		port: port,
		cfg:  cfg,
	}
}

// Read reads data from the serial port.
// tarm/serial reports an expired read timeout as a zero-length read (io.EOF
// on POSIX); that is turned into ErrTimeout so protocols can retry.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && len(b) > 0 && p.cfg.ReadTimeout > 0 && (err == nil || err == io.EOF) {
		return 0, ErrTimeout
	}
	return n, err
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush flushes the serial port buffers
func (p *NativePort) Flush() error {
	// tarm/serial's Flush discards pending data, which is not what callers
	// want here; Write is already synchronous.
	return nil
}

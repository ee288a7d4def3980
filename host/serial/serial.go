// Package serial opens the host end of the serial line to the Pi.
package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate; the mini UART runs at 115200
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration matching the Pi's mini UART
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 1000,
	}
}

type timeoutError struct{}

func (timeoutError) Error() string { return "serial: read timed out" }
func (timeoutError) Timeout() bool { return true }

// ErrTimeout is returned by Read when the configured read timeout expires
// before any byte arrives.
var ErrTimeout error = timeoutError{}

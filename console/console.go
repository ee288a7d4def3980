// Package console is the kernel console: one process-wide text sink backed
// by the mini UART, with leveled log output.
//
// Until Init is called output is discarded, so code may log before the UART
// is up.
package console

import (
	"fmt"
	"io"

	"pios/miniuart"
	"pios/timer"
)

// Level is a log severity.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "OFF"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "LEVEL(?)"
}

var (
	uart  *miniuart.MiniUART
	out   io.Writer = io.Discard
	clock timer.Clock
	level = LevelInfo
)

// Init hands u to the console. The console owns it from here on; Init may
// only be called once.
func Init(u *miniuart.MiniUART) {
	if uart != nil {
		panic("console: already initialized")
	}
	uart = u
	out = u.Text()
	clock = u.Clock()
}

// SetWriter redirects text output, e.g. to a framebuffer. A nil writer
// discards output.
func SetWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	out = w
}

// Writer returns the console as a text writer (LF becomes CRLF).
func Writer() io.Writer {
	return writer{}
}

type writer struct{}

func (writer) Write(p []byte) (int, error) { return out.Write(p) }

// Stream returns the raw byte stream under the console, for protocols such
// as XMODEM that must not see line ending translation. It returns nil before
// Init.
func Stream() *miniuart.MiniUART {
	return uart
}

// Print writes the operands in the manner of fmt.Print.
func Print(a ...any) {
	fmt.Fprint(out, a...)
}

// Println writes the operands in the manner of fmt.Println.
func Println(a ...any) {
	fmt.Fprintln(out, a...)
}

// Printf writes a formatted string.
func Printf(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

// SetLevel sets the minimum level that Logf and friends emit.
func SetLevel(l Level) {
	level = l
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return level
}

// Enabled reports whether messages at l are emitted.
func Enabled(l Level) bool {
	return l >= level && l < LevelOff
}

// Logf writes one log line at l, prefixed with the uptime when a clock is
// available.
func Logf(l Level, format string, a ...any) {
	if !Enabled(l) {
		return
	}
	if clock != nil {
		us := clock.Now()
		fmt.Fprintf(out, "[%5d.%06d] ", us/1_000_000, us%1_000_000)
	}
	fmt.Fprintf(out, "%s: ", l)
	fmt.Fprintf(out, format, a...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		io.WriteString(out, "\n")
	}
}

// Debugf logs at LevelDebug.
func Debugf(format string, a ...any) { Logf(LevelDebug, format, a...) }

// Infof logs at LevelInfo.
func Infof(format string, a ...any) { Logf(LevelInfo, format, a...) }

// Warnf logs at LevelWarn.
func Warnf(format string, a ...any) { Logf(LevelWarn, format, a...) }

// Errorf logs at LevelError.
func Errorf(format string, a ...any) { Logf(LevelError, format, a...) }

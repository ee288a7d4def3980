// Package kernel is the interactive part of the firmware: a shell on the
// mini UART with commands to inspect the clock, tune the read timeout and
// load images over XMODEM.
package kernel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"pios/console"
	"pios/miniuart"
	"pios/shell"
	"pios/xmodem"
)

// LoadTimeout is the read timeout used while an XMODEM transfer runs.
const LoadTimeout = 750 // ms

// MaxImage bounds the size of an image accepted by load.
const MaxImage = 8 << 20

var errImageTooLarge = errors.New("image too large")

// Kernel ties the shell to the UART it runs on.
type Kernel struct {
	uart  *miniuart.MiniUART
	sh    *shell.Shell
	image []byte
}

// New returns a kernel whose shell reads from u and writes text to out.
func New(u *miniuart.MiniUART, out io.Writer) *Kernel {
	k := &Kernel{
		uart: u,
		sh:   shell.New(u, out, "> "),
	}
	k.sh.Register("uptime", "time since boot", k.cmdUptime)
	k.sh.Register("timeout", "show or set the read timeout: timeout [ms|off]", k.cmdTimeout)
	k.sh.Register("load", "receive an image over XMODEM", k.cmdLoad)
	k.sh.Register("hexdump", "dump the loaded image: hexdump [bytes]", k.cmdHexdump)
	return k
}

// Shell returns the kernel's shell.
func (k *Kernel) Shell() *shell.Shell {
	return k.sh
}

// Image returns the last image received by load.
func (k *Kernel) Image() []byte {
	return k.image
}

// Run serves the shell forever. A shell that exits is restarted.
func (k *Kernel) Run() {
	for {
		if err := k.sh.Run(); err != nil {
			console.Warnf("shell: %v", err)
		}
	}
}

func (k *Kernel) cmdUptime(sh *shell.Shell, args []string) error {
	us := k.uart.Clock().Now()
	sh.Printf("%d.%06ds\n", us/1_000_000, us%1_000_000)
	return nil
}

func (k *Kernel) cmdTimeout(sh *shell.Shell, args []string) error {
	switch {
	case len(args) == 1:
		if ms, ok := k.uart.ReadTimeout(); ok {
			sh.Printf("%dms\n", ms)
		} else {
			sh.Printf("off\n")
		}
		return nil
	case len(args) == 2 && args[1] == "off":
		k.uart.ClearReadTimeout()
		return nil
	case len(args) == 2:
		ms, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("bad timeout %q", args[1])
		}
		k.uart.SetReadTimeout(uint32(ms))
		return nil
	}
	return errors.New("usage: timeout [ms|off]")
}

func (k *Kernel) cmdLoad(sh *shell.Shell, args []string) error {
	prev, hadTimeout := k.uart.ReadTimeout()
	k.uart.SetReadTimeout(LoadTimeout)
	defer func() {
		if hadTimeout {
			k.uart.SetReadTimeout(prev)
		} else {
			k.uart.ClearReadTimeout()
		}
	}()

	var buf bytes.Buffer
	n, err := xmodem.Receive(k.uart, &limitedWriter{w: &buf, n: MaxImage})
	if err != nil {
		console.Warnf("load failed after %d bytes: %v", n, err)
		return err
	}
	k.image = buf.Bytes()
	sh.Printf("received %d bytes, checksum 0x%02x\n", n, xmodem.Checksum(k.image))
	return nil
}

func (k *Kernel) cmdHexdump(sh *shell.Shell, args []string) error {
	n := 64
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return fmt.Errorf("bad length %q", args[1])
		}
		n = v
	}
	if n > len(k.image) {
		n = len(k.image)
	}

	for off := 0; off < n; off += 16 {
		end := min(off+16, n)
		sh.Printf("%08x ", off)
		for _, b := range k.image[off:end] {
			sh.Printf(" %02x", b)
		}
		sh.Printf("\n")
	}
	return nil
}

type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > l.n {
		return 0, errImageTooLarge
	}
	l.n -= len(p)
	return l.w.Write(p)
}

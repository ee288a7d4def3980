// Command ttywrite sends a file (or stdin) to the Pi over its serial line,
// either as raw bytes or with XMODEM for the bootloader.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pios/host/serial"
	"pios/xmodem"
)

// openPort is replaced in tests.
var openPort = serial.Open

type options struct {
	device  string
	baud    int
	timeout int
	raw     bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "ttywrite [flags] [input]",
		Short:        "Write a file to a serial device",
		Long:         "Write a file (or stdin when no input is given) to a serial device, using XMODEM unless --raw is set.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			cfg := serial.DefaultConfig(opts.device)
			cfg.Baud = opts.baud
			cfg.ReadTimeout = opts.timeout

			port, err := openPort(cfg)
			if err != nil {
				return err
			}
			defer port.Close()

			n, err := send(port, in, opts.raw)
			if err != nil {
				return fmt.Errorf("after %d bytes: %w", n, err)
			}
			if err := port.Flush(); err != nil {
				return err
			}
			cmd.Printf("wrote %d bytes to %s\n", n, opts.device)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.device, "device", "d", "/dev/ttyUSB0", "Serial device path")
	cmd.Flags().IntVarP(&opts.baud, "baud", "b", 115200, "Baud rate")
	cmd.Flags().IntVarP(&opts.timeout, "timeout", "t", 10000, "Read timeout in milliseconds")
	cmd.Flags().BoolVarP(&opts.raw, "raw", "r", false, "Write the input as-is instead of using XMODEM")
	return cmd
}

// send copies in to port, framed with XMODEM unless raw.
func send(port io.ReadWriter, in io.Reader, raw bool) (int64, error) {
	if raw {
		return io.Copy(port, in)
	}
	return xmodem.Transmit(port, in)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

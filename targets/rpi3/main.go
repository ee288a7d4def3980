//go:build tinygo && rpi3

// Command rpi3 is the Raspberry Pi 3 firmware image: it brings up the mini
// UART, routes the console to it and serves the kernel shell.
//
// TinyGo ships no rpi3 target, so building needs a board target file that
// sets the rpi3 build tag, targets bare-metal aarch64 (cortex-a53) and links
// at 0x80000, where the firmware loads kernel8.img:
//
//	tinygo build -target=path/to/rpi3.json -o kernel8.img ./targets/rpi3
//
// Everything this image runs is also built by plain go build and tested on
// the host against simulated registers.
package main

import (
	"pios/console"
	"pios/gpio"
	"pios/kernel"
	"pios/miniuart"
	"pios/timer"
)

func main() {
	uart := miniuart.New(miniuart.Hardware(), gpio.Hardware(), timer.Hardware())
	console.Init(uart)

	console.Println()
	console.Println("pios: mini UART console at 115200 8N1")
	console.Infof("type 'help' for commands")

	kernel.New(uart, console.Writer()).Run()
}

//go:build tinygo

package mmio

import "runtime/volatile"

// Register8 is an 8-bit volatile register.
type Register8 = volatile.Register8

// Register16 is a 16-bit volatile register.
type Register16 = volatile.Register16

// Register32 is a 32-bit volatile register.
type Register32 = volatile.Register32
